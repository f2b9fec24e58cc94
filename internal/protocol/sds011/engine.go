package sds011

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Engine 协议引擎：一读一写两个协程各自独占传输的一个方向，
// 协程之间不共享任何协议状态，只通过通道与外界交互。
//
//	调用方 → Send → 命令队列 → 写协程 → 传输
//	传输 → 读协程 → 组帧/解码 → Responses
//	错误事件（致命与否）→ Control
type Engine struct {
	commands  chan Command
	responses chan Response
	control   chan ControlMessage

	log        *zap.Logger
	closeOnce  sync.Once
	writerDown atomic.Bool
}

// Start 在给定的传输两半上启动引擎。
// r 为接收方向（阻塞按字节读），w 为发送方向（阻塞整包写）。
// 传输层的打开与配置由调用方负责。
func Start(r io.Reader, w io.Writer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		commands:  make(chan Command, 16),
		responses: make(chan Response, 64),
		control:   make(chan ControlMessage, 16),
		log:       log,
	}
	go e.readLoop(r)
	go e.writeLoop(w)
	return e
}

// Responses 解码后的响应流（含主动上报），按到达顺序投递。
// 读协程退出时关闭。
func (e *Engine) Responses() <-chan Response { return e.responses }

// Control 错误事件流。Fatal 事件之后所属协程不再工作。
func (e *Engine) Control() <-chan ControlMessage { return e.control }

// Send 投递一条命令给写协程。
// 引擎关闭或写协程已因致命错误终止后返回 ErrEngineClosed。
func (e *Engine) Send(cmd Command) (err error) {
	if e.writerDown.Load() {
		return ErrEngineClosed
	}
	defer func() {
		if recover() != nil {
			err = ErrEngineClosed
		}
	}()
	e.commands <- cmd
	return nil
}

// Close 停止写协程。读协程在传输读出错或到流尾时自行退出。
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.commands) })
}

// emit 投递控制事件。无人消费时丢弃并记日志，避免读写协程被拖死。
func (e *Engine) emit(msg ControlMessage) {
	select {
	case e.control <- msg:
	default:
		e.log.Warn("control channel full, dropping event",
			zap.Error(msg.Err), zap.Bool("fatal", msg.Fatal))
	}
}

func (e *Engine) readLoop(r io.Reader) {
	defer close(e.responses)

	e.log.Debug("read loop started")
	br := bufio.NewReader(r)
	var acc Accumulator

	for {
		b, err := br.ReadByte()
		if err != nil {
			e.emit(ControlMessage{Err: fmt.Errorf("transport read: %w", err), Fatal: true})
			e.log.Debug("read loop exiting", zap.Error(err))
			return
		}

		frame, err := acc.Feed(b)
		if err != nil {
			e.emit(ControlMessage{Err: err})
			continue
		}
		if frame == nil {
			continue
		}

		resp, err := DecodeFrame(frame)
		if err != nil {
			e.emit(ControlMessage{Err: err})
			continue
		}
		e.responses <- resp
	}
}

func (e *Engine) writeLoop(w io.Writer) {
	e.log.Debug("write loop started")

	for cmd := range e.commands {
		buf := cmd.Encode()
		n, err := w.Write(buf)
		if err == nil && n < len(buf) {
			err = io.ErrShortWrite
		}
		if err != nil {
			e.writerDown.Store(true)
			e.emit(ControlMessage{Err: fmt.Errorf("transport write: %w", err), Fatal: true})
			e.log.Debug("write loop exiting", zap.Error(err))
			// 继续排空命令队列直到 Close：已越过 writerDown 检查的
			// 发送者不能卡在满队列上
			for range e.commands {
			}
			return
		}
		e.log.Debug("sent command",
			zap.Stringer("kind", cmd.Kind), zap.String("frame", fmt.Sprintf("% x", buf)))
	}
}
