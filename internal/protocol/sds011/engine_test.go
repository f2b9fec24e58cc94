package sds011

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitResponse(t *testing.T, e *Engine) Response {
	t.Helper()
	select {
	case resp, ok := <-e.Responses():
		require.True(t, ok, "response channel closed")
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return Response{}
	}
}

func waitControl(t *testing.T, e *Engine) ControlMessage {
	t.Helper()
	select {
	case msg := <-e.Control():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for control message")
		return ControlMessage{}
	}
}

func TestEngine_ReadDecodesInterleavedStream(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(pr, io.Discard, zap.NewNop())
	defer e.Close()
	defer pw.Close()

	f1 := makeFrame(0xC0, [4]byte{0x34, 0x00, 0x50, 0x00}, 0xA160)
	f2 := makeFrame(0xC5, [4]byte{0x08, 0x00, 0x05, 0x00}, 0xA160)

	go func() {
		// 噪声 + 读数 + 噪声 + 应答
		pw.Write([]byte{0x00, 0xFF, 0x13})
		pw.Write(f1)
		pw.Write([]byte{0x42})
		pw.Write(f2)
	}()

	r1 := waitResponse(t, e)
	assert.Equal(t, RespQuery, r1.Kind)
	assert.InDelta(t, 5.2, r1.PM25, 1e-9)

	r2 := waitResponse(t, e)
	assert.Equal(t, RespSetWorkingPeriod, r2.Kind, "arrival order must be preserved")
}

func TestEngine_BadFrameIsNonFatal(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(pr, io.Discard, zap.NewNop())
	defer e.Close()
	defer pw.Close()

	bad := makeFrame(0xC0, [4]byte{0x34, 0x00, 0x50, 0x00}, 0xA160)
	bad[4] ^= 0xFF // 破坏数据字节
	good := makeFrame(0xC0, [4]byte{0x34, 0x00, 0x50, 0x00}, 0xA160)

	go func() {
		pw.Write(bad)
		pw.Write(good)
	}()

	msg := waitControl(t, e)
	assert.False(t, msg.Fatal)
	assert.True(t, errors.Is(msg.Err, ErrBadChecksum), "got %v", msg.Err)

	resp := waitResponse(t, e)
	assert.Equal(t, RespQuery, resp.Kind, "engine must keep decoding after a bad frame")
}

func TestEngine_ReadErrorIsFatal(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(pr, io.Discard, zap.NewNop())
	defer e.Close()

	pw.CloseWithError(errors.New("device unplugged"))

	msg := waitControl(t, e)
	assert.True(t, msg.Fatal)
	assert.ErrorContains(t, msg.Err, "transport read")

	// 读协程退出后响应通道关闭
	select {
	case _, ok := <-e.Responses():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("response channel not closed after fatal read error")
	}
}

func TestEngine_WriteEncodesCommands(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(eofReader{}, pw, zap.NewNop())
	defer e.Close()

	require.NoError(t, e.Send(NewQuery()))

	buf := make([]byte, CommandFrameLen)
	_, err := io.ReadFull(pr, buf)
	require.NoError(t, err)
	assert.Equal(t, NewQuery().Encode(), buf)
}

func TestEngine_WriteErrorIsFatal(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(eofReader{}, pw, zap.NewNop())
	defer e.Close()

	pr.CloseWithError(errors.New("device gone"))
	require.NoError(t, e.Send(NewQuery()))

	for {
		msg := waitControl(t, e)
		if msg.Fatal && !errors.Is(msg.Err, io.EOF) {
			assert.ErrorContains(t, msg.Err, "transport write")
			return
		}
	}
}

// 写协程因致命错误退出后，后续 Send 必须立即报错而不是
// 填满命令队列后永久阻塞
func TestEngine_SendAfterWriterDeath(t *testing.T) {
	pr, pw := io.Pipe()
	e := Start(eofReader{}, pw, zap.NewNop())
	defer e.Close()

	pr.CloseWithError(errors.New("device gone"))
	require.NoError(t, e.Send(NewQuery()))

	for {
		msg := waitControl(t, e)
		if msg.Fatal && !errors.Is(msg.Err, io.EOF) {
			break
		}
	}

	var blocked int32 = 1
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*cap(e.commands); i++ {
			if err := e.Send(NewQuery()); !errors.Is(err, ErrEngineClosed) {
				return
			}
		}
		atomic.StoreInt32(&blocked, 0)
	}()

	select {
	case <-done:
		assert.Zero(t, atomic.LoadInt32(&blocked), "Send must return ErrEngineClosed after the writer dies")
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked after write loop exit")
	}
}

func TestEngine_SendAfterClose(t *testing.T) {
	e := Start(eofReader{}, io.Discard, zap.NewNop())
	e.Close()
	assert.ErrorIs(t, e.Send(NewQuery()), ErrEngineClosed)
}

// eofReader 立即返回流尾，用于只关心写方向的用例
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// newScriptedPort 返回一个预置了响应帧的读端（送完后阻塞），写端丢弃
func newScriptedPort(frames ...[]byte) (io.Reader, io.Writer) {
	var all []byte
	for _, f := range frames {
		all = append(all, f...)
	}
	return &scriptedReader{data: all, hold: make(chan struct{})}, io.Discard
}

type scriptedReader struct {
	data []byte
	off  int
	hold chan struct{}
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if r.off < len(r.data) {
		n := copy(p, r.data[r.off:])
		r.off += n
		return n, nil
	}
	<-r.hold // 模拟空闲串口：无数据时一直阻塞
	return 0, io.EOF
}
