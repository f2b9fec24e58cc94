package sds011

import (
	"errors"
	"fmt"
)

var (
	ErrShortFrame     = errors.New("short frame")
	ErrBadHeader      = errors.New("bad frame header")
	ErrBadChecksum    = errors.New("bad checksum")
	ErrUnknownCommand = errors.New("unknown command")
	ErrFrameTooLong   = errors.New("frame too long, discarded")
	ErrEngineClosed   = errors.New("engine closed")
)

// RetriesExhaustedError 重试耗尽：命令在所有尝试内均未收到匹配响应
type RetriesExhaustedError struct {
	Command  CommandKind
	Attempts int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("no response to %s after %d attempts", e.Command, e.Attempts)
}

// ControlMessage 引擎控制事件。Fatal 为真表示所属读/写协程已终止。
type ControlMessage struct {
	Err   error
	Fatal bool
}
