// Package transport 负责物理串口的打开与配置。
// 协议引擎只依赖 io.Reader/io.Writer，不感知这里的细节。
package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// Open 按 SDS011 的线路参数打开串口：8 数据位、无校验、1 停止位。
// 波特率由配置给出（设备固定 9600）。
func Open(path string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = 9600
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}
