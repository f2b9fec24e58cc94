package sds011

import (
	"encoding/binary"
	"fmt"
)

// ResponseKind 上行响应种类（封闭集合）
type ResponseKind uint8

const (
	RespQuery ResponseKind = iota
	RespSetReportingMode
	RespSetDeviceID
	RespSetSleepWork
	RespSetWorkingPeriod
	RespGetFirmwareVersion
)

func (k ResponseKind) String() string {
	switch k {
	case RespQuery:
		return "Query"
	case RespSetReportingMode:
		return "SetReportingMode"
	case RespSetDeviceID:
		return "SetDeviceID"
	case RespSetSleepWork:
		return "SetSleepWork"
	case RespSetWorkingPeriod:
		return "SetWorkingPeriod"
	case RespGetFirmwareVersion:
		return "GetFirmwareVersion"
	default:
		return "Unknown"
	}
}

// Response 解码后的上行帧。Kind 决定哪些字段有效。
type Response struct {
	Kind ResponseKind

	// Query 为真表示设备在应答一次状态查询而非写入
	Query bool

	Reporting ReportingMode
	Work      WorkMode
	Period    WorkingPeriod

	// PM25/PM10 读数，单位 µg/m³（原始小端 u16 除以 10）
	PM25 float64
	PM10 float64

	// 固件日期（年份为 2000 起的偏移，按设备原样保留）
	FirmwareYear  byte
	FirmwareMonth byte
	FirmwareDay   byte

	// DeviceID 设备ID（大端 u16）
	DeviceID uint16
}

// DecodeFrame 解码一条完整10字节上行帧：
// 校验长度、帧头与校验和，再按 (cmd, data[0]) 分发到具体响应。
// 帧尾字节不校验。
func DecodeFrame(frame []byte) (Response, error) {
	if len(frame) != FrameLen {
		return Response{}, fmt.Errorf("%w: got %d bytes (% x)", ErrShortFrame, len(frame), frame)
	}
	if frame[0] != Header {
		return Response{}, fmt.Errorf("%w: 0x%02x", ErrBadHeader, frame[0])
	}
	if got, want := frame[8], Checksum(frame[2:8]); got != want {
		return Response{}, fmt.Errorf("%w: got 0x%02x want 0x%02x (% x)", ErrBadChecksum, got, want, frame)
	}

	device := binary.BigEndian.Uint16(frame[6:8])

	switch {
	case frame[1] == respQueryID:
		return Response{
			Kind:     RespQuery,
			PM25:     float64(binary.LittleEndian.Uint16(frame[2:4])) / 10,
			PM10:     float64(binary.LittleEndian.Uint16(frame[4:6])) / 10,
			DeviceID: device,
		}, nil

	case frame[1] == respReplyID && frame[2] == subReportingMode:
		return Response{
			Kind:      RespSetReportingMode,
			Query:     frame[3] == 0x00,
			Reporting: ReportingModeFromByte(frame[4]),
			DeviceID:  device,
		}, nil

	case frame[1] == respReplyID && frame[2] == subDeviceID:
		return Response{Kind: RespSetDeviceID, DeviceID: device}, nil

	case frame[1] == respReplyID && frame[2] == subSleepWork:
		return Response{
			Kind:     RespSetSleepWork,
			Query:    frame[3] == 0x00,
			Work:     WorkModeFromByte(frame[4]),
			DeviceID: device,
		}, nil

	case frame[1] == respReplyID && frame[2] == subWorkingPeriod:
		return Response{
			Kind:     RespSetWorkingPeriod,
			Query:    frame[3] == 0x00,
			Period:   WorkingPeriodFromByte(frame[4]),
			DeviceID: device,
		}, nil

	case frame[1] == respReplyID && frame[2] == subFirmware:
		return Response{
			Kind:          RespGetFirmwareVersion,
			FirmwareYear:  frame[3],
			FirmwareMonth: frame[4],
			FirmwareDay:   frame[5],
			DeviceID:      device,
		}, nil

	default:
		return Response{}, fmt.Errorf("%w: 0x%02x/0x%02x (% x)", ErrUnknownCommand, frame[1], frame[2], frame)
	}
}
