package sds011

import "encoding/binary"

// CommandKind 下行命令种类（封闭集合）
type CommandKind uint8

const (
	CmdSetReportingMode CommandKind = iota
	CmdQuery
	CmdSetDeviceID
	CmdSetSleepWork
	CmdSetWorkingPeriod
	CmdGetFirmwareVersion
)

func (k CommandKind) String() string {
	switch k {
	case CmdSetReportingMode:
		return "SetReportingMode"
	case CmdQuery:
		return "Query"
	case CmdSetDeviceID:
		return "SetDeviceID"
	case CmdSetSleepWork:
		return "SetSleepWork"
	case CmdSetWorkingPeriod:
		return "SetWorkingPeriod"
	case CmdGetFirmwareVersion:
		return "GetFirmwareVersion"
	default:
		return "Unknown"
	}
}

// ResponseKind 该命令期望的响应种类
func (k CommandKind) ResponseKind() ResponseKind {
	switch k {
	case CmdSetReportingMode:
		return RespSetReportingMode
	case CmdQuery:
		return RespQuery
	case CmdSetDeviceID:
		return RespSetDeviceID
	case CmdSetSleepWork:
		return RespSetSleepWork
	case CmdSetWorkingPeriod:
		return RespSetWorkingPeriod
	case CmdGetFirmwareVersion:
		return RespGetFirmwareVersion
	default:
		return RespQuery
	}
}

// Command 下行命令。Kind 决定哪些字段有效；
// 构造后立即编码发送，不长期持有。
type Command struct {
	Kind CommandKind

	// Query 为真时只查询当前状态，不写入
	Query bool

	Reporting ReportingMode
	Work      WorkMode
	Period    WorkingPeriod
	DeviceID  uint16
}

// NewQuery 主动查询一次读数
func NewQuery() Command {
	return Command{Kind: CmdQuery}
}

// NewSetReportingMode 设置（或查询）上报模式
func NewSetReportingMode(query bool, mode ReportingMode) Command {
	return Command{Kind: CmdSetReportingMode, Query: query, Reporting: mode}
}

// NewSetDeviceID 改写设备ID
func NewSetDeviceID(id uint16) Command {
	return Command{Kind: CmdSetDeviceID, DeviceID: id}
}

// NewSetSleepWork 设置（或查询）休眠/工作状态
func NewSetSleepWork(query bool, mode WorkMode) Command {
	return Command{Kind: CmdSetSleepWork, Query: query, Work: mode}
}

// NewSetWorkingPeriod 设置（或查询）工作周期
func NewSetWorkingPeriod(query bool, period WorkingPeriod) Command {
	return Command{Kind: CmdSetWorkingPeriod, Query: query, Period: period}
}

// NewGetFirmwareVersion 查询固件版本
func NewGetFirmwareVersion() Command {
	return Command{Kind: CmdGetFirmwareVersion}
}

func queryByte(query bool) byte {
	// 0x00 查询，0x01 写入
	if query {
		return 0x00
	}
	return 0x01
}

// data 生成15字节数据段：子命令 + 参数 + 零填充 + FF FF。
// 对 Kind 做穷举匹配，编码恒成功。
func (c Command) data() [commandDataLen]byte {
	var d [commandDataLen]byte
	d[commandDataLen-2] = 0xFF
	d[commandDataLen-1] = 0xFF

	switch c.Kind {
	case CmdSetReportingMode:
		d[0] = subReportingMode
		d[1] = queryByte(c.Query)
		d[2] = byte(c.Reporting)
	case CmdQuery:
		d[0] = subQuery
	case CmdSetDeviceID:
		d[0] = subDeviceID
		binary.BigEndian.PutUint16(d[11:13], c.DeviceID)
	case CmdSetSleepWork:
		d[0] = subSleepWork
		d[1] = queryByte(c.Query)
		d[2] = byte(c.Work)
	case CmdSetWorkingPeriod:
		d[0] = subWorkingPeriod
		d[1] = queryByte(c.Query)
		d[2] = byte(c.Period)
	case CmdGetFirmwareVersion:
		d[0] = subFirmware
	}
	return d
}

// Encode 序列化为19字节下行帧。编码是确定且不会失败的。
func (c Command) Encode() []byte {
	data := c.data()
	buf := make([]byte, 0, CommandFrameLen)
	buf = append(buf, Header, commandID)
	buf = append(buf, data[:]...)
	buf = append(buf, Checksum(data[:]), Tail)
	return buf
}
