package sds011

// SDS011 串口协议帧格式。
//
// 上行帧（传感器 → 主机，固定10字节）：
//   AA | cmd | data[4] | device[2] | checksum | AB
//   checksum = sum(bytes[2..=7]) 的低8位（device 两字节参与校验）
//
// 下行帧（主机 → 传感器，固定19字节）：
//   AA | B4 | data[15] | checksum | AB
//   data[0] 为子命令字节，末尾两字节固定 FF FF，checksum 覆盖 data[15]
const (
	// FrameLen 上行帧总长度
	FrameLen = 10
	// CommandFrameLen 下行帧总长度
	CommandFrameLen = 19

	commandDataLen = 15

	// Header 帧头
	Header byte = 0xAA
	// Tail 帧尾（接收方向不校验，与设备实际行为一致）
	Tail byte = 0xAB

	// commandID 所有下行命令共用的命令字节。
	// 协议即如此：具体操作由 data[0] 区分，0xB4 恒定不变。
	commandID byte = 0xB4

	// 上行帧命令字节
	respQueryID byte = 0xC0
	respReplyID byte = 0xC5

	// data[0] 子命令字节
	subReportingMode byte = 0x02
	subQuery         byte = 0x04
	subDeviceID      byte = 0x05
	subSleepWork     byte = 0x06
	subFirmware      byte = 0x07
	subWorkingPeriod byte = 0x08
)

// Checksum 计算累加校验：按无符号16位累加后取低8位。
// 入参为数据字节（上行帧的 bytes[2..=7]，下行帧的15字节数据段），
// 不包含帧头、命令字节与帧尾。
func Checksum(b []byte) byte {
	var sum uint16
	for i := 0; i < len(b); i++ {
		sum += uint16(b[i])
	}
	return byte(sum & 0xFF)
}
