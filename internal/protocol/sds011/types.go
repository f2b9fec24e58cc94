package sds011

import (
	"fmt"
	"strconv"
	"strings"
)

// ReportingMode 上报模式：主动上报或查询应答
type ReportingMode byte

const (
	// ReportingActive 设备按工作周期主动推送读数
	ReportingActive ReportingMode = 0x00
	// ReportingQuery 仅在收到 Query 命令时应答读数
	ReportingQuery ReportingMode = 0x01
)

// ReportingModeFromByte 按线上字节解析：0 为主动，其余视为查询
func ReportingModeFromByte(b byte) ReportingMode {
	if b == 0x00 {
		return ReportingActive
	}
	return ReportingQuery
}

func (m ReportingMode) String() string {
	if m == ReportingActive {
		return "active"
	}
	return "query"
}

// ParseReportingMode 解析文本形式的上报模式
func ParseReportingMode(s string) (ReportingMode, error) {
	switch strings.ToLower(s) {
	case "active":
		return ReportingActive, nil
	case "query":
		return ReportingQuery, nil
	default:
		return 0, fmt.Errorf("invalid reporting mode %q (want active or query)", s)
	}
}

// WorkMode 工作状态：休眠或测量
type WorkMode byte

const (
	// WorkSleep 风扇与激光器停转，不产生读数
	WorkSleep WorkMode = 0x00
	// WorkMeasuring 正常测量
	WorkMeasuring WorkMode = 0x01
)

// WorkModeFromByte 按线上字节解析：0 为休眠，其余视为测量
func WorkModeFromByte(b byte) WorkMode {
	if b == 0x00 {
		return WorkSleep
	}
	return WorkMeasuring
}

func (m WorkMode) String() string {
	if m == WorkSleep {
		return "sleep"
	}
	return "work"
}

// ParseWorkMode 解析文本形式的工作状态（work/on、sleep/off）
func ParseWorkMode(s string) (WorkMode, error) {
	switch strings.ToLower(s) {
	case "work", "on":
		return WorkMeasuring, nil
	case "sleep", "off":
		return WorkSleep, nil
	default:
		return 0, fmt.Errorf("invalid work mode %q (want work/on or sleep/off)", s)
	}
}

// WorkingPeriod 工作周期。0 为连续测量（约1Hz），
// 1..30 为每 n 分钟唤醒测量30秒后休眠。
type WorkingPeriod byte

// WorkingPeriodContinuous 连续测量
const WorkingPeriodContinuous WorkingPeriod = 0

const workingPeriodMax = 30

// WorkingPeriodFromByte 按线上字节解析；设备回包中任意非零值均视为周期模式
func WorkingPeriodFromByte(b byte) WorkingPeriod {
	return WorkingPeriod(b)
}

// NewWorkingPeriod 构造工作周期，校验取值范围 [0,30]
func NewWorkingPeriod(n int) (WorkingPeriod, error) {
	if n < 0 || n > workingPeriodMax {
		return 0, fmt.Errorf("invalid working period %d: value out of range (0 <= n <= 30)", n)
	}
	return WorkingPeriod(n), nil
}

// ParseWorkingPeriod 解析文本形式的工作周期
func ParseWorkingPeriod(s string) (WorkingPeriod, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid working period %q: %w", s, err)
	}
	return NewWorkingPeriod(n)
}

// IsContinuous 是否连续测量
func (p WorkingPeriod) IsContinuous() bool { return p == WorkingPeriodContinuous }

// Minutes 周期分钟数；连续模式返回0
func (p WorkingPeriod) Minutes() int { return int(p) }

func (p WorkingPeriod) String() string {
	if p.IsContinuous() {
		return "continuous"
	}
	return fmt.Sprintf("every %d min", int(p))
}
