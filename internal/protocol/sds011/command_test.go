package sds011

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_GoldenFrames(t *testing.T) {
	pad := func(head []byte) []byte {
		// 数据段补零到13字节后接 FF FF
		d := make([]byte, 13)
		copy(d, head)
		return append(d, 0xFF, 0xFF)
	}
	frame := func(data []byte) []byte {
		f := []byte{0xAA, 0xB4}
		f = append(f, data...)
		return append(f, Checksum(data), 0xAB)
	}

	cases := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{"query", NewQuery(), frame(pad([]byte{0x04}))},
		{"firmware", NewGetFirmwareVersion(), frame(pad([]byte{0x07}))},
		{"set reporting active", NewSetReportingMode(false, ReportingActive), frame(pad([]byte{0x02, 0x01, 0x00}))},
		{"get reporting", NewSetReportingMode(true, ReportingActive), frame(pad([]byte{0x02, 0x00, 0x00}))},
		{"set sleep", NewSetSleepWork(false, WorkSleep), frame(pad([]byte{0x06, 0x01, 0x00}))},
		{"get work mode", NewSetSleepWork(true, WorkMeasuring), frame(pad([]byte{0x06, 0x00, 0x01}))},
		{"set period 5", NewSetWorkingPeriod(false, WorkingPeriod(5)), frame(pad([]byte{0x08, 0x01, 0x05}))},
		{"get period", NewSetWorkingPeriod(true, WorkingPeriodContinuous), frame(pad([]byte{0x08, 0x00, 0x00}))},
		{"set device id", NewSetDeviceID(0xA160), frame(pad([]byte{0x05, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xA1, 0x60}))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.cmd.Encode()
			require.Len(t, got, CommandFrameLen)
			assert.Equal(t, c.want, got, "frame % x", got)
		})
	}
}

// 已知参考帧：主动查询命令固定为 AA B4 04 00×12 FF FF 02 AB
func TestEncode_QueryReferenceBytes(t *testing.T) {
	want := []byte{
		0xAA, 0xB4, 0x04,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xFF, 0xFF, 0x02, 0xAB,
	}
	if got := NewQuery().Encode(); !bytes.Equal(got, want) {
		t.Fatalf("query frame:\n got  % x\n want % x", got, want)
	}
}

// 编码后的数据段应能还原出命令的语义字段
func TestEncode_RoundTripFields(t *testing.T) {
	cmds := []Command{
		NewQuery(),
		NewGetFirmwareVersion(),
		NewSetReportingMode(true, ReportingQuery),
		NewSetReportingMode(false, ReportingActive),
		NewSetSleepWork(false, WorkMeasuring),
		NewSetWorkingPeriod(false, WorkingPeriod(12)),
		NewSetDeviceID(0xBEEF),
	}

	for _, cmd := range cmds {
		buf := cmd.Encode()
		require.Len(t, buf, CommandFrameLen)
		assert.Equal(t, Header, buf[0])
		assert.Equal(t, byte(0xB4), buf[1], "all commands share one command id")
		assert.Equal(t, Tail, buf[CommandFrameLen-1])

		data := buf[2 : 2+15]
		assert.Equal(t, Checksum(data), buf[CommandFrameLen-2])
		assert.Equal(t, []byte{0xFF, 0xFF}, data[13:15])

		switch cmd.Kind {
		case CmdSetReportingMode:
			assert.Equal(t, byte(0x02), data[0])
			assert.Equal(t, cmd.Query, data[1] == 0x00)
			assert.Equal(t, cmd.Reporting, ReportingModeFromByte(data[2]))
		case CmdQuery:
			assert.Equal(t, byte(0x04), data[0])
		case CmdSetDeviceID:
			assert.Equal(t, byte(0x05), data[0])
			assert.Equal(t, cmd.DeviceID, binary.BigEndian.Uint16(data[11:13]))
		case CmdSetSleepWork:
			assert.Equal(t, byte(0x06), data[0])
			assert.Equal(t, cmd.Query, data[1] == 0x00)
			assert.Equal(t, cmd.Work, WorkModeFromByte(data[2]))
		case CmdSetWorkingPeriod:
			assert.Equal(t, byte(0x08), data[0])
			assert.Equal(t, cmd.Query, data[1] == 0x00)
			assert.Equal(t, cmd.Period, WorkingPeriodFromByte(data[2]))
		case CmdGetFirmwareVersion:
			assert.Equal(t, byte(0x07), data[0])
		}
	}
}

func TestCommandKind_ResponseKind(t *testing.T) {
	pairs := map[CommandKind]ResponseKind{
		CmdQuery:              RespQuery,
		CmdSetReportingMode:   RespSetReportingMode,
		CmdSetDeviceID:        RespSetDeviceID,
		CmdSetSleepWork:       RespSetSleepWork,
		CmdSetWorkingPeriod:   RespSetWorkingPeriod,
		CmdGetFirmwareVersion: RespGetFirmwareVersion,
	}
	for ck, rk := range pairs {
		assert.Equal(t, rk, ck.ResponseKind(), ck.String())
	}
}
