package sds011

// Accumulator 逐字节组帧器。两个状态：
// 空闲时扫描帧头 0xAA，其余字节按噪声丢弃；
// 组帧中逐字节累积，满10字节产出完整帧并回到空闲。
//
// 任何超长条件都会复位到空闲并重新同步，且触发复位的字节
// 会被重新当作潜在帧头检查，保证后续帧不丢。
type Accumulator struct {
	buf []byte
}

// Feed 送入一个字节。返回非 nil 帧表示组帧完成（恰好10字节），
// 返回 ErrFrameTooLong 表示丢弃了一段超长数据并已重新同步。
func (a *Accumulator) Feed(b byte) ([]byte, error) {
	if a.buf == nil {
		// 空闲：只认帧头
		if b == Header {
			a.buf = append(make([]byte, 0, FrameLen), b)
		}
		return nil, nil
	}

	if len(a.buf) >= FrameLen {
		// 防御分支：正常路径满10字节即产出，不会走到这里
		a.buf = nil
		if b == Header {
			a.buf = append(make([]byte, 0, FrameLen), b)
		}
		return nil, ErrFrameTooLong
	}

	a.buf = append(a.buf, b)
	if len(a.buf) == FrameLen {
		frame := a.buf
		a.buf = nil
		return frame, nil
	}
	return nil, nil
}

// Reset 复位到空闲态
func (a *Accumulator) Reset() { a.buf = nil }

// Pending 当前已累积的字节数（测试与诊断用）
func (a *Accumulator) Pending() int { return len(a.buf) }
