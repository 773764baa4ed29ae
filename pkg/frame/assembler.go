package frame

import "github.com/robotalks/draad/pkg/bitq"

// Result is the outcome of feeding one unit into an assembler.
type Result int

const (
	// ResultIdle means the input was discarded while waiting for a start marker.
	ResultIdle Result = iota
	// ResultPending means a frame is being received.
	ResultPending
	// ResultFrame means a frame completed.
	ResultFrame
	// ResultInvalid means a complete frame was discarded, e.g. for a bad channel.
	ResultInvalid
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultIdle:
		return "idle"
	case ResultPending:
		return "pending"
	case ResultFrame:
		return "frame"
	case ResultInvalid:
		return "invalid"
	}
	return "unknown"
}

// BitAssembler assembles frames from a bit-serial link using LayoutLSB.
// Zeros received while idle are ignored, so the link may idle low.
// The zero value is ready to use.
type BitAssembler struct {
	header     byte
	headerBits int
	body       uint32
	bodyBits   int
	length     int
}

// PushBit consumes one bit.
func (a *BitAssembler) PushBit(bit bool) (Frame, Result) {
	var v byte
	if bit {
		v = 1
	}
	if a.headerBits < HeaderBits {
		if a.headerBits == 0 && v == 0 {
			return Frame{}, ResultIdle
		}
		a.header |= v << uint(a.headerBits)
		if a.headerBits++; a.headerBits < HeaderBits {
			return Frame{}, ResultPending
		}
		h, _ := LayoutLSB.Decode(a.header)
		a.length = h.Length
		if a.length == 0 {
			return a.complete()
		}
		return Frame{}, ResultPending
	}
	a.body |= uint32(v) << uint(a.bodyBits)
	if a.bodyBits++; a.bodyBits < a.length {
		return Frame{}, ResultPending
	}
	return a.complete()
}

// Busy indicates a frame is partially received.
func (a *BitAssembler) Busy() bool {
	return a.headerBits > 0
}

// Reset returns to idle and drops a partial frame.
func (a *BitAssembler) Reset() {
	*a = BitAssembler{}
}

func (a *BitAssembler) complete() (Frame, Result) {
	h, _ := LayoutLSB.Decode(a.header)
	f := Frame{Channel: h.Channel, Length: h.Length, Bits: a.body & bitq.Mask(h.Length)}
	a.Reset()
	if f.Channel >= NumChannels {
		return f, ResultInvalid
	}
	return f, ResultFrame
}

// ByteAssembler assembles frames from a byte-oriented link.
// Bytes without a start marker are ignored while idle.
type ByteAssembler struct {
	Layout Layout

	header Header
	active bool
	body   uint32
	got    int
}

// PushByte consumes one byte.
func (a *ByteAssembler) PushByte(b byte) (Frame, Result) {
	if !a.active {
		h, ok := a.Layout.Decode(b)
		if !ok {
			return Frame{}, ResultIdle
		}
		a.header, a.active, a.body, a.got = h, true, 0, 0
		if h.Length == 0 {
			return a.complete()
		}
		return Frame{}, ResultPending
	}
	a.body |= uint32(b) << uint(a.got)
	if a.got += 8; a.got < a.header.Length {
		return Frame{}, ResultPending
	}
	return a.complete()
}

// Busy indicates a frame is partially received.
func (a *ByteAssembler) Busy() bool {
	return a.active
}

// Reset returns to idle and drops a partial frame.
func (a *ByteAssembler) Reset() {
	a.active, a.body, a.got = false, 0, 0
}

func (a *ByteAssembler) complete() (Frame, Result) {
	f := Frame{Channel: a.header.Channel, Length: a.header.Length, Bits: a.body & bitq.Mask(a.header.Length)}
	a.Reset()
	if f.Channel >= NumChannels {
		return f, ResultInvalid
	}
	return f, ResultFrame
}
