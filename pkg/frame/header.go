package frame

import "fmt"

const (
	// HeaderBits is the width of a frame header.
	HeaderBits = 8
	// MaxLength is the longest body a header can describe.
	MaxLength = 31
	// MaxHubPayload is the longest body a hub puts in one frame, so header
	// and body fit in a 32-bit buffer.
	MaxHubPayload = 24
	// NumChannels is the number of wire channels of a hub.
	NumChannels = 2
)

// Layout is the bit layout of the header byte.
type Layout int

const (
	// LayoutMSB puts the start marker in bit 7, Length in bits 2..6 and
	// Channel in bits 0..1. Used by the byte hub and the host.
	LayoutMSB Layout = iota
	// LayoutLSB puts the start marker in bit 0, Length in bits 1..5 and
	// Channel in bits 6..7. Used by the bit-serial hub.
	LayoutLSB
)

// Header is a decoded frame header.
type Header struct {
	Length  int
	Channel int
}

// ParseLayout parses "msb"/"byte" or "lsb"/"bit".
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "msb", "byte":
		return LayoutMSB, nil
	case "lsb", "bit":
		return LayoutLSB, nil
	}
	return LayoutMSB, fmt.Errorf("unknown frame layout %q", s)
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	if l == LayoutLSB {
		return "lsb"
	}
	return "msb"
}

// IsStart checks the start marker of a header byte.
func (l Layout) IsStart(b byte) bool {
	if l == LayoutLSB {
		return b&1 != 0
	}
	return b&0x80 != 0
}

// Encode builds the header byte.
func (l Layout) Encode(h Header) byte {
	length, ch := byte(h.Length)&MaxLength, byte(h.Channel)&3
	if l == LayoutLSB {
		return 1 | length<<1 | ch<<6
	}
	return 0x80 | length<<2 | ch
}

// Decode parses a header byte. ok is false without a start marker.
func (l Layout) Decode(b byte) (h Header, ok bool) {
	if !l.IsStart(b) {
		return h, false
	}
	if l == LayoutLSB {
		h.Length, h.Channel = int(b>>1)&MaxLength, int(b>>6)
	} else {
		h.Length, h.Channel = int(b>>2)&MaxLength, int(b&3)
	}
	return h, true
}

// BodyBytes returns the number of bytes holding length body bits.
func BodyBytes(length int) int {
	return (length + 7) / 8
}
