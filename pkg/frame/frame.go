package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/draad/pkg/bitq"
)

// Frame is a message to or from one wire channel.
// Bits holds Length body bits, LSB first.
type Frame struct {
	Channel int
	Length  int
	Bits    uint32
}

// New creates a frame with the lower n bits of bits.
func New(channel int, bits uint32, n int) Frame {
	return Frame{Channel: channel, Length: n, Bits: bits & bitq.Mask(n)}
}

// ParseBits creates a frame from a string of '0' and '1', first bit first.
func ParseBits(channel int, s string) (Frame, error) {
	f := Frame{Channel: channel}
	for n, c := range s {
		if n >= MaxLength {
			return f, ErrTooLong
		}
		switch c {
		case '1':
			f.Bits |= 1 << uint(n)
		case '0':
		default:
			return f, &BitError{Pos: n, Char: c}
		}
		f.Length++
	}
	return f, f.Validate()
}

// Parse parses the "bits@channel" form produced by String.
func Parse(s string) (Frame, error) {
	pos := strings.LastIndexByte(s, '@')
	if pos < 0 {
		return ParseBits(0, s)
	}
	ch, err := strconv.Atoi(s[pos+1:])
	if err != nil {
		return Frame{}, fmt.Errorf("invalid channel %q: %v", s[pos+1:], err)
	}
	return ParseBits(ch, s[:pos])
}

// Validate checks the frame can be sent to a hub.
func (f Frame) Validate() error {
	if f.Channel < 0 || f.Channel >= NumChannels {
		return ErrInvalidChannel
	}
	if f.Length < 0 || f.Length > MaxLength {
		return ErrTooLong
	}
	if f.Bits&^bitq.Mask(f.Length) != 0 {
		return fmt.Errorf("bits beyond length %d", f.Length)
	}
	return nil
}

// Header returns the header describing the frame.
func (f Frame) Header() Header {
	return Header{Length: f.Length, Channel: f.Channel}
}

// Bit returns body bit i.
func (f Frame) Bit(i int) bool {
	return f.Bits>>uint(i)&1 != 0
}

// Uint extracts n bits starting at off as an LSB-first integer.
func (f Frame) Uint(off, n int) uint32 {
	return f.Bits >> uint(off) & bitq.Mask(n)
}

// BitString formats the body, first bit first.
func (f Frame) BitString() string {
	buf := make([]byte, f.Length)
	for i := range buf {
		if f.Bit(i) {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// String implements fmt.Stringer as "bits@channel".
func (f Frame) String() string {
	return fmt.Sprintf("%s@%d", f.BitString(), f.Channel)
}

// Join appends the body of b to a.
func Join(a, b Frame) (Frame, error) {
	if a.Channel != b.Channel {
		return a, ErrChannelMismatch
	}
	if a.Length+b.Length > MaxLength {
		return a, ErrTooLong
	}
	a.Bits |= b.Bits << uint(a.Length)
	a.Length += b.Length
	return a, nil
}
