package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChannel indicates a channel id outside 0..NumChannels-1.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrTooLong indicates more body bits than a header can describe.
	ErrTooLong = errors.New("frame too long")
	// ErrChannelMismatch indicates joining frames of different channels.
	ErrChannelMismatch = errors.New("channel mismatch")
)

// BitError reports an invalid character in a bit string.
type BitError struct {
	Pos  int
	Char rune
}

// Error implements error.
func (e *BitError) Error() string {
	return fmt.Sprintf("invalid bit %q at %d", e.Char, e.Pos)
}
