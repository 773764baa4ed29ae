package host

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the client stopped running.
var ErrClosed = errors.New("client closed")

// NoResponseError indicates a satellite didn't answer a poke in time.
type NoResponseError struct {
	Channel int
}

// Error implements error.
func (e *NoResponseError) Error() string {
	return fmt.Sprintf("channel %d did not respond", e.Channel)
}

// SizeError indicates a satellite response of unexpected length.
type SizeError struct {
	Channel int
	Length  int
}

// Error implements error.
func (e *SizeError) Error() string {
	return fmt.Sprintf("channel %d sent a response of %d bits", e.Channel, e.Length)
}
