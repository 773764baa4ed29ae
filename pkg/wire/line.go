package wire

import "time"

// Line is one end of an open-drain draad.
type Line interface {
	// Drive asserts the line (high).
	Drive()
	// Release stops driving; the pull-down brings the line low unless the
	// peer drives it.
	Release()
	// Sample reads the actual level of the line, not the local output.
	Sample() bool
}

// Clock provides the fixed busy-wait delays of the protocol.
type Clock interface {
	Delay(d time.Duration)
}

// ClockFunc is the func form of Clock.
type ClockFunc func(time.Duration)

// Delay implements Clock.
func (f ClockFunc) Delay(d time.Duration) {
	f(d)
}

// BusyClock spins on the monotonic clock. Sleeping is far too coarse for
// delays of a few microseconds.
type BusyClock struct{}

// Delay implements Clock.
func (BusyClock) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}
