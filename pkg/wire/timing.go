package wire

import (
	"fmt"
	"time"
)

// Default timing of the draad link.
const (
	DefaultQuantum  = 30 * time.Microsecond
	DefaultPulldown = 4 * time.Microsecond
)

// Timing defines the delays of a draad link. Every delay is derived from
// Quantum. Pulldown is the time the pull-down resistor needs to bring a
// released line low; the master compensates for it when writing.
type Timing struct {
	Quantum      time.Duration `yaml:"quantum"`
	Pulldown     time.Duration `yaml:"pulldown"`
	PollInterval time.Duration `yaml:"poll-interval"`
}

// DefaultTiming returns the timing used by the firmware.
func DefaultTiming() Timing {
	return TimingFor(DefaultQuantum, DefaultPulldown)
}

// TimingFor creates a Timing with the poll interval derived from the quantum.
func TimingFor(quantum, pulldown time.Duration) Timing {
	return Timing{
		Quantum:      quantum,
		Pulldown:     pulldown,
		PollInterval: quantum / 8,
	}
}

// Quarters returns n quarter quanta.
func (t Timing) Quarters(n int) time.Duration {
	return t.Quantum * time.Duration(n) / 4
}

// Slot returns the duration of one bit slot.
func (t Timing) Slot() time.Duration {
	return t.Quarters(16)
}

// Validate checks the timing is usable. A released line must fall within
// a quarter quantum, and the slave must poll more often than that, or a
// slave reply overlaps the next sample point.
func (t Timing) Validate() error {
	if t.Quantum <= 0 {
		return fmt.Errorf("wire: quantum must be positive, got %v", t.Quantum)
	}
	limit := t.Quarters(1)
	if t.Pulldown < 0 || t.Pulldown >= limit {
		return fmt.Errorf("wire: pulldown %v must be in [0, %v)", t.Pulldown, limit)
	}
	if t.PollInterval <= 0 || t.PollInterval >= limit {
		return fmt.Errorf("wire: poll interval %v must be in (0, %v)", t.PollInterval, limit)
	}
	return nil
}
