package wire

import "sync/atomic"

// MasterStats counts the bit slots performed by a Master.
type MasterStats struct {
	Written uint64 `json:"written"`
	Read    uint64 `json:"read"`
	NoReply uint64 `json:"no-reply"`
}

// Master runs bit slots on one draad from the hub side.
// A Master is used by a single goroutine; Stats can be read concurrently.
type Master struct {
	Line   Line
	Clock  Clock
	Timing Timing

	written uint64
	read    uint64
	noReply uint64
}

// NewMaster creates a Master.
func NewMaster(line Line, clock Clock, timing Timing) *Master {
	return &Master{Line: line, Clock: clock, Timing: timing}
}

// WriteBit sends one bit. The slot takes 4 quanta regardless of the bit.
func (m *Master) WriteBit(bit bool) {
	t := &m.Timing
	high, low := t.Quarters(8), t.Quarters(8)
	if bit {
		high, low = t.Quarters(12), t.Quarters(4)
	}
	m.Line.Drive()
	m.Clock.Delay(high - t.Pulldown)
	m.Line.Release()
	m.Clock.Delay(low + t.Pulldown)
	atomic.AddUint64(&m.written, 1)
}

// ReadBit requests one bit from the slave.
// ok is false if the slave didn't reply, which means it has nothing to send.
// The slot takes 4 quanta on every path.
func (m *Master) ReadBit() (bit, ok bool) {
	t := &m.Timing
	m.Line.Drive()
	m.Clock.Delay(t.Quantum - t.Pulldown)
	m.Line.Release()
	m.Clock.Delay(t.Quantum + t.Pulldown)
	if !m.Line.Sample() {
		m.Clock.Delay(t.Quarters(8))
		atomic.AddUint64(&m.noReply, 1)
		return false, false
	}
	m.Clock.Delay(t.Quantum)
	bit = m.Line.Sample()
	m.Clock.Delay(t.Quantum)
	atomic.AddUint64(&m.read, 1)
	return bit, true
}

// Idle spends one poll interval without touching the line.
func (m *Master) Idle() {
	m.Clock.Delay(m.Timing.PollInterval)
}

// Stats returns the counters.
func (m *Master) Stats() MasterStats {
	return MasterStats{
		Written: atomic.LoadUint64(&m.written),
		Read:    atomic.LoadUint64(&m.read),
		NoReply: atomic.LoadUint64(&m.noReply),
	}
}
