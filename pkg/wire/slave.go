package wire

import (
	"context"

	"github.com/robotalks/draad/pkg/bitq"
)

// BitHandler is called when the slave received a bit written by the master.
// tx is the slave's transmit queue.
type BitHandler interface {
	HandleBit(bit bool, tx *bitq.Queue)
}

// HandleBitFunc is the func form of BitHandler.
type HandleBitFunc func(bit bool, tx *bitq.Queue)

// HandleBit implements BitHandler.
func (f HandleBitFunc) HandleBit(bit bool, tx *bitq.Queue) {
	f(bit, tx)
}

// Slave answers bit slots on one draad from the satellite side.
type Slave struct {
	Line    Line
	Clock   Clock
	Timing  Timing
	Tx      *bitq.Queue
	Handler BitHandler
}

// NewSlave creates a Slave with an empty transmit queue.
func NewSlave(line Line, clock Clock, timing Timing, handler BitHandler) *Slave {
	return &Slave{
		Line:    line,
		Clock:   clock,
		Timing:  timing,
		Tx:      bitq.New(bitq.MaxCapacity, nil),
		Handler: handler,
	}
}

// Step waits for the next bit slot and serves it.
// It only returns an error when ctx is done while waiting.
func (s *Slave) Step(ctx context.Context) error {
	t := &s.Timing
	if err := s.waitFor(ctx, true); err != nil {
		return err
	}
	s.Clock.Delay(t.Quarters(5))
	if s.Line.Sample() {
		// master write
		s.Clock.Delay(t.Quarters(6))
		bit := s.Line.Sample()
		if h := s.Handler; h != nil {
			h.HandleBit(bit, s.Tx)
		}
		if err := s.waitFor(ctx, false); err != nil {
			return err
		}
		s.Clock.Delay(t.Quarters(1))
		return nil
	}
	// read request
	bit, ok := s.Tx.Pop()
	if !ok {
		s.Clock.Delay(t.Quarters(9))
		return nil
	}
	hold := t.Quantum
	if bit {
		hold = t.Quarters(8)
	}
	s.Line.Drive()
	s.Clock.Delay(hold)
	s.Line.Release()
	s.Clock.Delay(t.Quarters(1))
	return nil
}

// Run serves bit slots until ctx is done.
func (s *Slave) Run(ctx context.Context) error {
	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
}

func (s *Slave) waitFor(ctx context.Context, level bool) error {
	for s.Line.Sample() != level {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Clock.Delay(s.Timing.PollInterval)
	}
	return nil
}

// Echo returns a handler which queues every received bit to be sent back.
func Echo() BitHandler {
	return HandleBitFunc(func(bit bool, tx *bitq.Queue) {
		tx.Push(bit)
	})
}
