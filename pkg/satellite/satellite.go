package satellite

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/bitq"
	"github.com/robotalks/draad/pkg/wire"
)

// StatusSource provides the current status of a satellite.
type StatusSource interface {
	Status() Status
}

// Fixed is a StatusSource which reports whatever was set last.
type Fixed struct {
	lock   sync.RWMutex
	status Status
}

// NewFixed creates a Fixed source.
func NewFixed(s Status) *Fixed {
	return &Fixed{status: s}
}

// Set replaces the reported status.
func (f *Fixed) Set(s Status) {
	f.lock.Lock()
	f.status = s
	f.lock.Unlock()
}

// Status implements StatusSource.
func (f *Fixed) Status() Status {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.status
}

// Satellite answers the hub on one draad. Whenever it receives a bit and
// has nothing queued, it queues its current status report.
type Satellite struct {
	Slave  *wire.Slave
	Source StatusSource
	Name   string
}

// New creates a Satellite.
func New(line wire.Line, clock wire.Clock, timing wire.Timing, src StatusSource) *Satellite {
	s := &Satellite{Source: src}
	s.Slave = wire.NewSlave(line, clock, timing, wire.HandleBitFunc(s.handleBit))
	return s
}

// WithName sets the name used in logs.
func (s *Satellite) WithName(name string) *Satellite {
	s.Name = name
	return s
}

// Run serves the draad until ctx is done.
func (s *Satellite) Run(ctx context.Context) error {
	glog.V(1).Infof("satellite %s running", s.Name)
	return s.Slave.Run(ctx)
}

func (s *Satellite) handleBit(_ bool, tx *bitq.Queue) {
	if !tx.Empty() {
		return
	}
	status := s.Source.Status()
	tx.PushN(uint32(status.Pack()), StatusBits)
	glog.V(4).Infof("satellite %s: report %s", s.Name, status)
}
