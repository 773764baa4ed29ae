// Package sim simulates draad wires in virtual time.
//
// Every goroutine taking part in the simulation joins the Clock and gets a
// Proc. Exactly one Proc runs at a time; virtual time only advances when
// all joined Procs are blocked in Delay, and then jumps to the earliest
// wake-up. Runs are therefore deterministic and take no real time unless a
// Scale is set.
package sim

import (
	"container/heap"
	"sync"
	"time"
)

// Clock is a virtual clock shared by a set of Procs.
type Clock struct {
	lock     sync.Mutex
	now      time.Duration
	running  int
	seq      uint64
	sleepers sleeperHeap
	closed   bool

	scale     float64
	wallStart time.Time
}

// Proc is a participant of the simulation. It implements wire.Clock.
type Proc struct {
	clock *Clock
	left  bool
}

type sleeper struct {
	at  time.Duration
	seq uint64
	ch  chan struct{}
}

type sleeperHeap []*sleeper

func (h sleeperHeap) Len() int { return len(h) }
func (h sleeperHeap) Less(i, j int) bool {
	if h[i].at == h[j].at {
		return h[i].seq < h[j].seq
	}
	return h[i].at < h[j].at
}
func (h sleeperHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sleeperHeap) Push(x interface{}) { *h = append(*h, x.(*sleeper)) }
func (h *sleeperHeap) Pop() interface{} {
	old := *h
	s := old[len(old)-1]
	*h = old[:len(old)-1]
	return s
}

// NewClock creates a Clock at virtual time 0.
func NewClock() *Clock {
	return &Clock{}
}

// WithScale paces the simulation against the wall clock: one virtual
// second takes scale real seconds. Zero runs as fast as possible.
func (c *Clock) WithScale(scale float64) *Clock {
	c.lock.Lock()
	c.scale, c.wallStart = scale, time.Now().Add(-time.Duration(float64(c.now)*scale))
	c.lock.Unlock()
	return c
}

// Join registers a running Proc. The calling goroutine is considered
// running until it calls Delay.
func (c *Clock) Join() *Proc {
	c.lock.Lock()
	c.running++
	c.lock.Unlock()
	return &Proc{clock: c}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Close wakes up every Proc. Delay returns immediately afterwards.
func (c *Clock) Close() {
	c.lock.Lock()
	c.closed = true
	for _, s := range c.sleepers {
		close(s.ch)
	}
	c.sleepers = nil
	c.lock.Unlock()
}

// Delay blocks the Proc for d of virtual time.
func (p *Proc) Delay(d time.Duration) {
	c := p.clock
	c.lock.Lock()
	if c.closed || p.left {
		c.lock.Unlock()
		return
	}
	if d < 0 {
		d = 0
	}
	s := &sleeper{at: c.now + d, seq: c.seq, ch: make(chan struct{})}
	c.seq++
	heap.Push(&c.sleepers, s)
	c.running--
	c.advance()
	c.lock.Unlock()
	<-s.ch
	c.pace(s.at)
}

// Leave removes the Proc from the simulation.
func (p *Proc) Leave() {
	c := p.clock
	c.lock.Lock()
	if !p.left {
		p.left = true
		c.running--
		c.advance()
	}
	c.lock.Unlock()
}

// Now returns the current virtual time.
func (p *Proc) Now() time.Duration {
	return p.clock.Now()
}

func (c *Clock) advance() {
	if c.running > 0 || len(c.sleepers) == 0 {
		return
	}
	s := heap.Pop(&c.sleepers).(*sleeper)
	c.now = s.at
	c.running++
	close(s.ch)
}

func (c *Clock) pace(at time.Duration) {
	c.lock.Lock()
	scale, start := c.scale, c.wallStart
	c.lock.Unlock()
	if scale <= 0 {
		return
	}
	if d := time.Until(start.Add(time.Duration(float64(at) * scale))); d > 0 {
		time.Sleep(d)
	}
}
