package sim

import (
	"sync"
	"time"
)

// Line is a simulated open-drain wire with a pull-down resistor.
// The line is high while any Pin drives it and falls low Decay after the
// last Pin released it.
type Line struct {
	Decay time.Duration

	clock      *Clock
	lock       sync.Mutex
	driving    int
	releasedAt time.Duration
	edges      uint64
}

// Pin is one end of a Line. It implements wire.Line.
type Pin struct {
	line    *Line
	driving bool
}

// NewLine creates a low Line on the clock.
func NewLine(clock *Clock, decay time.Duration) *Line {
	return &Line{Decay: decay, clock: clock, releasedAt: -decay}
}

// Pin creates a new connection to the line.
func (l *Line) Pin() *Pin {
	return &Pin{line: l}
}

// Level returns the current level.
func (l *Line) Level() bool {
	now := l.clock.Now()
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.levelAt(now)
}

// Edges counts the rising edges seen so far.
func (l *Line) Edges() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.edges
}

func (l *Line) levelAt(now time.Duration) bool {
	return l.driving > 0 || now < l.releasedAt+l.Decay
}

// Drive implements wire.Line.
func (p *Pin) Drive() {
	l := p.line
	now := l.clock.Now()
	l.lock.Lock()
	if !p.driving {
		if !l.levelAt(now) {
			l.edges++
		}
		p.driving = true
		l.driving++
	}
	l.lock.Unlock()
}

// Release implements wire.Line.
func (p *Pin) Release() {
	l := p.line
	now := l.clock.Now()
	l.lock.Lock()
	if p.driving {
		p.driving = false
		if l.driving--; l.driving == 0 {
			l.releasedAt = now
		}
	}
	l.lock.Unlock()
}

// Sample implements wire.Line.
func (p *Pin) Sample() bool {
	return p.line.Level()
}
