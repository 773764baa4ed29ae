// Package irq models the interrupt-disable critical section of a
// microcontroller firmware.
//
// Interrupt entry points (e.g. a host link clock edge) and the polling
// loop share a few small buffers. Every multi-step update of such a buffer
// runs with the Mask held, the same way firmware wraps the update in an
// atomic block. The Mask must never be held across a wire delay.
package irq

import "sync"

// Mask is the critical section shared by interrupt context and main loop.
// It implements sync.Locker so it can be handed to buffers.
type Mask struct {
	mu sync.Mutex
}

// Lock disables "interrupts".
func (m *Mask) Lock() {
	m.mu.Lock()
}

// Unlock re-enables "interrupts".
func (m *Mask) Unlock() {
	m.mu.Unlock()
}

// Do runs fn inside the critical section.
func (m *Mask) Do(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}
