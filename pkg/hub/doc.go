// Package hub implements the hub multiplexer which bridges two draad wire
// channels to a host link.
//
// The hub runs a single polling loop. Every cycle it serves one channel,
// alternating between them: it moves bits read from the satellite to the
// host link when the outbound slot is free, then writes one queued bit to
// the satellite or, with nothing to write, reads one bit from it.
//
// The host link side runs in "interrupt context": the Link entry points
// are called whenever the host clocks the link, concurrently with the
// polling loop. State shared between both sides is only touched inside
// the irq.Mask critical section.
package hub
