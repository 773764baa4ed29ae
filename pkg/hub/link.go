package hub

import "github.com/robotalks/draad/pkg/frame"

// Port is the hub side of a Link.
type Port interface {
	// Deliver queues the body of a frame received from the host to the
	// frame's channel.
	Deliver(f frame.Frame)
	// Raise sets sticky status flags.
	Raise(s Status)
}

// Link is the physical binding of the host link.
type Link interface {
	// Attach connects the link to the hub.
	Attach(p Port)
	// Layout is the header layout used by the link.
	Layout() frame.Layout
	// Service runs link work which belongs to the polling loop.
	Service()
	// TxIdle indicates the outbound slot is empty.
	TxIdle() bool
	// Load puts a frame in the outbound slot. Only called when TxIdle.
	Load(f frame.Frame)
	// Exchange clocks a full transfer through the interrupt entry points as
	// a host would, and returns the bytes shifted out by the hub.
	Exchange(tx []byte) []byte
}
