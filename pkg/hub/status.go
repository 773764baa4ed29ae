package hub

import "strings"

// Status holds the sticky error flags of a hub.
type Status uint8

// Status flags.
const (
	// WireTxOverflow is raised when a host frame doesn't fit in the
	// channel's transmit queue.
	WireTxOverflow Status = 1 << iota
	// HostRxOverflow is raised when the host sent bytes faster than the
	// hub could parse them.
	HostRxOverflow
	// InvalidFrame is raised for a host frame addressing an unknown channel.
	InvalidFrame
)

// Has checks if all flags in f are set.
func (s Status) Has(f Status) bool {
	return s&f == f
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if s == 0 {
		return "ok"
	}
	var names []string
	if s.Has(WireTxOverflow) {
		names = append(names, "wire-tx-overflow")
	}
	if s.Has(HostRxOverflow) {
		names = append(names, "host-rx-overflow")
	}
	if s.Has(InvalidFrame) {
		names = append(names, "invalid-frame")
	}
	return strings.Join(names, ",")
}

// Byte packs the flags for the host: bit0 WireTxOverflow, bit1
// HostRxOverflow, bit2 InvalidFrame.
func (s Status) Byte() byte {
	return byte(s & (WireTxOverflow | HostRxOverflow | InvalidFrame))
}
