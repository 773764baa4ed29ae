// Package satellite implements the satellite side of a draad: the status
// report it sends to the hub and the slave loop answering the hub.
package satellite

import (
	"fmt"
	"strings"
)

// Status report layout, LSB first on the wire.
const (
	// StatusBits is the size of a packed Status.
	StatusBits = 16
	// TemperatureBits is the width of the raw temperature reading.
	TemperatureBits = 10
	// TemperatureMax is the largest raw temperature reading.
	TemperatureMax = 1<<TemperatureBits - 1
)

const (
	bitHeating = TemperatureBits + iota
	bitOK
	bitTooCold
	bitTooHot
	bitPeerUnresponsive
)

// Status is the report a satellite sends after the hub pokes it.
// The control logic producing it lives outside this package.
type Status struct {
	// Temperature is the averaged raw ADC reading (0..TemperatureMax).
	Temperature      uint16 `json:"temperature"`
	Heating          bool   `json:"heating"`
	OK               bool   `json:"ok"`
	TooCold          bool   `json:"too-cold"`
	TooHot           bool   `json:"too-hot"`
	PeerUnresponsive bool   `json:"peer-unresponsive"`
}

// Pack encodes the status.
func (s Status) Pack() uint16 {
	v := s.Temperature & TemperatureMax
	v |= flagBit(s.Heating, bitHeating)
	v |= flagBit(s.OK, bitOK)
	v |= flagBit(s.TooCold, bitTooCold)
	v |= flagBit(s.TooHot, bitTooHot)
	v |= flagBit(s.PeerUnresponsive, bitPeerUnresponsive)
	return v
}

func flagBit(set bool, bit uint) uint16 {
	if set {
		return 1 << bit
	}
	return 0
}

// Unpack decodes a packed status.
func Unpack(v uint16) Status {
	return Status{
		Temperature:      v & TemperatureMax,
		Heating:          v&(1<<bitHeating) != 0,
		OK:               v&(1<<bitOK) != 0,
		TooCold:          v&(1<<bitTooCold) != 0,
		TooHot:           v&(1<<bitTooHot) != 0,
		PeerUnresponsive: v&(1<<bitPeerUnresponsive) != 0,
	}
}

// Flags lists the names of the flags which are set.
func (s Status) Flags() []string {
	var flags []string
	if s.Heating {
		flags = append(flags, "Heating")
	}
	if s.OK {
		flags = append(flags, "OK")
	}
	if s.TooCold {
		flags = append(flags, "TooCold")
	}
	if s.TooHot {
		flags = append(flags, "TooHot")
	}
	if s.PeerUnresponsive {
		flags = append(flags, "PeerUnresponsive")
	}
	return flags
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return strings.TrimSpace(fmt.Sprintf("%d %s", s.Temperature, strings.Join(s.Flags(), " ")))
}
