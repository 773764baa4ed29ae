// Package frame provides the host link framing used between the hub and
// the host.
//
// A frame is an 8-bit header followed by Length body bits:
//
//	header: start marker, 5-bit Length (0..31), 2-bit Channel
//	body:   Length bits, first bit received on the wire first (LSB first)
//
// Two header layouts exist. The bit-serial hub clocks the host link one
// bit per edge, LSB first, so the start marker is header bit 0 and an
// idle link (all zeros) can never be mistaken for a frame. The byte hub
// exchanges whole bytes and puts the start marker in bit 7.
//
// Bodies are always packed LSB first: body bit i is bit i%8 of body byte
// i/8.
package frame
