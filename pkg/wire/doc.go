// Package wire implements the draad single-wire bit link.
//
// A draad is one open-drain line between the hub (master) and a satellite
// (slave). The line idles low through a pull-down resistor; either side
// asserts it by driving it high. Every transfer is one bit slot of four
// quanta initiated by the master:
//
//	master write: drive 3q (1) or 2q (0), release for the rest of the slot.
//	master read:  drive 1q, release; the slave answers by driving the line
//	              for 2q (1) or 1q (0), or stays silent if it has nothing
//	              to send.
//
// The slave tells the two apart by sampling 1.25q after the rising edge:
// a line still asserted is a master write, a released line is a read
// request.
package wire
