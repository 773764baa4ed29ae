package hub

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/bitq"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/irq"
)

// RxRingSize is the capacity of the byte binding's receive ring.
const RxRingSize = 8

// ByteLink is the byte binding: a serial unit shifts whole bytes and
// interrupts once per byte. Received bytes are parked in a small ring and
// parsed by the main loop, keeping interrupt handlers short.
type ByteLink struct {
	port Port
	mask *irq.Mask
	out  *bitq.Queue

	// guarded by mask
	ring [RxRingSize]byte
	head int
	size int

	asm  frame.ByteAssembler // main loop only
	xfer sync.Mutex
}

// NewByteLink creates a ByteLink sharing the critical section mask.
func NewByteLink(mask *irq.Mask) *ByteLink {
	return &ByteLink{
		mask: mask,
		out:  bitq.New(bitq.MaxCapacity, mask),
		asm:  frame.ByteAssembler{Layout: frame.LayoutMSB},
	}
}

// Attach implements Link.
func (l *ByteLink) Attach(p Port) {
	l.port = p
}

// Layout implements Link.
func (l *ByteLink) Layout() frame.Layout {
	return frame.LayoutMSB
}

// TxIdle implements Link.
func (l *ByteLink) TxIdle() bool {
	return l.out.Empty()
}

// Load implements Link.
func (l *ByteLink) Load(f frame.Frame) {
	var buf [1 + frame.MaxHubPayload/8]byte
	var bits uint32
	encoded := frame.AppendFrame(buf[:0], frame.LayoutMSB, f)
	for i, b := range encoded {
		bits |= uint32(b) << uint(8*i)
	}
	l.out.PushN(bits, 8*len(encoded))
}

// StartByte is the start-of-transfer interrupt: it returns the byte to
// shift out next, 0 when nothing is pending.
func (l *ByteLink) StartByte() byte {
	bits, _ := l.out.PopN(8)
	return byte(bits)
}

// ByteReceived is the transfer-complete interrupt.
// A full ring drops the byte and raises HostRxOverflow.
func (l *ByteLink) ByteReceived(b byte) {
	var overflow bool
	l.mask.Do(func() {
		if l.size >= RxRingSize {
			overflow = true
			return
		}
		l.ring[(l.head+l.size)%RxRingSize] = b
		l.size++
	})
	if overflow {
		l.port.Raise(HostRxOverflow)
	}
}

// Service implements Link: it parses every byte parked in the ring.
func (l *ByteLink) Service() {
	for {
		b, ok := l.next()
		if !ok {
			return
		}
		switch f, r := l.asm.PushByte(b); r {
		case frame.ResultFrame:
			glog.V(4).Infof("host frame %s", f)
			l.port.Deliver(f)
		case frame.ResultInvalid:
			glog.Warningf("discard host frame for channel %d", f.Channel)
			l.port.Raise(InvalidFrame)
		}
	}
}

func (l *ByteLink) next() (b byte, ok bool) {
	l.mask.Do(func() {
		if l.size == 0 {
			return
		}
		b, ok = l.ring[l.head], true
		l.head = (l.head + 1) % RxRingSize
		l.size--
	})
	return
}

// Pending returns the number of bytes waiting in the ring.
func (l *ByteLink) Pending() int {
	l.mask.Lock()
	defer l.mask.Unlock()
	return l.size
}

// Exchange implements Link.
func (l *ByteLink) Exchange(tx []byte) []byte {
	l.xfer.Lock()
	defer l.xfer.Unlock()
	rx := make([]byte, len(tx))
	for i, b := range tx {
		rx[i] = l.StartByte()
		l.ByteReceived(b)
	}
	return rx
}
