package hub

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/bitq"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/irq"
)

// BitLink is the bit-serial binding: every clock edge of the host link is
// an interrupt. On a rising edge the hub presents the next outbound bit,
// on a falling edge it samples the inbound bit. Frames are assembled in
// interrupt context.
type BitLink struct {
	port Port
	out  *bitq.Queue
	asm  frame.BitAssembler // interrupt context only
	xfer sync.Mutex
}

// NewBitLink creates a BitLink sharing the critical section mask.
func NewBitLink(mask *irq.Mask) *BitLink {
	return &BitLink{out: bitq.New(bitq.MaxCapacity, mask)}
}

// Attach implements Link.
func (l *BitLink) Attach(p Port) {
	l.port = p
}

// Layout implements Link.
func (l *BitLink) Layout() frame.Layout {
	return frame.LayoutLSB
}

// Service implements Link. Nothing is deferred to the main loop.
func (l *BitLink) Service() {}

// TxIdle implements Link.
func (l *BitLink) TxIdle() bool {
	return l.out.Empty()
}

// Load implements Link.
func (l *BitLink) Load(f frame.Frame) {
	bits, n := frame.EncodeBits(f)
	l.out.PushN(bits, n)
}

// ShiftOut is the rising clock edge: it returns the next outbound bit,
// 0 when nothing is pending.
func (l *BitLink) ShiftOut() bool {
	bit, _ := l.out.Pop()
	return bit
}

// ShiftIn is the falling clock edge: it consumes one inbound bit.
func (l *BitLink) ShiftIn(bit bool) {
	switch f, r := l.asm.PushBit(bit); r {
	case frame.ResultFrame:
		glog.V(4).Infof("host frame %s", f)
		l.port.Deliver(f)
	case frame.ResultInvalid:
		glog.Warningf("discard host frame for channel %d", f.Channel)
		l.port.Raise(InvalidFrame)
	}
}

// Exchange implements Link. Bytes are clocked LSB first.
func (l *BitLink) Exchange(tx []byte) []byte {
	l.xfer.Lock()
	defer l.xfer.Unlock()
	rx := make([]byte, len(tx))
	for i, b := range tx {
		for n := uint(0); n < 8; n++ {
			if l.ShiftOut() {
				rx[i] |= 1 << n
			}
			l.ShiftIn(b>>n&1 != 0)
		}
	}
	return rx
}
