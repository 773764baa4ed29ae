package hub

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/bitq"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/irq"
	"github.com/robotalks/draad/pkg/wire"
)

// NumChannels is the number of wire channels.
const NumChannels = frame.NumChannels

// Channel is the hub side of one draad.
type Channel struct {
	ID     int
	Master *wire.Master
	// Tx holds bits from the host waiting to be written to the satellite.
	Tx *bitq.Queue
	// Rx holds bits read from the satellite waiting for the host.
	Rx *bitq.Queue
}

// Stats are the hub counters.
type Stats struct {
	Serviced  [NumChannels]uint64 `json:"serviced"`
	FramesIn  uint64              `json:"frames-in"`
	FramesOut uint64              `json:"frames-out"`
}

// Hub multiplexes the wire channels onto the host link.
type Hub struct {
	Link     Link
	Channels [NumChannels]*Channel

	mask   *irq.Mask
	status uint32
	next   int

	serviced  [NumChannels]uint64
	framesIn  uint64
	framesOut uint64
}

// New creates a Hub. mask must be the one shared with the link.
func New(mask *irq.Mask, link Link, masters [NumChannels]*wire.Master) *Hub {
	h := &Hub{Link: link, mask: mask}
	for n, m := range masters {
		h.Channels[n] = &Channel{
			ID:     n,
			Master: m,
			Tx:     bitq.New(bitq.MaxCapacity, mask),
			Rx:     bitq.New(bitq.MaxCapacity, mask),
		}
	}
	link.Attach(h)
	return h
}

// Deliver implements Port.
func (h *Hub) Deliver(f frame.Frame) {
	if f.Channel < 0 || f.Channel >= NumChannels {
		h.Raise(InvalidFrame)
		return
	}
	atomic.AddUint64(&h.framesIn, 1)
	if !h.Channels[f.Channel].Tx.PushN(f.Bits, f.Length) {
		glog.Warningf("channel %d: tx overflow, drop %d bits", f.Channel, f.Length)
		h.Raise(WireTxOverflow)
	}
}

// Raise implements Port.
func (h *Hub) Raise(s Status) {
	for {
		old := atomic.LoadUint32(&h.status)
		if atomic.CompareAndSwapUint32(&h.status, old, old|uint32(s)) {
			return
		}
	}
}

// Status returns the sticky flags.
func (h *Hub) Status() Status {
	return Status(atomic.LoadUint32(&h.status))
}

// ReadStatus returns and clears the sticky flags.
func (h *Hub) ReadStatus() Status {
	s := Status(atomic.SwapUint32(&h.status, 0))
	for _, ch := range h.Channels {
		ch.Tx.ClearOverflow()
	}
	return s
}

// Stats returns the counters.
func (h *Hub) Stats() (s Stats) {
	for n := range h.serviced {
		s.Serviced[n] = atomic.LoadUint64(&h.serviced[n])
	}
	s.FramesIn = atomic.LoadUint64(&h.framesIn)
	s.FramesOut = atomic.LoadUint64(&h.framesOut)
	return
}

// Cycle runs one iteration of the polling loop on the next channel.
func (h *Hub) Cycle() {
	h.Link.Service()

	ch := h.Channels[h.next]
	h.next = (h.next + 1) % NumChannels

	if h.Link.TxIdle() && !ch.Rx.Empty() {
		bits, n := ch.Rx.PopN(frame.MaxHubPayload)
		f := frame.New(ch.ID, bits, n)
		glog.V(4).Infof("hub frame %s", f)
		h.Link.Load(f)
		atomic.AddUint64(&h.framesOut, 1)
	}

	switch {
	case !ch.Tx.Empty():
		bit, _ := ch.Tx.Pop()
		ch.Master.WriteBit(bit)
	case !ch.Rx.Full():
		if bit, ok := ch.Master.ReadBit(); ok {
			ch.Rx.Push(bit)
		}
	default:
		ch.Master.Idle()
	}
	atomic.AddUint64(&h.serviced[ch.ID], 1)
}

// Run runs the polling loop until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	glog.Infof("hub running, %s host link", h.Link.Layout())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.Cycle()
		}
	}
}

// ChannelSnapshot describes the state of one channel.
type ChannelSnapshot struct {
	ID     int              `json:"id"`
	TxBits int              `json:"tx-bits"`
	RxBits int              `json:"rx-bits"`
	Wire   wire.MasterStats `json:"wire"`
}

// Snapshot describes the state of the hub.
type Snapshot struct {
	Status   string            `json:"status"`
	Flags    Status            `json:"flags"`
	Stats    Stats             `json:"stats"`
	Channels []ChannelSnapshot `json:"channels"`
}

// Snapshot captures the current state without clearing flags.
func (h *Hub) Snapshot() Snapshot {
	s := h.Status()
	snapshot := Snapshot{Status: s.String(), Flags: s, Stats: h.Stats()}
	for _, ch := range h.Channels {
		snapshot.Channels = append(snapshot.Channels, ChannelSnapshot{
			ID:     ch.ID,
			TxBits: ch.Tx.Len(),
			RxBits: ch.Rx.Len(),
			Wire:   ch.Master.Stats(),
		})
	}
	return snapshot
}
