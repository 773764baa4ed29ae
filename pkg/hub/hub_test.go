package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/draad/pkg/bitq"
	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/irq"
	"github.com/robotalks/draad/pkg/wire"
	"github.com/robotalks/draad/pkg/wire/sim"
)

type testHub struct {
	t       *testing.T
	clock   *sim.Clock
	proc    *sim.Proc
	lines   [NumChannels]*sim.Line
	hub     *Hub
	decoder frame.StreamDecoder

	ctx    context.Context
	cancel func()
	done   []chan struct{}
}

func newTestHub(t *testing.T, binding string) *testHub {
	h := &testHub{t: t, clock: sim.NewClock()}
	h.proc = h.clock.Join()
	timing := wire.DefaultTiming()
	var masters [NumChannels]*wire.Master
	for n := range masters {
		h.lines[n] = sim.NewLine(h.clock, timing.Pulldown)
		masters[n] = wire.NewMaster(h.lines[n].Pin(), h.proc, timing)
	}
	var mask irq.Mask
	link, err := NewLink(binding, &mask)
	require.NoError(t, err)
	h.hub = New(&mask, link, masters)
	h.decoder = frame.NewStreamDecoder(link.Layout())
	h.ctx, h.cancel = context.WithCancel(context.Background())
	return h
}

func (h *testHub) withSlave(ch int, handler wire.BitHandler) *wire.Slave {
	proc := h.clock.Join()
	slave := wire.NewSlave(h.lines[ch].Pin(), proc, h.hub.Channels[ch].Master.Timing, handler)
	done := make(chan struct{})
	h.done = append(h.done, done)
	go func() {
		defer close(done)
		defer proc.Leave()
		slave.Run(h.ctx)
	}()
	return slave
}

func (h *testHub) close() {
	h.cancel()
	h.proc.Leave()
	for _, done := range h.done {
		<-done
	}
	h.clock.Close()
}

func (h *testHub) cycles(n int) {
	for i := 0; i < n; i++ {
		h.hub.Cycle()
	}
}

func (h *testHub) send(frames ...frame.Frame) {
	var tx []byte
	for _, f := range frames {
		tx = frame.AppendFrame(tx, h.hub.Link.Layout(), f)
	}
	h.hub.Link.Exchange(tx)
}

func (h *testHub) poll(size int) []frame.Frame {
	return h.decoder.Feed(h.hub.Link.Exchange(make([]byte, size)))
}

var bindings = []string{BindingBit, BindingByte}

func TestFairness(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			h.cycles(2000)
			stats := h.hub.Stats()
			require.EqualValues(t, 1000, stats.Serviced[0])
			require.EqualValues(t, 1000, stats.Serviced[1])
			for _, ch := range h.hub.Channels {
				require.EqualValues(t, 1000, ch.Master.Stats().NoReply)
				require.Zero(t, ch.Rx.Len())
				require.Zero(t, ch.Tx.Len())
			}
			require.True(t, h.hub.Link.TxIdle())
			require.Empty(t, h.poll(5))
			require.Equal(t, Status(0), h.hub.Status())
		})
	}
}

func TestDrainToHost(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			require.True(t, h.hub.Channels[0].Rx.PushN(0x0523, 16))
			h.cycles(1)
			require.False(t, h.hub.Link.TxIdle())
			require.True(t, h.hub.Channels[0].Rx.Empty())
			require.Equal(t, []frame.Frame{frame.New(0, 0x0523, 16)}, h.poll(5))
			require.True(t, h.hub.Link.TxIdle())
			require.EqualValues(t, 1, h.hub.Stats().FramesOut)
		})
	}
}

func TestDrainLimit(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			rx := h.hub.Channels[1].Rx
			require.True(t, rx.PushN(0xdeadbeef, 32))
			h.cycles(2)
			require.Equal(t, 8, rx.Len())
			require.False(t, rx.Full())
			h.cycles(2)
			require.Equal(t, 8, rx.Len())
			frames := h.poll(5)
			h.cycles(2)
			frames = append(frames, h.poll(5)...)
			require.Equal(t, []frame.Frame{
				frame.New(1, 0xadbeef, 24),
				frame.New(1, 0xde, 8),
			}, frames)
		})
	}
}

func TestHostFrameToWire(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			var received []bool
			h.withSlave(1, wire.HandleBitFunc(func(bit bool, _ *bitq.Queue) {
				received = append(received, bit)
			}))
			h.send(frame.New(1, 0x5, 3))
			h.cycles(1)
			require.Equal(t, 3, h.hub.Channels[1].Tx.Len())
			h.cycles(6)
			require.True(t, h.hub.Channels[1].Tx.Empty())
			require.Equal(t, []bool{true, false, true}, received)
			require.EqualValues(t, 3, h.hub.Channels[1].Master.Stats().Written)
			require.EqualValues(t, 1, h.hub.Stats().FramesIn)
		})
	}
}

func TestWireTxOverflow(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			h.send(frame.New(0, 0xffffff, 24))
			h.hub.Link.Service()
			h.send(frame.New(0, 0x1ff, 9))
			h.hub.Link.Service()
			require.True(t, h.hub.Status().Has(WireTxOverflow))
			bits, n := h.hub.Channels[0].Tx.Snapshot()
			require.Equal(t, 24, n)
			require.Equal(t, uint32(0xffffff), bits)

			h.send(frame.New(0, 0, 8))
			h.hub.Link.Service()
			require.Equal(t, 32, h.hub.Channels[0].Tx.Len())

			require.Equal(t, WireTxOverflow, h.hub.ReadStatus())
			require.Equal(t, Status(0), h.hub.Status())
			require.False(t, h.hub.Channels[0].Tx.Overflowed())
		})
	}
}

func TestInvalidChannel(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			h.send(frame.New(2, 0x3, 2), frame.New(0, 0x1, 1))
			h.hub.Link.Service()
			require.True(t, h.hub.Status().Has(InvalidFrame))
			require.True(t, h.hub.Channels[1].Tx.Empty())
			require.Equal(t, 1, h.hub.Channels[0].Tx.Len())
		})
	}
}

func TestHostRxOverflow(t *testing.T) {
	h := newTestHub(t, BindingByte)
	defer h.close()
	link := h.hub.Link.(*ByteLink)
	for i := 0; i < RxRingSize; i++ {
		link.ByteReceived(0)
	}
	require.Equal(t, Status(0), h.hub.Status())
	link.ByteReceived(0x80 | 1<<2)
	require.Equal(t, HostRxOverflow, h.hub.Status())
	require.Equal(t, RxRingSize, link.Pending())
	link.Service()
	require.Zero(t, link.Pending())
	require.True(t, h.hub.Channels[0].Tx.Empty())
}

func TestWritePreferredOverRead(t *testing.T) {
	h := newTestHub(t, BindingBit)
	defer h.close()
	slave := h.withSlave(0, nil)
	require.True(t, slave.Tx.PushN(0x3, 2))
	require.True(t, h.hub.Channels[0].Tx.PushN(0x1, 2))
	h.cycles(4)
	stats := h.hub.Channels[0].Master.Stats()
	require.EqualValues(t, 2, stats.Written)
	require.Zero(t, stats.Read)
	h.cycles(4)
	stats = h.hub.Channels[0].Master.Stats()
	require.EqualValues(t, 2, stats.Read)
	require.Equal(t, 1, h.hub.Channels[0].Rx.Len())
	require.EqualValues(t, 1, h.hub.Stats().FramesOut)
}

func TestRxFullSkipsRead(t *testing.T) {
	h := newTestHub(t, BindingBit)
	defer h.close()
	ch := h.hub.Channels[0]
	require.True(t, ch.Rx.PushN(0, 32))
	h.hub.Link.Load(frame.New(1, 0, 1))
	before := h.proc.Now()
	h.cycles(1)
	require.True(t, ch.Rx.Full())
	require.Equal(t, wire.MasterStats{}, ch.Master.Stats())
	require.Equal(t, ch.Master.Timing.PollInterval, h.proc.Now()-before)
}

func TestEchoRoundTrip(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			h.withSlave(0, wire.Echo())
			h.withSlave(1, wire.Echo())
			sent := []frame.Frame{frame.New(0, 0x0523, 16), frame.New(1, 0x2d, 6)}
			h.send(sent...)
			got := [NumChannels]frame.Frame{{Channel: 0}, {Channel: 1}}
			for i := 0; i < 100 && (got[0].Length < 16 || got[1].Length < 6); i++ {
				h.cycles(8)
				for _, f := range h.poll(5) {
					joined, err := frame.Join(got[f.Channel], f)
					require.NoError(t, err)
					got[f.Channel] = joined
				}
			}
			require.Equal(t, sent[0], got[0])
			require.Equal(t, sent[1], got[1])
			require.Equal(t, Status(0), h.hub.Status())
		})
	}
}

func TestStatusScenario(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			slave := h.withSlave(0, wire.HandleBitFunc(func(bool, *bitq.Queue) {}))
			require.True(t, slave.Tx.PushN(0x0523, 16))
			// keep the outbound slot busy so nothing is drained early
			h.hub.Link.Load(frame.New(1, 1, 1))
			h.cycles(32)
			bits, n := h.hub.Channels[0].Rx.Snapshot()
			require.Equal(t, 16, n)
			require.Equal(t, uint32(0x0523), bits)
			require.Equal(t, []frame.Frame{frame.New(1, 1, 1)}, h.poll(5))
			h.cycles(1)
			require.Equal(t, []frame.Frame{frame.New(0, 0x0523, 16)}, h.poll(5))
			require.Equal(t, Status(0), h.hub.Status())
		})
	}
}

func TestFullCapacityRoundTrip(t *testing.T) {
	for _, binding := range bindings {
		t.Run(binding, func(t *testing.T) {
			h := newTestHub(t, binding)
			defer h.close()
			slave := h.withSlave(1, wire.HandleBitFunc(func(bool, *bitq.Queue) {}))
			require.True(t, slave.Tx.PushN(0xdeadbeef, bitq.MaxCapacity))
			h.hub.Link.Load(frame.New(0, 1, 1))
			h.cycles(80)
			rx := h.hub.Channels[1].Rx
			require.True(t, rx.Full())
			bits, n := rx.Snapshot()
			require.Equal(t, 32, n)
			require.Equal(t, uint32(0xdeadbeef), bits)
			require.Equal(t, []frame.Frame{frame.New(0, 1, 1)}, h.poll(5))

			var frames []frame.Frame
			for i := 0; i < 10 && rx.Len() > 0; i++ {
				h.cycles(2)
				frames = append(frames, h.poll(5)...)
			}
			require.Equal(t, []frame.Frame{
				frame.New(1, 0xadbeef, 24),
				frame.New(1, 0xde, 8),
			}, frames)
			var got uint64
			var length int
			for _, f := range frames {
				got |= uint64(f.Bits) << uint(length)
				length += f.Length
			}
			require.Equal(t, 32, length)
			require.Equal(t, uint64(0xdeadbeef), got)
			require.True(t, slave.Tx.Empty())
			require.Equal(t, Status(0), h.hub.Status())
		})
	}
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "ok", Status(0).String())
	require.Equal(t, "wire-tx-overflow,invalid-frame", (WireTxOverflow | InvalidFrame).String())
	require.Equal(t, byte(5), (WireTxOverflow | InvalidFrame).Byte())
	require.Equal(t, byte(2), (HostRxOverflow | 0x80).Byte())
}

func TestNewLinkUnknown(t *testing.T) {
	_, err := NewLink("parallel", &irq.Mask{})
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	h := newTestHub(t, BindingByte)
	defer h.close()
	h.hub.Channels[1].Rx.PushN(0x3, 2)
	h.hub.Raise(InvalidFrame)
	s := h.hub.Snapshot()
	require.Equal(t, "invalid-frame", s.Status)
	require.Len(t, s.Channels, NumChannels)
	require.Equal(t, 2, s.Channels[1].RxBits)
}
