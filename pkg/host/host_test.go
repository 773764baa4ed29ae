package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/draad/pkg/frame"
	"github.com/robotalks/draad/pkg/satellite"
)

type fakeHub struct {
	lock    sync.Mutex
	layout  frame.Layout
	decoder frame.StreamDecoder
	pending []byte
	respond func(frame.Frame) []frame.Frame
	sent    []frame.Frame
	err     error
}

func newFakeHub(respond func(frame.Frame) []frame.Frame) *fakeHub {
	return &fakeHub{
		layout:  frame.LayoutMSB,
		decoder: frame.NewStreamDecoder(frame.LayoutMSB),
		respond: respond,
	}
}

func (h *fakeHub) Transfer(tx []byte) ([]byte, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	for _, f := range h.decoder.Feed(tx) {
		h.sent = append(h.sent, f)
		if h.respond != nil {
			for _, r := range h.respond(f) {
				h.pending = frame.AppendFrame(h.pending, h.layout, r)
			}
		}
	}
	rx := make([]byte, len(tx))
	n := copy(rx, h.pending)
	h.pending = h.pending[n:]
	return rx, nil
}

func (h *fakeHub) Close() error {
	return nil
}

func (h *fakeHub) queue(frames ...frame.Frame) {
	h.lock.Lock()
	for _, f := range frames {
		h.pending = frame.AppendFrame(h.pending, h.layout, f)
	}
	h.lock.Unlock()
}

func (h *fakeHub) sentFrames() []frame.Frame {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]frame.Frame(nil), h.sent...)
}

func (h *fakeHub) fail(err error) {
	h.lock.Lock()
	h.err = err
	h.lock.Unlock()
}

func newTestClient(t Transferer) *Client {
	c := NewClient(t, frame.LayoutMSB)
	c.PollInterval = time.Millisecond
	return c
}

func runClient(c *Client) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx)
	}()
	return cancel, errCh
}

func recvFrame(t *testing.T, c *Client) frame.Frame {
	select {
	case f, ok := <-c.Frames():
		require.True(t, ok)
		return f
	case <-time.After(time.Second):
		require.FailNow(t, "frame timeout")
	}
	return frame.Frame{}
}

func TestClientSendAndReceive(t *testing.T) {
	hub := newFakeHub(nil)
	c := newTestClient(hub)
	cancel, errCh := runClient(c)
	defer func() {
		cancel()
		require.Equal(t, context.Canceled, <-errCh)
	}()

	sent := frame.New(1, 0x2d, 6)
	require.NoError(t, c.Send(context.Background(), sent))
	require.Equal(t, []frame.Frame{sent}, hub.sentFrames())

	hub.queue(frame.New(0, 0x06ed, 15), frame.New(1, 0xabcdef, 24))
	require.Equal(t, "101101110110000@0", recvFrame(t, c).String())
	require.Equal(t, frame.New(1, 0xabcdef, 24), recvFrame(t, c))
}

func TestClientDropped(t *testing.T) {
	hub := newFakeHub(nil)
	c := newTestClient(hub)
	cancel, errCh := runClient(c)
	defer func() {
		cancel()
		<-errCh
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			c.Dropped()
		}
	}()
	hub.lock.Lock()
	hub.pending = append(hub.pending, 0x80|1<<2|3, 1)
	hub.pending = frame.AppendFrame(hub.pending, hub.layout, frame.New(0, 1, 1))
	hub.lock.Unlock()
	require.Equal(t, frame.New(0, 1, 1), recvFrame(t, c))
	require.Equal(t, 1, c.Dropped())
	<-done
}

func TestClientSendInvalid(t *testing.T) {
	c := newTestClient(newFakeHub(nil))
	require.Error(t, c.Send(context.Background(), frame.New(2, 1, 1)))
}

func TestClientTransferError(t *testing.T) {
	hub := newFakeHub(nil)
	c := newTestClient(hub)
	_, errCh := runClient(c)
	hub.fail(errors.New("bus error"))
	err := <-errCh
	require.Error(t, err)
	require.Contains(t, err.Error(), "bus error")
	_, ok := <-c.Frames()
	require.False(t, ok)
	require.Equal(t, ErrClosed, c.Send(context.Background(), frame.New(0, 1, 1)))
}

func TestClientTransferSize(t *testing.T) {
	var sizes []int
	var lock sync.Mutex
	c := newTestClient(transferFunc(func(tx []byte) ([]byte, error) {
		lock.Lock()
		sizes = append(sizes, len(tx))
		lock.Unlock()
		return make([]byte, len(tx)), nil
	}))
	c.TransferSize = 2
	cancel, errCh := runClient(c)
	require.NoError(t, c.Send(context.Background(), frame.New(0, 0xffffff, 24)))
	cancel()
	<-errCh
	lock.Lock()
	defer lock.Unlock()
	require.Contains(t, sizes, 4)
	for _, size := range sizes {
		require.True(t, size == 2 || size == 4)
	}
}

type transferFunc func([]byte) ([]byte, error)

func (f transferFunc) Transfer(tx []byte) ([]byte, error) { return f(tx) }
func (f transferFunc) Close() error                       { return nil }

func TestLocalTransferer(t *testing.T) {
	lt := LocalTransferer{Exchanger: exchangeFunc(func(tx []byte) []byte {
		rx := make([]byte, len(tx))
		for i, b := range tx {
			rx[i] = ^b
		}
		return rx
	})}
	rx, err := lt.Transfer([]byte{0x0f})
	require.NoError(t, err)
	require.Equal(t, []byte{0xf0}, rx)
	require.NoError(t, lt.Close())
}

type exchangeFunc func([]byte) []byte

func (f exchangeFunc) Exchange(tx []byte) []byte { return f(tx) }

func statusResponder(statuses map[int]satellite.Status, split bool) func(frame.Frame) []frame.Frame {
	return func(f frame.Frame) []frame.Frame {
		s, ok := statuses[f.Channel]
		if !ok || f.Length != 1 {
			return nil
		}
		packed := uint32(s.Pack())
		if split {
			return []frame.Frame{
				frame.New(f.Channel, packed, 10),
				frame.New(f.Channel, packed>>10, 6),
			}
		}
		return []frame.Frame{frame.New(f.Channel, packed, satellite.StatusBits)}
	}
}

func TestReporter(t *testing.T) {
	statuses := map[int]satellite.Status{
		0: {Temperature: 512, Heating: true, OK: true},
		1: {Temperature: 300, OK: true, PeerUnresponsive: true},
	}
	for _, split := range []bool{false, true} {
		name := "whole"
		if split {
			name = "split"
		}
		t.Run(name, func(t *testing.T) {
			c := newTestClient(newFakeHub(statusResponder(statuses, split)))
			r := NewReporter(c)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go c.Run(ctx)
			go r.Run(ctx)

			seen := make(map[int]Report)
			for len(seen) < 2 {
				select {
				case report := <-r.Reports():
					seen[report.Channel] = report
				case err := <-r.Errors():
					require.FailNow(t, err.Error())
				case <-time.After(5 * time.Second):
					require.FailNow(t, "report timeout")
				}
			}
			require.Equal(t, statuses[0], seen[0].Status)
			require.InDelta(t, 81.26, seen[0].TempC, 0.01)
			require.Equal(t, statuses[1], seen[1].Status)
			require.InDelta(t, 57.56, seen[1].TempC, 0.01)
		})
	}
}

func TestReporterNoResponse(t *testing.T) {
	statuses := map[int]satellite.Status{0: {Temperature: 512}}
	c := newTestClient(newFakeHub(statusResponder(statuses, false)))
	r := NewReporter(c)
	r.Timeout = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	go r.Run(ctx)
	for {
		select {
		case <-r.Reports():
		case err := <-r.Errors():
			require.IsType(t, &NoResponseError{}, err)
			if err.(*NoResponseError).Channel == 1 {
				return
			}
		case <-time.After(5 * time.Second):
			require.FailNow(t, "error timeout")
		}
	}
}

func TestReporterDiscardsLateResponse(t *testing.T) {
	stale := satellite.Status{Temperature: 100}
	fresh := satellite.Status{Temperature: 512, OK: true}
	c := newTestClient(newFakeHub(statusResponder(map[int]satellite.Status{0: fresh}, false)))
	r := NewReporter(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	in := make(chan frame.Frame, 8)
	in <- frame.New(0, uint32(stale.Pack()), satellite.StatusBits)
	go func() {
		for f := range c.Frames() {
			select {
			case in <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	go r.poll(ctx, 0, in)

	select {
	case report := <-r.Reports():
		require.Equal(t, fresh, report.Status)
	case err := <-r.Errors():
		require.FailNow(t, err.Error())
	case <-time.After(5 * time.Second):
		require.FailNow(t, "report timeout")
	}
}

func TestReporterStopsWithClient(t *testing.T) {
	hub := newFakeHub(nil)
	c := newTestClient(hub)
	r := NewReporter(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx)
	}()
	hub.fail(errors.New("unplugged"))
	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "reporter didn't stop")
	}
}

func TestSPIMode(t *testing.T) {
	conf := DefaultSPIConfig()
	require.Equal(t, spi.Mode1, conf.SPIMode())
	conf.LSBFirst = true
	require.Equal(t, spi.Mode1|spi.LSBFirst, conf.SPIMode())
}

func TestOpenSPIMissingDevice(t *testing.T) {
	conf := DefaultSPIConfig()
	conf.Device = "/dev/spidev-missing.9"
	_, err := OpenSPI(conf)
	require.Error(t, err)
}
