package host

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/frame"
)

// Client defaults.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTransferSize = 5
)

// Client polls a hub. Frames from the hub are delivered on Frames; frames
// to the hub are sent with Send, one per transfer.
type Client struct {
	// accessed atomically, first for 64-bit alignment on arm.
	dropped int64

	Transferer   Transferer
	Layout       frame.Layout
	PollInterval time.Duration
	TransferSize int

	decoder frame.StreamDecoder
	sendCh  chan sendRequest
	frames  chan frame.Frame
	doneCh  chan struct{}
}

type sendRequest struct {
	frame frame.Frame
	errCh chan error
}

// NewClient creates a Client.
func NewClient(t Transferer, layout frame.Layout) *Client {
	return &Client{
		Transferer:   t,
		Layout:       layout,
		PollInterval: DefaultPollInterval,
		TransferSize: DefaultTransferSize,
		decoder:      frame.NewStreamDecoder(layout),
		sendCh:       make(chan sendRequest),
		frames:       make(chan frame.Frame, 16),
		doneCh:       make(chan struct{}),
	}
}

// Frames returns the channel of received frames.
// It's closed when Run returns.
func (c *Client) Frames() <-chan frame.Frame {
	return c.frames
}

// Dropped returns the number of invalid frames received.
func (c *Client) Dropped() int {
	return int(atomic.LoadInt64(&c.dropped))
}

// Send transmits a frame with the next transfer.
func (c *Client) Send(ctx context.Context, f frame.Frame) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("send %s: %v", f, err)
	}
	req := sendRequest{frame: f, errCh: make(chan error, 1)}
	select {
	case c.sendCh <- req:
	case <-c.doneCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run polls the hub until ctx is done or a transfer fails.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.frames)
	defer close(c.doneCh)
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.sendCh:
			glog.V(2).Infof("SND %s", req.frame)
			err := c.transfer(ctx, frame.AppendFrame(nil, c.Layout, req.frame))
			req.errCh <- err
			if err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.transfer(ctx, nil); err != nil {
				return err
			}
		}
	}
}

func (c *Client) transfer(ctx context.Context, payload []byte) error {
	size := c.TransferSize
	if len(payload) > size {
		size = len(payload)
	}
	tx := make([]byte, size)
	copy(tx, payload)
	rx, err := c.Transferer.Transfer(tx)
	if err != nil {
		glog.Errorf("transfer error: %v", err)
		return fmt.Errorf("transfer: %v", err)
	}
	frames := c.decoder.Feed(rx)
	atomic.StoreInt64(&c.dropped, int64(c.decoder.Dropped()))
	for _, f := range frames {
		glog.V(2).Infof("RCV %s", f)
		select {
		case c.frames <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
