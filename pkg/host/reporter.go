package host

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/draad/pkg/frame"
	fx "github.com/robotalks/draad/pkg/framework"
	"github.com/robotalks/draad/pkg/satellite"
)

// DefaultResponseTimeout is how long a satellite may take to answer a poke.
const DefaultResponseTimeout = 5 * time.Second

// Reporter pokes every satellite through a Client and collects their
// status reports. A poke is a 1-bit frame; the satellite answers with its
// status, which may arrive split over several frames.
type Reporter struct {
	Client  *Client
	Model   TempModel
	Timeout time.Duration

	reports chan Report
	errors  chan error
}

// NewReporter creates a Reporter.
func NewReporter(c *Client) *Reporter {
	return &Reporter{
		Client:  c,
		Model:   DefaultTempModel(),
		Timeout: DefaultResponseTimeout,
		reports: make(chan Report),
		errors:  make(chan error, 4),
	}
}

// Reports returns the channel of decoded reports.
func (r *Reporter) Reports() <-chan Report {
	return r.reports
}

// Errors returns the channel of per-satellite errors, e.g. NoResponseError.
func (r *Reporter) Errors() <-chan error {
	return r.errors
}

// Run polls all satellites until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(ctx)
	var chans [frame.NumChannels]chan frame.Frame
	for n := range chans {
		ch, in := n, make(chan frame.Frame, 8)
		chans[n] = in
		runner.Go(fx.NamedRun(fmt.Sprintf("channel-%d", ch), fx.RunnableFunc(func(ctx context.Context) error {
			return r.poll(ctx, ch, in)
		})))
	}
	runner.Go(fx.NamedRun("sorter", fx.RunnableFunc(func(ctx context.Context) error {
		defer cancel()
		for {
			select {
			case f, ok := <-r.Client.Frames():
				if !ok {
					return ErrClosed
				}
				if f.Channel < 0 || f.Channel >= len(chans) {
					glog.Warningf("frame %s on unknown channel", f)
					continue
				}
				select {
				case chans[f.Channel] <- f:
				case <-ctx.Done():
					return ctx.Err()
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})))
	return runner.Wait()
}

func (r *Reporter) poll(ctx context.Context, ch int, in <-chan frame.Frame) error {
	for {
		drain(ch, in)
		if err := r.Client.Send(ctx, frame.New(ch, 1, 1)); err != nil {
			return err
		}
		resp, err := r.collect(ctx, ch, in)
		if err == nil {
			var report Report
			if report, err = DecodeReport(resp, r.Model, time.Now()); err == nil {
				glog.V(1).Infof("report %s", report)
				select {
				case r.reports <- report:
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err == ctx.Err() {
			return err
		}
		glog.Warningf("channel %d: %v", ch, err)
		select {
		case r.errors <- err:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reporter) collect(ctx context.Context, ch int, in <-chan frame.Frame) (frame.Frame, error) {
	resp := frame.Frame{Channel: ch}
	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()
	for resp.Length < satellite.StatusBits {
		select {
		case f := <-in:
			joined, err := frame.Join(resp, f)
			if err != nil {
				return resp, &SizeError{Channel: ch, Length: resp.Length + f.Length}
			}
			resp = joined
		case <-timer.C:
			return resp, &NoResponseError{Channel: ch}
		case <-ctx.Done():
			return resp, ctx.Err()
		}
	}
	return resp, nil
}

// drain discards frames left over from an unanswered poke so a late
// response isn't joined with the next one.
func drain(ch int, in <-chan frame.Frame) {
	for {
		select {
		case f := <-in:
			glog.V(1).Infof("channel %d: discard late frame %s", ch, f)
		default:
			return
		}
	}
}
