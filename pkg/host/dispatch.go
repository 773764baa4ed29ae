package host

import (
	"context"

	"github.com/golang/glog"
)

// ReportHandler consumes reports.
type ReportHandler interface {
	HandleReport(context.Context, Report) error
}

// HandleReportFunc is the func form of ReportHandler.
type HandleReportFunc func(context.Context, Report) error

// HandleReport implements ReportHandler.
func (f HandleReportFunc) HandleReport(ctx context.Context, r Report) error {
	return f(ctx, r)
}

// Dispatcher feeds every report of a Reporter to the handlers. Handler
// failures are logged and don't stop the dispatcher.
type Dispatcher struct {
	Reporter *Reporter
	Handlers []ReportHandler
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(r *Reporter, handlers ...ReportHandler) *Dispatcher {
	return &Dispatcher{Reporter: r, Handlers: handlers}
}

// Run implements Runnable.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-d.Reporter.Errors():
			glog.Warningf("reporter: %v", err)
		case r := <-d.Reporter.Reports():
			for _, h := range d.Handlers {
				if err := h.HandleReport(ctx, r); err != nil {
					glog.Errorf("report handler error: %v", err)
				}
			}
		}
	}
}
