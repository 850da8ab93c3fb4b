package http

import (
	"context"
	"sync/atomic"
	"time"
)

// requestDrain counts requests currently inside the handler chain so
// shutdown can hold the process open until every visitor in flight has
// received a response.
type requestDrain struct {
	active atomic.Int64
}

func (d *requestDrain) enter() { d.active.Add(1) }
func (d *requestDrain) leave() { d.active.Add(-1) }

func (d *requestDrain) count() int64 { return d.active.Load() }

// awaitIdle blocks until no requests remain in flight or ctx expires,
// re-checking every checkInterval.
func (d *requestDrain) awaitIdle(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if d.count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain is the process-wide counter fed by MetricsMiddleware.
var drain = &requestDrain{}

// InFlightCount reports how many dashboard requests are currently being
// served.
func InFlightCount() int64 { return drain.count() }

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
// checkInterval is the interval between count checks.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return drain.awaitIdle(ctx, checkInterval)
}
