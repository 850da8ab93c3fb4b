// Package lifecycle holds the process drain flag shared by the signal
// handler and the health endpoint.
package lifecycle

import "sync/atomic"

var draining atomic.Bool

// SetShuttingDown flips the drain flag. The signal handler sets it on
// SIGTERM/SIGINT so the health endpoint reports shutting-down with a 503
// and load balancers stop routing new dashboard traffic here.
func SetShuttingDown(v bool) {
	draining.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return draining.Load()
}
