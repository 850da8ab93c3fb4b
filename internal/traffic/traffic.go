// Package traffic keeps sliding windows of upstream-provider outcomes. The
// health endpoint reads error rates from here to report the service as
// degraded when a provider is failing.
package traffic

import (
	"sync"
	"time"
)

var defaultTracker = NewTracker()

// RecordOutcome records one provider call outcome in the process-wide tracker.
func RecordOutcome(provider string, ok bool) {
	defaultTracker.RecordOutcome(provider, ok)
}

// ErrorRate returns (errorCount, totalCount) for provider within the window.
func ErrorRate(provider string, window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(provider, window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker maintains per-provider sliding windows of outcome timestamps.
type Tracker struct {
	mu       sync.Mutex
	outcomes map[string]*window
}

type window struct {
	successTimes []time.Time
	errorTimes   []time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{outcomes: make(map[string]*window)}
}

// RecordOutcome appends the current timestamp to the provider's success or
// error window and prunes entries older than the retention horizon.
func (t *Tracker) RecordOutcome(provider string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.outcomes[provider]
	if w == nil {
		w = &window{}
		t.outcomes[provider] = w
	}
	now := time.Now()
	if ok {
		w.successTimes = append(w.successTimes, now)
	} else {
		w.errorTimes = append(w.errorTimes, now)
	}
	w.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) for provider within the window.
func (t *Tracker) ErrorRate(provider string, dur time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.outcomes[provider]
	if w == nil {
		return 0, 0
	}
	cutoff := time.Now().Add(-dur)
	errCount := countInWindow(w.errorTimes, cutoff)
	successCount := countInWindow(w.successTimes, cutoff)
	return errCount, errCount + successCount
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = make(map[string]*window)
}

func countInWindow(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than 5 minutes. Callers hold the
// tracker mutex.
func (w *window) pruneLocked(now time.Time) {
	cutoff := now.Add(-5 * time.Minute)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&w.successTimes)
	prune(&w.errorTimes)
}
