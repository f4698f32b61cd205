package refresh

import (
	"sync"
	"time"
)

// OutcomeTracker maintains a sliding window of per-city refresh outcomes.
// The health endpoint reads it to report the dashboard as degraded when the
// upstreams have been failing for most recent refreshes.
type OutcomeTracker struct {
	mu           sync.Mutex
	successTimes []time.Time
	errorTimes   []time.Time
	maxAge       time.Duration
}

// NewOutcomeTracker creates a tracker that retains outcomes for maxAge.
func NewOutcomeTracker(maxAge time.Duration) *OutcomeTracker {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &OutcomeTracker{maxAge: maxAge}
}

// RecordSuccess records a successful city refresh.
func (t *OutcomeTracker) RecordSuccess() {
	t.record(&t.successTimes)
}

// RecordError records a failed city refresh (upstream error or timeout).
func (t *OutcomeTracker) RecordError() {
	t.record(&t.errorTimes)
}

func (t *OutcomeTracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) within the window.
func (t *OutcomeTracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	errCount := countInWindow(t.errorTimes, cutoff)
	successCount := countInWindow(t.successTimes, cutoff)
	return errCount, errCount + successCount
}

// Reset clears all recorded outcomes. For tests only.
func (t *OutcomeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successTimes = nil
	t.errorTimes = nil
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

// pruneLocked drops outcomes older than maxAge. Must be called with the
// mutex held.
func (t *OutcomeTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.maxAge)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.successTimes)
	prune(&t.errorTimes)
}
