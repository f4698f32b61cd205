package refresh

import (
	"context"
	"sync"
	"time"
)

// inFlightTracker counts refresh operations currently running. Graceful
// shutdown waits for it to drain so a half-applied refresh pass is not cut
// off mid-persist.
type inFlightTracker struct {
	mu    sync.RWMutex
	count int64
}

func (t *inFlightTracker) increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
}

func (t *inFlightTracker) decrement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count--
}

func (t *inFlightTracker) current() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// waitForZero blocks until the count reaches zero or ctx is cancelled.
func (t *inFlightTracker) waitForZero(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if t.current() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
