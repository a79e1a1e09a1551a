package rest

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is the default spacing enforced between consecutive
// requests, matching the remote service's per-base rate limit.
const DefaultMinInterval = 200 * time.Millisecond

// pacer serializes request dispatch, enforcing a minimum interval between
// consecutive requests. It is a pre-emptive throttle, not a retry
// mechanism: callers acquire, wait out any remaining cooldown, and release
// immediately after dispatching.
type pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

func newPacer(minInterval time.Duration) *pacer {
	return &pacer{minInterval: minInterval}
}

// wait blocks until the minimum interval since the previous request has
// elapsed, or ctx is done.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.minInterval - time.Since(p.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	p.last = time.Now()
	return nil
}
