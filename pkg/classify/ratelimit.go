package classify

import (
	"context"
	"sync"
	"time"
)

// rateLimiter enforces the per-process request budget: a counter that resets
// every wall-clock minute, a hard pause at 90% of the RPM ceiling until the
// next minute boundary, and a minimum inter-request delay of 60000/RPM ms.
type rateLimiter struct {
	mu sync.Mutex

	rpm         int
	windowStart time.Time
	count       int
	lastRequest time.Time

	boundarySleeps int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newRateLimiter(rpm int) *rateLimiter {
	return &rateLimiter{
		rpm:   rpm,
		now:   time.Now,
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until the caller may issue the next request.
func (l *rateLimiter) wait(ctx context.Context) error {
	if l == nil || l.rpm <= 0 {
		return nil
	}
	minGap := time.Minute / time.Duration(l.rpm)

	for {
		l.mu.Lock()
		now := l.now()
		window := now.Truncate(time.Minute)
		if !window.Equal(l.windowStart) {
			l.windowStart = window
			l.count = 0
		}

		if l.count >= l.rpm*9/10 {
			// Approaching the ceiling: drain until the minute rolls over.
			until := window.Add(time.Minute).Sub(now)
			l.boundarySleeps++
			l.mu.Unlock()
			if err := l.sleep(ctx, until); err != nil {
				return err
			}
			continue
		}

		if gap := minGap - now.Sub(l.lastRequest); gap > 0 {
			l.mu.Unlock()
			if err := l.sleep(ctx, gap); err != nil {
				return err
			}
			continue
		}

		l.count++
		l.lastRequest = now
		l.mu.Unlock()
		return nil
	}
}

// BoundarySleeps reports how often the limiter parked until a minute
// boundary. Surfaced in the run summary for rate-storm diagnostics.
func (l *rateLimiter) BoundarySleeps() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.boundarySleeps
}
