// Package throttle spaces out calls to rate-limited services.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks until the caller may make its next call
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval enforces a minimum interval between successive calls in this process
type Interval struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

// NewInterval creates an Interval limiter. A non-positive interval never blocks.
func NewInterval(interval time.Duration) *Interval {
	return &Interval{interval: interval, now: time.Now}
}

// Wait reserves the next slot and sleeps until it starts. A cancelled context
// returns early with the context's error.
func (l *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.now()
	start := l.next
	if start.Before(now) {
		start = now
	}
	l.next = start.Add(l.interval)
	l.mu.Unlock()

	return Sleep(ctx, start.Sub(now))
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
