package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter is the admission gate for oracle work: at most maxConcurrent
// tasks in flight, issued at no more than maxConcurrent per interval.
// Queued waiters are admitted in FIFO order. This is a simple gate, not a
// token bucket with burst credit.
type Limiter struct {
	sem    *semaphore.Weighted
	issuer *rate.Limiter
}

func New(maxConcurrent int, interval time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	issuer := rate.NewLimiter(rate.Inf, maxConcurrent)
	if interval > 0 {
		issuer = rate.NewLimiter(rate.Every(interval/time.Duration(maxConcurrent)), maxConcurrent)
	}
	return &Limiter{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		issuer: issuer,
	}
}

// Acquire blocks until both a concurrency slot and an issue token are
// available. The returned release func is idempotent.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire concurrency slot: %w", err)
	}
	if err := l.issuer.Wait(ctx); err != nil {
		l.sem.Release(1)
		return nil, fmt.Errorf("wait for issue token: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.sem.Release(1) })
	}, nil
}
