package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter enforces a per-client sliding window: at most Limit requests per
// rolling Window. State is in-memory and per-process; this is an advisory
// guard against abuse, not a distributed quota.
type Limiter struct {
	options Options
	clients map[string][]time.Time
	mtx     sync.Mutex
}

// Allow prunes timestamps older than the window for client, then either
// records the new request or rejects it if the pruned count is already at
// the cap.
func (l *Limiter) Allow(client string) bool {
	now := l.options.Now()
	cutoff := now.Add(-l.options.Window)

	l.mtx.Lock()
	defer l.mtx.Unlock()

	window := l.clients[client]

	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.options.Limit {
		l.clients[client] = kept
		return false
	}

	l.clients[client] = append(kept, now)
	return true
}

// StartEviction runs a background sweep that drops clients whose entire
// window has expired, so the client map stays bounded across many distinct
// callers. It returns when ctx is done.
func (l *Limiter) StartEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.options.Logger.Info("started rate limit eviction worker",
		zap.Duration("interval", interval),
		zap.Duration("window", l.options.Window))

	for {
		select {
		case <-ticker.C:
			evicted := l.evictStale()
			if evicted > 0 {
				l.options.Logger.Info("evicted idle rate limit clients", zap.Int("clients", evicted))
			}
		case <-ctx.Done():
			l.options.Logger.Info("stopping rate limit eviction worker")
			return
		}
	}
}

func (l *Limiter) evictStale() int {
	cutoff := l.options.Now().Add(-l.options.Window)

	l.mtx.Lock()
	defer l.mtx.Unlock()

	evicted := 0
	for client, window := range l.clients {
		stale := true
		for _, ts := range window {
			if ts.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.clients, client)
			evicted++
		}
	}

	return evicted
}

func New(opts ...Option) *Limiter {
	options := NewOptions(opts...)

	return &Limiter{
		options: options,
		clients: map[string][]time.Time{},
	}
}
