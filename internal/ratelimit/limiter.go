// Package ratelimit provides a keyed fixed-window limiter backed by an
// expiring map. It is injectable so callers can swap it for a
// distributed limiter if the process is ever scaled horizontally.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxTrackedKeys = 4096

// Limiter answers whether an actor identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// KeyedLimiter allows up to limit calls per key per window. Counters
// live in an expiring LRU, so idle keys cost nothing after the window
// passes.
type KeyedLimiter struct {
	mu      sync.Mutex
	windows *expirable.LRU[string, *counter]
	limit   int
	window  time.Duration
}

type counter struct {
	count   int
	started time.Time
}

func NewKeyedLimiter(limit int, window time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		windows: expirable.NewLRU[string, *counter](maxTrackedKeys, nil, window),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether the caller identified by key is within its
// budget for the current window, counting the call if so.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.windows.Get(key)
	if !ok || now.Sub(c.started) >= l.window {
		l.windows.Add(key, &counter{count: 1, started: now})
		return true
	}

	if c.count >= l.limit {
		return false
	}
	c.count++
	return true
}
