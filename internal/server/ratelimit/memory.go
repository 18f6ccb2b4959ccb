package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps counters in process. Expired entries are swept at
// most once per window.
type MemoryLimiter struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	entries      map[string]*entry
	lastCleanup  time.Time
	cleanupEvery time.Duration
}

type entry struct {
	count int
	reset time.Time
}

func NewMemory(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:        limit,
		window:       window,
		entries:      map[string]*entry{},
		cleanupEvery: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastCleanup.IsZero() {
		l.lastCleanup = now
	}
	if now.Sub(l.lastCleanup) >= l.cleanupEvery {
		for k, v := range l.entries {
			if !now.Before(v.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok || !now.Before(e.reset) {
		l.entries[key] = &entry{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}

	if e.count >= l.limit {
		retryAfter := e.reset.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	e.count++
	return true, 0, nil
}

// Len reports the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
