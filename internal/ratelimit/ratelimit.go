// Package ratelimit provides per-key request limiting for the HTTP API.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides if a request from key should be allowed. When allowed
// is false, retryAfterSec may be set for the Retry-After header (0 =
// omit).
type Limiter interface {
	Allow(key string) (allowed bool, retryAfterSec int)
}

// Noop allows all requests.
type Noop struct{}

func (Noop) Allow(key string) (bool, int) { return true, 0 }

// SlidingWindow limits each key to limit requests per window. Single
// instance only; state lives in memory.
type SlidingWindow struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	limit   int
	window  time.Duration
	nowFunc func() time.Time

	lastPrune time.Time
}

// NewSlidingWindow allows up to limit requests per key per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		seen:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		nowFunc: time.Now,
	}
}

func (l *SlidingWindow) Allow(key string) (allowed bool, retryAfterSec int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.pruneLocked(now)

	cutoff := now.Add(-l.window)
	times := l.seen[key]
	kept := 0
	for _, t := range times {
		if t.After(cutoff) {
			times[kept] = t
			kept++
		}
	}
	times = times[:kept]

	if len(times) >= l.limit {
		l.seen[key] = times
		wait := times[0].Add(l.window).Sub(now)
		if wait > 0 {
			retryAfterSec = int(wait.Seconds())
			if retryAfterSec < 1 {
				retryAfterSec = 1
			}
		}
		return false, retryAfterSec
	}

	l.seen[key] = append(times, now)
	return true, 0
}

// pruneLocked drops keys whose entries all fell out of the window, at
// most once per window, so idle keys do not accumulate forever.
func (l *SlidingWindow) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	cutoff := now.Add(-l.window)
	for key, times := range l.seen {
		live := false
		for _, t := range times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.seen, key)
		}
	}
}
