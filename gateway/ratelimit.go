package gateway

import (
	"sync"
	"time"
)

// RateLimiter bounds upstream request volume with a sliding window of
// request timestamps. When the window is full a request is refused
// outright; nothing is queued.
// Shared across all editor sessions in the process.
type RateLimiter struct {
	mu       sync.Mutex
	ceiling  int
	window   time.Duration
	requests []time.Time
	now      func() time.Time
}

// NewRateLimiter creates a limiter admitting at most ceiling requests per
// trailing minute.
func NewRateLimiter(ceiling int) *RateLimiter {
	return &RateLimiter{
		ceiling: ceiling,
		window:  time.Minute,
		now:     time.Now,
	}
}

// Allow records and admits the request if the window has room, or refuses
// it without consuming window capacity.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)
	kept := r.requests[:0]
	for _, t := range r.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.requests = kept

	if len(r.requests) >= r.ceiling {
		return false
	}
	r.requests = append(r.requests, now)
	return true
}

// WaitTime reports how long until the oldest recorded request leaves the
// window. Zero when the window has room.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.requests) < r.ceiling {
		return 0
	}
	remaining := r.window - r.now().Sub(r.requests[0])
	if remaining < 0 {
		return 0
	}
	return remaining
}
