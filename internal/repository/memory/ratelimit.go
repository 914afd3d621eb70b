package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter is the single-process counterpart of the Redis limiter
type RateLimiter struct {
	mu                sync.Mutex
	windows           map[string]*window
	requestsPerMinute int
	burst             int
	now               func() time.Time
}

func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		windows:           make(map[string]*window),
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		now:               time.Now,
	}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	start := r.now().Truncate(time.Minute)

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || !w.start.Equal(start) {
		// drop stale windows while we hold the lock
		for k, old := range r.windows {
			if old.start.Before(start) {
				delete(r.windows, k)
			}
		}
		w = &window{start: start}
		r.windows[key] = w
	}
	w.count++

	limit := r.requestsPerMinute + r.burst
	return w.count <= limit, max(limit-w.count, 0), start.Add(time.Minute), nil
}
