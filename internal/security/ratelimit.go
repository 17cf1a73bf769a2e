package security

import (
	"errors"
	"sync"
	"time"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Limit allows Events per sliding Window.
type Limit struct {
	Events int
	Window time.Duration
}

// RateLimiter keeps one sliding window per kind of event. A nil
// *RateLimiter allows everything.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// window holds the timestamps of accepted events, oldest first.
type window struct {
	Limit
	seen []time.Time
}

// NewRateLimiter builds a limiter from limits keyed by kind. A limit with
// a non-positive count or window leaves its kind unlimited.
func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	windows := make(map[string]*window, len(limits))
	for kind, l := range limits {
		if l.Events > 0 && l.Window > 0 {
			windows[kind] = &window{Limit: l}
		}
	}
	return &RateLimiter{windows: windows, now: time.Now}
}

// Allow counts one event of kind, or returns ErrRateLimited without
// counting it when the window is full.
func (rl *RateLimiter) Allow(kind string) error {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.windows[kind]
	if w == nil {
		return nil
	}
	now := rl.now()
	w.expire(now.Add(-w.Window))
	if len(w.seen) >= w.Events {
		return ErrRateLimited
	}
	w.seen = append(w.seen, now)
	return nil
}

// expire drops events from before cutoff.
func (w *window) expire(cutoff time.Time) {
	keep := 0
	for keep < len(w.seen) && w.seen[keep].Before(cutoff) {
		keep++
	}
	w.seen = w.seen[keep:]
}
