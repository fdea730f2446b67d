package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// ErrRateLimited is returned by the RateLimit middleware in RateLimitError
// mode when an update exceeds the configured budget.
var ErrRateLimited = errors.New("statekit: update rate limit exceeded")

// RateLimitMode determines what happens to updates over budget.
type RateLimitMode int

const (
	// RateLimitSuppress drops excess updates as suppressed outcomes
	// (default). State and listeners are untouched.
	RateLimitSuppress RateLimitMode = iota

	// RateLimitError rejects excess updates with ErrRateLimited.
	RateLimitError
)

// RateLimitConfig configures the update rate limiter.
type RateLimitConfig struct {
	// MaxUpdates is the number of updates admitted per window.
	// Zero disables limiting.
	MaxUpdates int

	// Window is the sliding window duration (default: 1s).
	Window time.Duration

	// Mode selects suppression or rejection for updates over budget.
	Mode RateLimitMode
}

// slidingWindow counts events inside a trailing time window.
type slidingWindow struct {
	mu        sync.Mutex
	events    []time.Time
	window    time.Duration
	maxEvents int
}

// tryAdd admits one event if the window has room.
func (w *slidingWindow) tryAdd() bool {
	if w.maxEvents == 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.window)
	valid := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			w.events[valid] = t
			valid++
		}
	}
	w.events = w.events[:valid]

	if len(w.events) >= w.maxEvents {
		return false
	}
	w.events = append(w.events, time.Now())
	return true
}

func (w *slidingWindow) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.window)
	n := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// RateLimit creates middleware that bounds how many updates a store admits
// per window. It protects against update storms where a listener or effect
// cascades into further updates faster than consumers can follow.
//
// Over-budget updates are suppressed (observable in the Outcome) or
// rejected with ErrRateLimited, depending on the configured mode.
func RateLimit(config RateLimitConfig) statekit.Middleware {
	if config.Window <= 0 {
		config.Window = time.Second
	}
	w := &slidingWindow{
		window:    config.Window,
		maxEvents: config.MaxUpdates,
	}

	return func(s *statekit.Store, next statekit.Apply) statekit.Apply {
		return func(update func(any) any) (statekit.Outcome, error) {
			if !w.tryAdd() {
				s.Logger().Warn("statekit: update rate limit exceeded",
					"max", config.MaxUpdates, "window", config.Window)
				if config.Mode == RateLimitError {
					return statekit.Outcome{}, ErrRateLimited
				}
				return statekit.Suppress("rate limited")
			}
			return next(update)
		}
	}
}
