// Package ratelimit gates flag submissions per identity and challenge with a
// sliding attempt window. Every attempt is recorded, including denied ones,
// so rapid retries cannot be used to probe around the limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a single gate check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a submission attempt may proceed now, and if not,
// when a retry can succeed.
type Limiter interface {
	CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error)
}

// MemoryLimiter is an in-process sliding-window limiter. Windows are
// ephemeral: losing them on restart costs at worst one extra burst.
type MemoryLimiter struct {
	maxAttempts int
	window      time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string][]time.Time),
	}
}

// CheckAndRecord appends the attempt and decides under one lock, so two
// near-simultaneous calls for the same key can never both pass when only one
// slot remains.
func (l *MemoryLimiter) CheckAndRecord(_ context.Context, key string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if now.Sub(t) < l.window {
			kept = append(kept, t)
		}
	}

	inWindow := len(kept)
	kept = append(kept, now)
	l.attempts[key] = kept

	if inWindow >= l.maxAttempts {
		// The attempt still counted; the caller may retry once enough
		// recorded attempts have left the window.
		oldest := kept[len(kept)-l.maxAttempts]
		retry := l.window - now.Sub(oldest)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	return Decision{Allowed: true, Remaining: l.maxAttempts - inWindow - 1}, nil
}

// Prune drops keys whose every attempt has left the window. Called
// periodically from a background ticker.
func (l *MemoryLimiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, attempts := range l.attempts {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) >= l.window {
			delete(l.attempts, key)
		}
	}
}
