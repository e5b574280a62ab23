package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(5, 60*time.Second)
	ctx := context.Background()
	base := time.Now()

	// 5 attempts inside 10 seconds all pass the gate
	for i := 0; i < 5; i++ {
		d, err := l.CheckAndRecord(ctx, "team1:chal1", base.Add(time.Duration(i*2)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if !d.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	// 6th inside the same window is denied with retry_after <= 60s
	d, err := l.CheckAndRecord(ctx, "team1:chal1", base.Add(10*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Fatal("6th attempt should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 60*time.Second {
		t.Fatalf("retry_after out of range: %v", d.RetryAfter)
	}

	// After waiting out the advertised retry, the gate opens again
	later := base.Add(10 * time.Second).Add(d.RetryAfter)
	d, err = l.CheckAndRecord(ctx, "team1:chal1", later)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatalf("attempt after retry_after should be allowed")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()
	now := time.Now()

	if d, _ := l.CheckAndRecord(ctx, "a", now); !d.Allowed {
		t.Fatal("first attempt on key a should pass")
	}
	if d, _ := l.CheckAndRecord(ctx, "a", now); d.Allowed {
		t.Fatal("second attempt on key a should be denied")
	}
	if d, _ := l.CheckAndRecord(ctx, "b", now); !d.Allowed {
		t.Fatal("key b has its own window")
	}
}

func TestMemoryLimiterDeniedAttemptsCount(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()
	base := time.Now()

	l.CheckAndRecord(ctx, "k", base)
	l.CheckAndRecord(ctx, "k", base.Add(time.Second))

	// Hammering while denied keeps pushing the retry horizon out
	d1, _ := l.CheckAndRecord(ctx, "k", base.Add(2*time.Second))
	d2, _ := l.CheckAndRecord(ctx, "k", base.Add(3*time.Second))
	if d1.Allowed || d2.Allowed {
		t.Fatal("attempts over the limit must be denied")
	}
	if d2.RetryAfter < d1.RetryAfter {
		t.Fatalf("denied attempts should count toward the window: %v then %v", d1.RetryAfter, d2.RetryAfter)
	}
}

func TestMemoryLimiterConcurrentSameKey(t *testing.T) {
	const limit = 5
	l := NewMemoryLimiter(limit, time.Minute)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.CheckAndRecord(ctx, "storm", now)
			if err != nil {
				t.Error(err)
				return
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("exactly %d of 50 concurrent attempts should pass, got %d", limit, allowed)
	}
}

func TestMemoryLimiterPrune(t *testing.T) {
	l := NewMemoryLimiter(5, time.Minute)
	ctx := context.Background()
	base := time.Now()

	l.CheckAndRecord(ctx, "old", base)
	l.CheckAndRecord(ctx, "fresh", base.Add(59*time.Second))
	l.Prune(base.Add(61 * time.Second))

	l.mu.Lock()
	_, oldKept := l.attempts["old"]
	_, freshKept := l.attempts["fresh"]
	l.mu.Unlock()

	if oldKept {
		t.Error("expired key should have been pruned")
	}
	if !freshKept {
		t.Error("key with attempts still in window must survive pruning")
	}
}
