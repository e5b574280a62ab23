package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps the sliding window in a Redis sorted set keyed by
// attempt timestamp, so multiple instances share one window. Scores are unix
// nanoseconds; members carry the same value to stay unique.
type RedisLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
	prefix      string
}

func NewRedisLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      "rl:flag:",
	}
}

func (l *RedisLimiter) CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error) {
	redisKey := l.prefix + key
	nowNs := now.UnixNano()
	cutoff := now.Add(-l.window).UnixNano()
	member := strconv.FormatInt(nowNs, 10)

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNs), Member: member})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	total := int(card.Val())
	if total <= l.maxAttempts {
		return Decision{Allowed: true, Remaining: l.maxAttempts - total}, nil
	}

	// Denied: find the attempt whose expiry frees enough room for a retry.
	idx := int64(total - l.maxAttempts)
	entries, err := l.rdb.ZRangeWithScores(ctx, redisKey, idx, idx).Result()
	if err != nil || len(entries) == 0 {
		return Decision{Allowed: false, RetryAfter: l.window}, nil
	}

	oldest := time.Unix(0, int64(entries[0].Score))
	retry := l.window - now.Sub(oldest)
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
