// Package cache keeps rendered scoreboard responses in redis so ranking a
// large contest is not recomputed on every poll. Entries carry a short TTL
// and are dropped eagerly whenever a solve is credited.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	scoreboardTTL = time.Minute
	keyPrefix     = "scoreboard:"
)

type ScoreboardCache struct {
	rdb *redis.Client
}

func NewScoreboardCache(rdb *redis.Client) *ScoreboardCache {
	return &ScoreboardCache{rdb: rdb}
}

func (c *ScoreboardCache) key(contestID, variant string) string {
	return keyPrefix + contestID + ":" + variant
}

// Get returns the cached response body for the contest and view variant
// (e.g. "team", "user", "live:team"), or nil on miss.
func (c *ScoreboardCache) Get(ctx context.Context, contestID, variant string) []byte {
	data, err := c.rdb.Get(ctx, c.key(contestID, variant)).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.S().Warnf("scoreboard cache read failed: %v", err)
		}
		return nil
	}
	return data
}

func (c *ScoreboardCache) Set(ctx context.Context, contestID, variant string, body []byte) {
	if err := c.rdb.Set(ctx, c.key(contestID, variant), body, scoreboardTTL).Err(); err != nil {
		zap.S().Warnf("scoreboard cache write failed: %v", err)
	}
}

// InvalidateScoreboard drops every cached variant for the contest. Called by
// the submission engine right after a solve is credited.
func (c *ScoreboardCache) InvalidateScoreboard(ctx context.Context, contestID string) {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+contestID+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		zap.S().Warnf("scoreboard cache scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zap.S().Warnf("scoreboard cache invalidation failed: %v", err)
	}
}
