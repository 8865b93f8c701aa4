package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiterStore keeps the sliding window in a Redis sorted set per
// identity, scored by request time, so the count is shared across server
// instances. Same admit/reject contract as the in-memory limiter.
type RedisLimiterStore struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiterStore creates a Redis-backed limiter store
func NewRedisLimiterStore(rdb *redis.Client, limit int, window time.Duration) *RedisLimiterStore {
	return &RedisLimiterStore{
		rdb:    rdb,
		prefix: "ratelimit:window:",
		limit:  limit,
		window: window,
	}
}

// Allow prunes expired entries, then admits and records the request only
// when the window has room. The prune+count+add sequence is not atomic
// across instances; a rare overshoot is acceptable, undercounting is not.
func (s *RedisLimiterStore) Allow(ctx context.Context, identity string, now time.Time) (bool, error) {
	key := s.prefix + identity
	nowNanos := now.UnixNano()
	cutoff := now.Add(-s.window).UnixNano()

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if countCmd.Val() >= int64(s.limit) {
		return false, nil
	}

	pipe = s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(nowNanos),
		Member: strconv.FormatInt(nowNanos, 10),
	})
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return true, nil
}
