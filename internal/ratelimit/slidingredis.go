package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window counter over a Redis sorted set. Each event is
// a uniquely-named member scored by its arrival time; expired members are
// pruned on every check. A nil client disables limiting entirely, which is
// the degraded mode when Redis is not configured.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one event for key and reports whether the caller is still
// within max events per window. remaining and reset let HTTP callers fill
// the conventional rate-limit headers.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	reset = time.Now().Add(window)
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, reset, nil
	}

	now := time.Now()
	setKey := l.Prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", cutoff)
	pipe.ZAdd(ctx, setKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	count := pipe.ZCard(ctx, setKey)
	pipe.Expire(ctx, setKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	seen := int(count.Val())
	remaining = max - seen
	if remaining < 0 {
		remaining = 0
	}
	return seen <= max, remaining, reset, nil
}
