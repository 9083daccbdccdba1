package verification

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter: the first hit on a key starts a
// window of the configured length.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "ratelimit:code:" + key
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}
