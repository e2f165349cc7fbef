package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles login attempts per key (email + client address). A nil
// redis client disables throttling, mirroring how redis is wired optionally
// at startup.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func New(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 {
		return true, nil
	}

	count, err := l.rdb.Incr(ctx, "login_attempts:"+key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, "login_attempts:"+key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) {
	if l == nil || l.rdb == nil {
		return
	}
	_ = l.rdb.Del(ctx, "login_attempts:"+key).Err()
}
