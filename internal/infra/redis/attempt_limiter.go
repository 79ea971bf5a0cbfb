package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts sign-in and sign-up attempts per key in a fixed
// window shared by all instances.
//
//	MULTI; SET auth:attempts:{key} 0 EX window NX; INCR auth:attempts:{key}; EXEC
type AttemptLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, max: max, window: window}
}

func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	k := l.key(key)
	// The window starts in the same transaction as the first count, so a
	// counter never exists without a TTL.
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count attempt: %w", err)
	}
	n := incr.Val()
	return n <= int64(l.max), nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) key(key string) string {
	return "auth:attempts:" + key
}
