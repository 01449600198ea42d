package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit:%s:%s"

type Limiter interface {
	Allow(c context.Context, key string) (bool, error)
}

// FixedWindow counts hits per key in redis and resets the count every window.
type FixedWindow struct {
	client   *redis.Client
	scope    string
	capacity int64
	window   time.Duration
}

func NewFixedWindow(client *redis.Client, scope string, capacity int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		client:   client,
		scope:    scope,
		capacity: int64(capacity),
		window:   window,
	}
}

func (f *FixedWindow) Allow(c context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf(keyPrefix, f.scope, key)

	var incr *redis.IntCmd
	_, err := f.client.TxPipelined(c, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(c, redisKey)
		pipe.ExpireNX(c, redisKey, f.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed incrementing rate limit key=%s with error=%w", redisKey, err)
	}
	return incr.Val() <= f.capacity, nil
}
