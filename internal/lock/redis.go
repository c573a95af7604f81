package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inventory:lock:"

// Redis is a distributed Locker for deployments running several API
// instances against one database.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis builds a Locker on top of an existing go-redis client. ttl bounds
// both the lock lifetime and how long Obtain keeps retrying.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func (r *Redis) Obtain(ctx context.Context, key string) (func(), error) {
	l, err := r.client.Obtain(ctx, keyPrefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// A fresh context: the request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.Release(ctx)
	}, nil
}
