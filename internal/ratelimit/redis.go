package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "trustline:ratelimit:"

// Redis implements BucketStore with a fixed-window counter shared across
// replicas. INCR plus first-write EXPIRE keeps it to one round trip for the
// common case.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps a connected Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	bucket := keyPrefix + key

	count, err := s.client.Incr(ctx, bucket).Result()
	if err != nil {
		return nil, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, bucket, window).Err(); err != nil {
			return nil, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	ttl, err := s.client.TTL(ctx, bucket).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}

	result := &Result{
		Limit:   limit,
		ResetAt: time.Now().Add(ttl),
	}
	if count <= int64(limit) {
		result.Allowed = true
		result.Remaining = limit - int(count)
	}
	return result, nil
}
