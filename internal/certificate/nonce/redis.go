package nonce

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"trustline/pkg/platform/sentinel"
)

const keyPrefix = "trustline:cert-nonce:"

// Redis is a shared nonce store. SET NX with the certificate's remaining
// lifetime as TTL gives atomic check-and-set across engine replicas, and
// Redis expiry handles cleanup.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed nonce store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// MarkUsed records the certificate ID, failing with sentinel.ErrAlreadyUsed
// if another decision consumed it first.
func (s *Redis) MarkUsed(ctx context.Context, id common.Hash, ttl time.Duration) error {
	if ttl <= 0 {
		// Certificate is at the edge of expiry; the expiry check rejects it
		// on the next use regardless, so a minimal window is enough.
		ttl = time.Second
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+id.Hex(), 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("nonce setnx: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
