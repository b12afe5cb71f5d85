package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"trustline/internal/sanctions"
	"trustline/pkg/platform/sentinel"
)

const keyPrefix = "trustline:verdict:"

// Redis is a shared verdict cache. The TTL is enforced by Redis key expiry,
// so engine replicas observe a consistent freshness window.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed verdict cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// cachedVerdict is the stored wire format. Address and source live in the
// key; duplicating them in the value keeps reads self-describing.
type cachedVerdict struct {
	Address    common.Address `json:"address"`
	Sanctioned bool           `json:"sanctioned"`
	Source     string         `json:"source"`
	AsOf       time.Time      `json:"as_of"`
}

func cacheKey(source string, addr common.Address) string {
	return keyPrefix + source + ":" + addr.Hex()
}

// Find returns the cached verdict, or sentinel.ErrNotFound after expiry.
func (c *Redis) Find(ctx context.Context, source string, addr common.Address) (*sanctions.Verdict, error) {
	raw, err := c.client.Get(ctx, cacheKey(source, addr)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("verdict cache get: %w", err)
	}

	var stored cachedVerdict
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("verdict cache decode: %w", err)
	}

	return &sanctions.Verdict{
		Address:    stored.Address,
		Sanctioned: stored.Sanctioned,
		Source:     stored.Source,
		AsOf:       stored.AsOf,
	}, nil
}

// Save stores a verdict with the configured TTL.
func (c *Redis) Save(ctx context.Context, verdict sanctions.Verdict) error {
	raw, err := json.Marshal(cachedVerdict{
		Address:    verdict.Address,
		Sanctioned: verdict.Sanctioned,
		Source:     verdict.Source,
		AsOf:       verdict.AsOf,
	})
	if err != nil {
		return fmt.Errorf("verdict cache encode: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(verdict.Source, verdict.Address), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("verdict cache set: %w", err)
	}
	return nil
}
