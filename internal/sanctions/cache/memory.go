// Package cache stores per-source, per-address sanction verdicts for a
// bounded TTL so repeat decisions do not refetch from slow oracles.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/sanctions"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

type memoryKey struct {
	source string
	addr   common.Address
}

// InMemory is a process-local verdict cache.
type InMemory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	verdicts map[memoryKey]sanctions.Verdict
}

// NewInMemory constructs a verdict cache with the given freshness window.
func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		ttl:      ttl,
		verdicts: make(map[memoryKey]sanctions.Verdict),
	}
}

// Find returns the cached verdict, or sentinel.ErrNotFound for misses and
// entries older than the TTL. Freshness is judged against the request time.
func (c *InMemory) Find(ctx context.Context, source string, addr common.Address) (*sanctions.Verdict, error) {
	c.mu.RLock()
	verdict, ok := c.verdicts[memoryKey{source: source, addr: addr}]
	c.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if requestcontext.Now(ctx).Sub(verdict.AsOf) > c.ttl {
		return nil, sentinel.ErrNotFound
	}
	return &verdict, nil
}

// Save stores a verdict, overwriting any staler entry for the same key.
func (c *InMemory) Save(_ context.Context, verdict sanctions.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[memoryKey{source: verdict.Source, addr: verdict.Address}] = verdict
	return nil
}
