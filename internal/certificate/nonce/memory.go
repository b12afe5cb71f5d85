// Package nonce tracks consumed certificate IDs so each certificate is
// accepted at most once within its validity window.
package nonce

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/pkg/platform/sentinel"
)

// InMemory is a process-local nonce store. Suitable for single-instance
// deployments and tests; multi-instance deployments need the Redis store so
// replays across replicas are caught.
type InMemory struct {
	mu   sync.Mutex
	used map[common.Hash]time.Time // id -> expiry
}

// NewInMemory constructs an empty nonce store.
func NewInMemory() *InMemory {
	return &InMemory{used: make(map[common.Hash]time.Time)}
}

// MarkUsed records the certificate ID, failing with sentinel.ErrAlreadyUsed
// if it was recorded before and has not yet expired.
func (s *InMemory) MarkUsed(_ context.Context, id common.Hash, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(now)

	if expiry, ok := s.used[id]; ok && expiry.After(now) {
		return sentinel.ErrAlreadyUsed
	}
	s.used[id] = now.Add(ttl)
	return nil
}

// evictExpired drops entries whose certificates can no longer verify anyway.
// Called under the lock.
func (s *InMemory) evictExpired(now time.Time) {
	for id, expiry := range s.used {
		if !expiry.After(now) {
			delete(s.used, id)
		}
	}
}

// Len reports the number of live entries. Test helper.
func (s *InMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.used)
}
