// Package store persists client policies. Stores speak sentinel errors; the
// service layer translates them into coded domain errors.
package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/policy/models"
	"trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
)

// InMemory keeps policies in a mutex-guarded map. Reads observe either the
// pre- or post-update policy atomically; copies are returned so callers can
// never mutate stored state.
type InMemory struct {
	mu       sync.RWMutex
	policies map[common.Address]models.Policy
}

// NewInMemory constructs an empty policy store.
func NewInMemory() *InMemory {
	return &InMemory{policies: make(map[common.Address]models.Policy)}
}

// Create stores a policy for a client not yet registered, failing with
// sentinel.ErrAlreadyUsed otherwise.
func (s *InMemory) Create(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[policy.Client]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.policies[policy.Client] = clone(policy)
	return nil
}

// Upsert stores a policy unconditionally, preserving the original CreatedAt
// when the client was registered before.
func (s *InMemory) Upsert(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(policy)
	if existing, ok := s.policies[policy.Client]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.policies[policy.Client] = stored
	return nil
}

// Find returns the client's policy or sentinel.ErrNotFound.
func (s *InMemory) Find(_ context.Context, client common.Address) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[client]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(&policy)
	return &out, nil
}

func clone(p *models.Policy) models.Policy {
	out := *p
	out.RequiredChecks = append([]domain.CheckKind(nil), p.RequiredChecks...)
	out.SanctionSources = append([]string(nil), p.SanctionSources...)
	return out
}
