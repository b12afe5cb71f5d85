// Package store persists engine instances. Stores speak sentinel errors; the
// service layer translates them into coded domain errors.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/instance"
	"trustline/pkg/platform/sentinel"
)

// InMemory keeps instances in a mutex-guarded map.
type InMemory struct {
	mu        sync.RWMutex
	instances map[common.Address]instance.Instance
}

// NewInMemory constructs an empty instance store.
func NewInMemory() *InMemory {
	return &InMemory{instances: make(map[common.Address]instance.Instance)}
}

// Create stores an instance for a client without one, failing with
// sentinel.ErrAlreadyUsed otherwise.
func (s *InMemory) Create(_ context.Context, inst *instance.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[inst.Client]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.instances[inst.Client] = *inst
	return nil
}

// Find returns the client's instance or sentinel.ErrNotFound.
func (s *InMemory) Find(_ context.Context, client common.Address) (*instance.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[client]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inst, nil
}

// UpdateLogic swaps the logic pointer in place. The proxy address and
// creation time are untouched.
func (s *InMemory) UpdateLogic(_ context.Context, client, logic common.Address, upgradedAt time.Time) (*instance.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[client]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	inst.LogicAddress = logic
	inst.UpgradedAt = upgradedAt
	s.instances[client] = inst
	return &inst, nil
}
