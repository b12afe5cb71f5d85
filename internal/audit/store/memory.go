// Package store persists the audit trail.
package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/audit"
)

// InMemory keeps the trail in memory. Development and test use.
type InMemory struct {
	mu     sync.RWMutex
	events []audit.Event
}

// NewInMemory constructs an empty audit store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds an event to the trail.
func (s *InMemory) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByClient returns the client's events in append order.
func (s *InMemory) ListByClient(_ context.Context, client common.Address) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, event := range s.events {
		if event.Client == client {
			out = append(out, event)
		}
	}
	return out, nil
}
