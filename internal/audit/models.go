// Package audit captures the engine's compliance trail: every decision,
// policy change, and instance lifecycle event, append-only.
package audit

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Action names an auditable engine event.
type Action string

const (
	ActionDecisionMade     Action = "decision_made"
	ActionPolicyRegistered Action = "policy_registered"
	ActionInstanceCreated  Action = "instance_created"
	ActionInstanceUpgraded Action = "instance_upgraded"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    Action

	// Client is the contract the event concerns.
	Client common.Address

	// Decision fields, populated for decision_made events.
	Allowed bool
	Reason  string
	Mode    string

	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
}

// Store persists audit events. Append-only; events are never rewritten.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByClient(ctx context.Context, client common.Address) ([]Event, error)
}
