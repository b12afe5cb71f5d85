package audit

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"trustline/pkg/domain"
	"trustline/pkg/requestcontext"
)

// Publisher records audit events. Persistence is synchronous so the trail is
// complete even if the process dies; export to Kafka happens asynchronously
// through the worker inbox. Audit failures never fail the host operation;
// they are logged and dropped.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *slog.Logger
}

// NewPublisher constructs a publisher. A nil inbox disables Kafka export.
func NewPublisher(store Store, inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, inbox: inbox, logger: logger}
}

// Emit persists an event and queues it for export. Nil publishers are valid
// no-op sinks so services can run without audit wiring in tests.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"client", event.Client.Hex(),
			"error", err,
		)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.WarnContext(ctx, "audit export inbox full, dropping event",
				"action", event.Action,
			)
		}
	}
}

// EmitDecision records a completed decision.
func (p *Publisher) EmitDecision(ctx context.Context, client common.Address, mode domain.Mode, allowed bool, reason string) {
	p.Emit(ctx, Event{
		Action:  ActionDecisionMade,
		Client:  client,
		Allowed: allowed,
		Reason:  reason,
		Mode:    string(mode),
	})
}

// EmitPolicyRegistered records a policy registration or overwrite.
func (p *Publisher) EmitPolicyRegistered(ctx context.Context, client common.Address, mode domain.Mode) {
	p.Emit(ctx, Event{
		Action: ActionPolicyRegistered,
		Client: client,
		Mode:   string(mode),
	})
}

// EmitInstanceCreated records a new engine instance bootstrap.
func (p *Publisher) EmitInstanceCreated(ctx context.Context, client common.Address) {
	p.Emit(ctx, Event{Action: ActionInstanceCreated, Client: client})
}

// EmitInstanceUpgraded records a logic upgrade behind a stable proxy.
func (p *Publisher) EmitInstanceUpgraded(ctx context.Context, client common.Address) {
	p.Emit(ctx, Event{Action: ActionInstanceUpgraded, Client: client})
}
