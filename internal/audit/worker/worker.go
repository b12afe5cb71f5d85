// Package worker exports audit events to Kafka off the request path.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"trustline/internal/audit"
)

// Publisher is the sink audit events are exported to.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Worker consumes audit events from the inbox and publishes them to the
// audit topic. Export is best-effort: a broker outage is logged, never
// propagated back to the decision path.
type Worker struct {
	publisher Publisher
	topic     string
	inbox     <-chan audit.Event
	logger    *slog.Logger
}

// New constructs an export worker.
func New(publisher Publisher, topic string, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, topic: topic, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.export(ctx, event)
		}
	}
}

func (w *Worker) export(ctx context.Context, event audit.Event) {
	payload, err := json.Marshal(exportRecord{
		ID:        event.ID.String(),
		Timestamp: event.Timestamp.UTC().Format(timeLayout),
		Action:    string(event.Action),
		Client:    event.Client.Hex(),
		Allowed:   event.Allowed,
		Reason:    event.Reason,
		Mode:      event.Mode,
		RequestID: event.RequestID,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "audit export encode failed", "error", err)
		return
	}

	if err := w.publisher.Publish(ctx, w.topic, event.Client.Bytes(), payload); err != nil {
		w.logger.WarnContext(ctx, "audit export publish failed",
			"action", event.Action,
			"error", err,
		)
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// exportRecord is the Kafka wire format. Keyed by client address so one
// client's events stay ordered within a partition.
type exportRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Client    string `json:"client"`
	Allowed   bool   `json:"allowed,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Mode      string `json:"mode,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
