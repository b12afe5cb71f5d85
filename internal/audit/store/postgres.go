package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/audit"
)

// Postgres persists the audit trail.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id         UUID PRIMARY KEY,
//	    ts         TIMESTAMPTZ NOT NULL,
//	    action     TEXT NOT NULL,
//	    client     BYTEA NOT NULL,
//	    allowed    BOOLEAN NOT NULL DEFAULT FALSE,
//	    reason     TEXT NOT NULL DEFAULT '',
//	    mode       TEXT NOT NULL DEFAULT '',
//	    request_id TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_client_ts_idx ON audit_events (client, ts);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Append adds an event to the trail.
func (s *Postgres) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, ts, action, client, allowed, reason, mode, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.Timestamp,
		string(event.Action),
		event.Client.Bytes(),
		event.Allowed,
		event.Reason,
		event.Mode,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByClient returns the client's events in timestamp order.
func (s *Postgres) ListByClient(ctx context.Context, client common.Address) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, action, client, allowed, reason, mode, request_id
		FROM audit_events
		WHERE client = $1
		ORDER BY ts`,
		client.Bytes(),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			event       audit.Event
			action      string
			clientBytes []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &action, &clientBytes, &event.Allowed, &event.Reason, &event.Mode, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		event.Client = common.BytesToAddress(clientBytes)
		out = append(out, event)
	}
	return out, rows.Err()
}
