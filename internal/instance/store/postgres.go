package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"trustline/internal/instance"
	"trustline/pkg/platform/sentinel"
)

// Postgres persists instances in the `instances` table. The client address
// is the primary key; the logic swap is a single UPDATE ... RETURNING so
// concurrent upgrades serialize on the row.
//
// Schema:
//
//	CREATE TABLE instances (
//	    client      BYTEA PRIMARY KEY,
//	    proxy       BYTEA NOT NULL,
//	    logic       BYTEA NOT NULL,
//	    owner       BYTEA NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    upgraded_at TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed instance store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

// Create inserts an instance, failing with sentinel.ErrAlreadyUsed when the
// client already has one.
func (s *Postgres) Create(ctx context.Context, inst *instance.Instance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (client, proxy, logic, owner, created_at, upgraded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		inst.Client.Bytes(),
		inst.ProxyAddress.Bytes(),
		inst.LogicAddress.Bytes(),
		inst.Owner.Bytes(),
		inst.CreatedAt,
		inst.UpgradedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

// Find returns the client's instance or sentinel.ErrNotFound.
func (s *Postgres) Find(ctx context.Context, client common.Address) (*instance.Instance, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT client, proxy, logic, owner, created_at, upgraded_at
		FROM instances
		WHERE client = $1`,
		client.Bytes(),
	))
}

// UpdateLogic swaps the logic pointer atomically and returns the updated
// instance, or sentinel.ErrNotFound for clients never initialized.
func (s *Postgres) UpdateLogic(ctx context.Context, client, logic common.Address, upgradedAt time.Time) (*instance.Instance, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		UPDATE instances
		SET logic = $2, upgraded_at = $3
		WHERE client = $1
		RETURNING client, proxy, logic, owner, created_at, upgraded_at`,
		client.Bytes(),
		logic.Bytes(),
		upgradedAt,
	))
}

func (s *Postgres) scanOne(row *sql.Row) (*instance.Instance, error) {
	var (
		client, proxy, logic, owner []byte
		inst                        instance.Instance
	)
	err := row.Scan(&client, &proxy, &logic, &owner, &inst.CreatedAt, &inst.UpgradedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan instance: %w", err)
	}

	inst.Client = common.BytesToAddress(client)
	inst.ProxyAddress = common.BytesToAddress(proxy)
	inst.LogicAddress = common.BytesToAddress(logic)
	inst.Owner = common.BytesToAddress(owner)
	return &inst, nil
}
