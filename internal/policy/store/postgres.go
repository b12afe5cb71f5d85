package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"trustline/internal/policy/models"
	"trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
)

// Postgres persists policies in the `policies` table. The client address is
// the primary key, so duplicate inserts surface as unique violations and the
// upsert path is a single atomic statement.
//
// Schema:
//
//	CREATE TABLE policies (
//	    client           BYTEA PRIMARY KEY,
//	    mode             TEXT NOT NULL,
//	    required_checks  TEXT[] NOT NULL DEFAULT '{}',
//	    sanction_sources TEXT[] NOT NULL DEFAULT '{}',
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed policy store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

// Create inserts a policy, failing with sentinel.ErrAlreadyUsed when the
// client already has one.
func (s *Postgres) Create(ctx context.Context, policy *models.Policy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (client, mode, required_checks, sanction_sources, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		policy.Client.Bytes(),
		string(policy.Mode),
		pq.Array(checksToStrings(policy.RequiredChecks)),
		pq.Array(policy.SanctionSources),
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the client's policy atomically, preserving the
// original created_at.
func (s *Postgres) Upsert(ctx context.Context, policy *models.Policy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (client, mode, required_checks, sanction_sources, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client) DO UPDATE SET
			mode = EXCLUDED.mode,
			required_checks = EXCLUDED.required_checks,
			sanction_sources = EXCLUDED.sanction_sources,
			updated_at = EXCLUDED.updated_at`,
		policy.Client.Bytes(),
		string(policy.Mode),
		pq.Array(checksToStrings(policy.RequiredChecks)),
		pq.Array(policy.SanctionSources),
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	return nil
}

// Find returns the client's policy or sentinel.ErrNotFound.
func (s *Postgres) Find(ctx context.Context, client common.Address) (*models.Policy, error) {
	var (
		clientBytes []byte
		mode        string
		checks      pq.StringArray
		sources     pq.StringArray
		policy      models.Policy
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT client, mode, required_checks, sanction_sources, created_at, updated_at
		FROM policies
		WHERE client = $1`,
		client.Bytes(),
	).Scan(&clientBytes, &mode, &checks, &sources, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find policy: %w", err)
	}

	policy.Client = common.BytesToAddress(clientBytes)
	policy.Mode = domain.Mode(mode)
	policy.RequiredChecks = stringsToChecks(checks)
	policy.SanctionSources = []string(sources)
	return &policy, nil
}

func checksToStrings(checks []domain.CheckKind) []string {
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = string(c)
	}
	return out
}

func stringsToChecks(raw []string) []domain.CheckKind {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.CheckKind, len(raw))
	for i, s := range raw {
		out[i] = domain.CheckKind(s)
	}
	return out
}
