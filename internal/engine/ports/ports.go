// Package ports defines the interfaces the validation engine depends on.
// They decouple the engine from the certificate, sanctions, policy, and
// identity implementations so the rules stay testable in isolation.
package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/certificate"
	"trustline/internal/policy/models"
	"trustline/internal/sanctions"
	"trustline/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

// PolicyResolver answers which policy governs a client.
type PolicyResolver interface {
	// Resolve returns the client's registered policy, or the server default
	// when the client never registered one.
	Resolve(ctx context.Context, client common.Address) (*models.Policy, error)
}

// CertificateVerifier checks an authorization certificate against a request.
type CertificateVerifier interface {
	// Verify returns a claim when the certificate binds to the request, was
	// signed by a trusted issuer, is unexpired, and was never presented
	// before. Failures carry coded domain errors.
	Verify(ctx context.Context, cert certificate.Certificate, req domain.ValidationRequest) (*certificate.VerifiedClaim, error)
}

// SanctionsAggregator screens addresses across the configured sources.
type SanctionsAggregator interface {
	// Aggregate merges per-source verdicts with OR semantics. An empty
	// sourceIDs slice means every registered source.
	Aggregate(ctx context.Context, addrs []common.Address, sourceIDs []string) (sanctions.Result, error)
}

// IdentityRegistry answers ERC-3643 identity verification lookups.
type IdentityRegistry interface {
	Verified(ctx context.Context, addr common.Address) (bool, error)
}
