package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/certificate"
	"trustline/pkg/domain"
)

// Reason explains a decision. Reasons are part of the wire contract: clients
// branch on them, so they stay stable.
type Reason string

const (
	ReasonAllChecksPassed    Reason = "all_checks_passed"
	ReasonSanctioned         Reason = "sanctioned"
	ReasonCertificateMissing Reason = "certificate_missing"
	ReasonCertificateInvalid Reason = "certificate_invalid"
	ReasonIdentityUnverified Reason = "identity_unverified"
	ReasonSourceUnavailable  Reason = "source_unavailable"
)

// EvaluateRequest carries everything the engine needs for one decision. The
// certificate is optional; whether it is required comes from the client's
// policy.
type EvaluateRequest struct {
	Request     domain.ValidationRequest
	Certificate *certificate.Certificate
}

// Decision is the engine's verdict for one request.
type Decision struct {
	Allowed     bool
	Reason      Reason
	Mode        domain.Mode
	EvaluatedAt time.Time
	Evidence    EvidenceSummary
}

// EvidenceSummary records what the engine actually observed. Pointer fields
// stay nil when the corresponding check was not required.
type EvidenceSummary struct {
	CertificateVerified *bool
	IdentityVerified    *bool
	FlaggedAddresses    []common.Address
	UnavailableSources  []string
}

// gatheredEvidence is the raw material the rules evaluate. Fields are nil for
// checks the policy did not require.
type gatheredEvidence struct {
	claim        *certificate.VerifiedClaim
	certErr      error
	sanctioned   bool
	confirmedHit bool
	flagged      []common.Address
	unavailable  []string
	identityOK   *bool
	fetchedAt    time.Time
	latencies    evidenceLatencies
}

type evidenceLatencies struct {
	certificate time.Duration
	sanctions   time.Duration
	identity    time.Duration
}
