package engine

import (
	"time"

	"trustline/internal/policy/models"
	"trustline/pkg/domain"
)

// evaluate applies the rule chain to gathered evidence and produces an
// outcome. Pure domain logic: no I/O, no side effects.
//
// Rule priority (fail-fast):
//  1. Sanctions hit from an answering source (hard fail)
//  2. Sanctions flag synthesized by fail-closed strictness
//  3. Certificate presence and validity, when the policy requires one
//  4. Identity registry verification, when the policy requires it
func evaluate(policy *models.Policy, req EvaluateRequest, evidence *gatheredEvidence) (bool, Reason) {
	if evidence.sanctioned {
		if evidence.confirmedHit {
			return false, ReasonSanctioned
		}
		return false, ReasonSourceUnavailable
	}

	if policy.Requires(domain.CheckCertificate) {
		if req.Certificate == nil {
			return false, ReasonCertificateMissing
		}
		if evidence.certErr != nil {
			return false, ReasonCertificateInvalid
		}
	}

	if policy.Requires(domain.CheckIdentityRegistry) {
		if evidence.identityOK == nil || !*evidence.identityOK {
			return false, ReasonIdentityUnverified
		}
	}

	return true, ReasonAllChecksPassed
}

// buildDecision assembles the externally visible decision from the outcome
// and the evidence that produced it.
func buildDecision(policy *models.Policy, allowed bool, reason Reason, evidence *gatheredEvidence, evalTime time.Time) *Decision {
	decision := &Decision{
		Allowed:     allowed,
		Reason:      reason,
		Mode:        policy.Mode,
		EvaluatedAt: evalTime,
		Evidence: EvidenceSummary{
			FlaggedAddresses:   evidence.flagged,
			UnavailableSources: evidence.unavailable,
		},
	}

	if policy.Requires(domain.CheckCertificate) {
		verified := evidence.claim != nil
		decision.Evidence.CertificateVerified = &verified
	}
	decision.Evidence.IdentityVerified = evidence.identityOK

	return decision
}
