package handler

import (
	"time"

	"trustline/internal/engine"
)

// CheckResponse is the HTTP response for POST /v1/trustline/check.
type CheckResponse struct {
	Allowed     bool             `json:"allowed"`
	Reason      string           `json:"reason"`
	Mode        string           `json:"mode"`
	Evidence    EvidenceResponse `json:"evidence"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// EvidenceResponse is the evidence portion of the response. Pointer fields
// are omitted when the corresponding check was not required.
type EvidenceResponse struct {
	CertificateVerified *bool    `json:"certificate_verified,omitempty"`
	IdentityVerified    *bool    `json:"identity_verified,omitempty"`
	FlaggedAddresses    []string `json:"flagged_addresses,omitempty"`
	UnavailableSources  []string `json:"unavailable_sources,omitempty"`
}

// FromDecision converts an engine decision to an HTTP response.
func FromDecision(decision *engine.Decision) *CheckResponse {
	flagged := make([]string, 0, len(decision.Evidence.FlaggedAddresses))
	for _, addr := range decision.Evidence.FlaggedAddresses {
		flagged = append(flagged, addr.Hex())
	}

	return &CheckResponse{
		Allowed:     decision.Allowed,
		Reason:      string(decision.Reason),
		Mode:        string(decision.Mode),
		EvaluatedAt: decision.EvaluatedAt,
		Evidence: EvidenceResponse{
			CertificateVerified: decision.Evidence.CertificateVerified,
			IdentityVerified:    decision.Evidence.IdentityVerified,
			FlaggedAddresses:    flagged,
			UnavailableSources:  decision.Evidence.UnavailableSources,
		},
	}
}
