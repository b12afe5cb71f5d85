// Package models holds the policy registry's domain types.
package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/pkg/domain"
)

// Policy is a client contract's validation configuration. One policy per
// client address; registration supersedes, never deletes.
type Policy struct {
	Client common.Address

	// Mode fixes the baseline checks for the integration profile.
	Mode domain.Mode

	// RequiredChecks adds checks beyond the mode baseline. The effective
	// set is the union; a policy can tighten but never loosen its mode.
	RequiredChecks []domain.CheckKind

	// SanctionSources lists the oracle source IDs to screen against, in
	// priority order. Empty means every registered source.
	SanctionSources []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPolicy validates and constructs a policy.
func NewPolicy(client common.Address, mode domain.Mode, checks []domain.CheckKind, sources []string, now time.Time) (*Policy, error) {
	if client == (common.Address{}) {
		return nil, fmt.Errorf("client address is required")
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	for _, check := range checks {
		switch check {
		case domain.CheckCertificate, domain.CheckSanctions, domain.CheckIdentityRegistry:
		default:
			return nil, fmt.Errorf("unknown check %q", check)
		}
	}

	return &Policy{
		Client:          client,
		Mode:            mode,
		RequiredChecks:  checks,
		SanctionSources: sources,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// DefaultPolicy is the engine-wide fallback for unregistered clients. A nil
// default turns unregistered clients into denies.
func DefaultPolicy(mode domain.Mode) *Policy {
	return &Policy{Mode: mode}
}

// EffectiveChecks returns the union of the mode baseline and the policy's
// additional checks, baseline first, without duplicates.
func (p *Policy) EffectiveChecks() []domain.CheckKind {
	seen := make(map[domain.CheckKind]struct{})
	var out []domain.CheckKind
	for _, check := range append(p.Mode.RequiredChecks(), p.RequiredChecks...) {
		if _, ok := seen[check]; ok {
			continue
		}
		seen[check] = struct{}{}
		out = append(out, check)
	}
	return out
}

// Requires reports whether the effective check set contains the given check.
func (p *Policy) Requires(check domain.CheckKind) bool {
	for _, c := range p.EffectiveChecks() {
		if c == check {
			return true
		}
	}
	return false
}
