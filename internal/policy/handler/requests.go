package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	pkgstrings "trustline/pkg/platform/strings"
)

// RegisterRequest is the HTTP request body for POST /v1/policies.
type RegisterRequest struct {
	Client          string   `json:"client"`
	Mode            string   `json:"mode"`
	RequiredChecks  []string `json:"required_checks,omitempty"`
	SanctionSources []string `json:"sanction_sources,omitempty"`

	// Parsed values (populated by Validate)
	parsedClient common.Address
	parsedMode   domain.Mode
	parsedChecks []domain.CheckKind
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Client = strings.TrimSpace(r.Client)
	if !common.IsHexAddress(r.Client) {
		return dErrors.New(dErrors.CodeBadRequest, "client must be a hex address")
	}
	r.parsedClient = common.HexToAddress(r.Client)

	mode, err := domain.ParseMode(r.Mode)
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown mode %q", r.Mode)
	}
	r.parsedMode = mode

	r.parsedChecks = make([]domain.CheckKind, 0, len(r.RequiredChecks))
	for _, raw := range r.RequiredChecks {
		check := domain.CheckKind(strings.TrimSpace(raw))
		switch check {
		case domain.CheckCertificate, domain.CheckSanctions, domain.CheckIdentityRegistry:
			r.parsedChecks = append(r.parsedChecks, check)
		default:
			return dErrors.Newf(dErrors.CodeBadRequest, "unknown check %q", raw)
		}
	}

	r.SanctionSources = pkgstrings.DedupeAndTrim(r.SanctionSources)

	return nil
}

// ParsedClient returns the validated client address.
func (r *RegisterRequest) ParsedClient() common.Address {
	return r.parsedClient
}

// ParsedMode returns the validated mode.
func (r *RegisterRequest) ParsedMode() domain.Mode {
	return r.parsedMode
}

// ParsedChecks returns the validated extra checks.
func (r *RegisterRequest) ParsedChecks() []domain.CheckKind {
	return r.parsedChecks
}
