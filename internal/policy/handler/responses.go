package handler

import (
	"time"

	"trustline/internal/policy/models"
)

// PolicyResponse is the HTTP representation of a registered policy.
type PolicyResponse struct {
	Client          string    `json:"client"`
	Mode            string    `json:"mode"`
	RequiredChecks  []string  `json:"required_checks"`
	SanctionSources []string  `json:"sanction_sources"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromPolicy converts a policy to its HTTP representation. The checks shown
// are the effective set, baseline included.
func FromPolicy(policy *models.Policy) *PolicyResponse {
	checks := policy.EffectiveChecks()
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = string(c)
	}

	sources := policy.SanctionSources
	if sources == nil {
		sources = []string{}
	}

	return &PolicyResponse{
		Client:          policy.Client.Hex(),
		Mode:            string(policy.Mode),
		RequiredChecks:  out,
		SanctionSources: sources,
		CreatedAt:       policy.CreatedAt,
		UpdatedAt:       policy.UpdatedAt,
	}
}
