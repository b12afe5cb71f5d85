// Package service orchestrates policy registration and lookup. Whether an
// existing policy may be overwritten is fixed at construction from deployment
// configuration and enforced here, not in the stores.
package service

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/audit"
	policymetrics "trustline/internal/policy/metrics"
	"trustline/internal/policy/models"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

// Store is the persistence port for policies.
type Store interface {
	Create(ctx context.Context, policy *models.Policy) error
	Upsert(ctx context.Context, policy *models.Policy) error
	Find(ctx context.Context, client common.Address) (*models.Policy, error)
}

// Service is the policy registry.
type Service struct {
	store          Store
	allowOverwrite bool
	defaultPolicy  *models.Policy
	auditor        *audit.Publisher
	metrics        *policymetrics.Metrics
}

// New constructs the registry. defaultMode == "" disables the default policy,
// making unregistered clients a conservative deny at decision time.
func New(store Store, allowOverwrite bool, defaultMode domain.Mode, auditor *audit.Publisher, m *policymetrics.Metrics) *Service {
	var def *models.Policy
	if defaultMode != "" {
		def = models.DefaultPolicy(defaultMode)
	}
	return &Service{
		store:          store,
		allowOverwrite: allowOverwrite,
		defaultPolicy:  def,
		auditor:        auditor,
		metrics:        m,
	}
}

// Register stores a client policy. Under the no-overwrite rule a second
// registration fails with already_registered; under overwrite the new policy
// is immediately visible to subsequent decisions.
func (s *Service) Register(ctx context.Context, client common.Address, mode domain.Mode, checks []domain.CheckKind, sources []string) (*models.Policy, error) {
	policy, err := models.NewPolicy(client, mode, checks, sources, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid policy")
	}

	if s.allowOverwrite {
		if err := s.store.Upsert(ctx, policy); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store policy")
		}
		s.metrics.RecordRegistration("updated")
	} else {
		if err := s.store.Create(ctx, policy); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				s.metrics.RecordRegistration("conflict")
				return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "client already has a registered policy")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store policy")
		}
		s.metrics.RecordRegistration("created")
	}

	s.auditor.EmitPolicyRegistered(ctx, client, mode)
	return policy, nil
}

// Get returns the client's registered policy. Unregistered clients are the
// only failure case; callers decide whether the default applies.
func (s *Service) Get(ctx context.Context, client common.Address) (*models.Policy, error) {
	policy, err := s.store.Find(ctx, client)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordLookup("missing")
			return nil, dErrors.New(dErrors.CodeNotRegistered, "client has no registered policy")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy lookup failed")
	}
	s.metrics.RecordLookup("found")
	return policy, nil
}

// Resolve returns the policy a decision should run under: the registered one,
// or the deployment default for unregistered clients. not_registered escapes
// only when no default is configured.
func (s *Service) Resolve(ctx context.Context, client common.Address) (*models.Policy, error) {
	policy, err := s.Get(ctx, client)
	if err == nil {
		return policy, nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotRegistered) && s.defaultPolicy != nil {
		s.metrics.RecordLookup("default")
		def := *s.defaultPolicy
		def.Client = client
		return &def, nil
	}
	return nil, err
}
