// Package engine decides whether a transaction request is authorized. It
// resolves the client's policy, gathers certificate, sanctions, and identity
// evidence in parallel, and applies a fixed rule chain to produce an
// allow/deny decision.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustline/internal/audit"
	"trustline/internal/engine/metrics"
	"trustline/internal/engine/ports"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
)

const defaultEvidenceTimeout = 5 * time.Second

// Service orchestrates one decision end to end.
type Service struct {
	policies     ports.PolicyResolver
	certificates ports.CertificateVerifier
	sanctions    ports.SanctionsAggregator
	identity     ports.IdentityRegistry

	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	evidenceTimeout time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithEvidenceTimeout bounds how long one decision may spend gathering
// evidence.
func WithEvidenceTimeout(d time.Duration) Option {
	return func(s *Service) { s.evidenceTimeout = d }
}

// NewService constructs the engine. The identity registry may be nil when no
// mode in the deployment requires identity checks; a required identity check
// with a nil registry denies.
func NewService(
	policies ports.PolicyResolver,
	certificates ports.CertificateVerifier,
	sanctions ports.SanctionsAggregator,
	identity ports.IdentityRegistry,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts ...Option,
) *Service {
	s := &Service{
		policies:        policies,
		certificates:    certificates,
		sanctions:       sanctions,
		identity:        identity,
		auditor:         auditor,
		logger:          logger,
		metrics:         m,
		tracer:          otel.Tracer("trustline/engine"),
		evidenceTimeout: defaultEvidenceTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate produces a full decision. Denials are decisions, not errors;
// Evaluate returns an error only when the engine itself could not run
// (invalid request, evidence infrastructure down).
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*Decision, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Evaluate",
		trace.WithAttributes(
			attribute.String("trustline.sender", req.Request.Sender.Hex()),
			attribute.String("trustline.mode", string(req.Request.Mode)),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	if err := req.Request.Validate(); err != nil {
		return nil, err
	}

	policy, err := s.policies.Resolve(ctx, req.Request.Sender)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy resolution failed")
	}

	evidence, err := s.gatherEvidence(ctx, policy, req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "evidence gathering failed")
	}

	allowed, reason := evaluate(policy, req, evidence)
	decision := buildDecision(policy, allowed, reason, evidence, requestcontext.Now(ctx))

	span.SetAttributes(
		attribute.Bool("trustline.allowed", decision.Allowed),
		attribute.String("trustline.reason", string(decision.Reason)),
	)
	s.metrics.RecordDecision(decision.Allowed, string(decision.Reason))
	s.auditor.EmitDecision(ctx, req.Request.Sender, policy.Mode, decision.Allowed, string(decision.Reason))

	s.logger.InfoContext(ctx, "decision evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"sender", req.Request.Sender,
		"mode", policy.Mode,
		"allowed", decision.Allowed,
		"reason", decision.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return decision, nil
}

// CheckTrustlineStatus answers the boolean probe. Any failure to evaluate
// collapses to false: a caller that cannot be screened is not authorized.
func (s *Service) CheckTrustlineStatus(ctx context.Context, req EvaluateRequest) bool {
	decision, err := s.Evaluate(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "status check degraded to deny",
			"request_id", requestcontext.RequestID(ctx),
			"sender", req.Request.Sender,
			"error", err,
		)
		return false
	}
	return decision.Allowed
}

// RequireTrustline evaluates and turns a denial into a coded error, so
// callers enforcing authorization inline get the precise refusal cause.
func (s *Service) RequireTrustline(ctx context.Context, req EvaluateRequest) (*Decision, error) {
	decision, err := s.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return decision, denialError(decision.Reason)
	}
	return decision, nil
}

// denialError maps a deny reason onto the error taxonomy.
func denialError(reason Reason) error {
	switch reason {
	case ReasonSanctioned:
		return dErrors.New(dErrors.CodeForbidden, "address is sanctioned")
	case ReasonSourceUnavailable:
		return dErrors.New(dErrors.CodeSourceUnavailable, "sanction source unavailable")
	case ReasonCertificateMissing:
		return dErrors.New(dErrors.CodeForbidden, "authorization certificate required")
	case ReasonCertificateInvalid:
		return dErrors.New(dErrors.CodeForbidden, "authorization certificate rejected")
	case ReasonIdentityUnverified:
		return dErrors.New(dErrors.CodeForbidden, "sender identity is not verified")
	default:
		return dErrors.New(dErrors.CodeForbidden, "transaction not authorized")
	}
}
