package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"trustline/internal/policy/models"
	"trustline/pkg/domain"
)

// gatherEvidence orchestrates parallel evidence gathering with shared context
// cancellation. Only checks the resolved policy requires are fetched.
//
// Certificate failures are evidence, not errors: they land in
// evidence.certErr so the rules can deny with a precise reason. Only
// infrastructure faults (sanctions aggregation, identity RPC) abort the
// gather.
func (s *Service) gatherEvidence(ctx context.Context, policy *models.Policy, req EvaluateRequest) (*gatheredEvidence, error) {
	ctx, cancel := context.WithTimeout(ctx, s.evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	evidence := &gatheredEvidence{
		fetchedAt: time.Now(),
	}

	// Sanctions screening always runs: every mode's baseline includes it.
	g.Go(func() error {
		start := time.Now()
		result, err := s.sanctions.Aggregate(ctx, req.Request.ScreeningSet(), policy.SanctionSources)
		evidence.latencies.sanctions = time.Since(start)
		s.metrics.ObserveEvidenceLatency("sanctions", evidence.latencies.sanctions)

		if err != nil {
			return err
		}
		evidence.sanctioned = result.AnySanctioned()
		evidence.confirmedHit = result.AnyConfirmed()
		evidence.flagged = result.FlaggedAddresses()
		evidence.unavailable = result.Unavailable
		return nil
	})

	if policy.Requires(domain.CheckCertificate) && req.Certificate != nil {
		g.Go(func() error {
			start := time.Now()
			claim, err := s.certificates.Verify(ctx, *req.Certificate, req.Request)
			evidence.latencies.certificate = time.Since(start)
			s.metrics.ObserveEvidenceLatency("certificate", evidence.latencies.certificate)

			// A rejected certificate is a deny reason, not a gather
			// failure.
			if err != nil {
				s.logger.DebugContext(ctx, "certificate rejected",
					"sender", req.Request.Sender,
					"error", err,
				)
				evidence.certErr = err
				return nil
			}
			evidence.claim = claim
			return nil
		})
	}

	// With no registry configured, identityOK stays nil and the rules deny.
	if policy.Requires(domain.CheckIdentityRegistry) && s.identity != nil {
		g.Go(func() error {
			start := time.Now()
			verified, err := s.identity.Verified(ctx, req.Request.Sender)
			evidence.latencies.identity = time.Since(start)
			s.metrics.ObserveEvidenceLatency("identity", evidence.latencies.identity)

			if err != nil {
				return err
			}
			evidence.identityOK = &verified
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return evidence, nil
}
