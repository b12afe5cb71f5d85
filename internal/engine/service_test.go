package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"trustline/internal/certificate"
	"trustline/internal/engine"
	"trustline/internal/engine/ports/mocks"
	"trustline/internal/policy/models"
	"trustline/internal/sanctions"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
)

var (
	sender  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	subject = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type engineMocks struct {
	policies     *mocks.MockPolicyResolver
	certificates *mocks.MockCertificateVerifier
	sanctions    *mocks.MockSanctionsAggregator
	identity     *mocks.MockIdentityRegistry
}

func newEngine(t *testing.T) (*engine.Service, engineMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := engineMocks{
		policies:     mocks.NewMockPolicyResolver(ctrl),
		certificates: mocks.NewMockCertificateVerifier(ctrl),
		sanctions:    mocks.NewMockSanctionsAggregator(ctrl),
		identity:     mocks.NewMockIdentityRegistry(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := engine.NewService(m.policies, m.certificates, m.sanctions, m.identity, nil, logger, nil)
	return svc, m
}

func evaluateRequest(mode domain.Mode, cert *certificate.Certificate) engine.EvaluateRequest {
	return engine.EvaluateRequest{
		Request: domain.ValidationRequest{
			Sender:           sender,
			Value:            big.NewInt(100),
			Payload:          []byte("calldata"),
			SubjectAddresses: []common.Address{subject},
			Mode:             mode,
		},
		Certificate: cert,
	}
}

func cleanResult(addrs ...common.Address) sanctions.Result {
	result := sanctions.Result{
		Flagged:   make(map[common.Address]bool),
		Confirmed: make(map[common.Address]bool),
	}
	for _, addr := range addrs {
		result.Flagged[addr] = false
	}
	return result
}

func policyFor(mode domain.Mode) *models.Policy {
	return &models.Policy{Client: sender, Mode: mode}
}

func TestService_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("allows a clean request", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().
			Aggregate(gomock.Any(), []common.Address{sender, subject}, gomock.Nil()).
			Return(cleanResult(sender, subject), nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, engine.ReasonAllChecksPassed, decision.Reason)
		assert.Equal(t, domain.ModeDapp, decision.Mode)
	})

	t.Run("denies a sanctioned sender", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		result := cleanResult(sender, subject)
		result.Flagged[sender] = true
		result.Confirmed[sender] = true

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(result, nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, engine.ReasonSanctioned, decision.Reason)
		assert.Equal(t, []common.Address{sender}, decision.Evidence.FlaggedAddresses)
	})

	t.Run("fail-closed flags deny as source unavailability", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		result := cleanResult(sender, subject)
		result.Flagged[sender] = true
		result.Flagged[subject] = true
		result.Unavailable = []string{"ofac"}

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(result, nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, engine.ReasonSourceUnavailable, decision.Reason)
		assert.Equal(t, []string{"ofac"}, decision.Evidence.UnavailableSources)
	})

	t.Run("denies a missing required certificate", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeMorphoV2, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeMorphoV2), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, engine.ReasonCertificateMissing, decision.Reason)
	})

	t.Run("denies a rejected certificate", func(t *testing.T) {
		svc, m := newEngine(t)
		cert := &certificate.Certificate{Subject: sender}
		req := evaluateRequest(domain.ModeMorphoV2, cert)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeMorphoV2), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)
		m.certificates.EXPECT().
			Verify(gomock.Any(), *cert, req.Request).
			Return(nil, dErrors.New(dErrors.CodeExpired, "certificate expired"))

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, engine.ReasonCertificateInvalid, decision.Reason)
		if assert.NotNil(t, decision.Evidence.CertificateVerified) {
			assert.False(t, *decision.Evidence.CertificateVerified)
		}
	})

	t.Run("allows a valid certificate", func(t *testing.T) {
		svc, m := newEngine(t)
		cert := &certificate.Certificate{Subject: sender}
		req := evaluateRequest(domain.ModeMorphoV2, cert)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeMorphoV2), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)
		m.certificates.EXPECT().
			Verify(gomock.Any(), *cert, req.Request).
			Return(&certificate.VerifiedClaim{Subject: sender}, nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("denies an unverified identity under erc3643", func(t *testing.T) {
		svc, m := newEngine(t)
		cert := &certificate.Certificate{Subject: sender}
		req := evaluateRequest(domain.ModeERC3643, cert)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeERC3643), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)
		m.certificates.EXPECT().Verify(gomock.Any(), *cert, req.Request).Return(&certificate.VerifiedClaim{}, nil)
		m.identity.EXPECT().Verified(gomock.Any(), sender).Return(false, nil)

		decision, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, engine.ReasonIdentityUnverified, decision.Reason)
		if assert.NotNil(t, decision.Evidence.IdentityVerified) {
			assert.False(t, *decision.Evidence.IdentityVerified)
		}
	})

	t.Run("uses the policy's sanction sources", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		policy := policyFor(domain.ModeDapp)
		policy.SanctionSources = []string{"ofac"}

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policy, nil)
		m.sanctions.EXPECT().
			Aggregate(gomock.Any(), gomock.Any(), []string{"ofac"}).
			Return(cleanResult(sender, subject), nil)

		_, err := svc.Evaluate(ctx, req)
		require.NoError(t, err)
	})

	t.Run("rejects an invalid request before resolving policy", func(t *testing.T) {
		svc, _ := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)
		req.Request.Sender = common.Address{}

		_, err := svc.Evaluate(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("policy resolution failures surface as internal errors", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(nil, errors.New("store down"))

		_, err := svc.Evaluate(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("sanctions infrastructure failures abort the decision", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(sanctions.Result{}, errors.New("aggregation broke"))

		_, err := svc.Evaluate(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("stamps the decision with the request time", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)

		decision, err := svc.Evaluate(requestcontext.WithTime(ctx, now), req)
		require.NoError(t, err)
		assert.Equal(t, now, decision.EvaluatedAt)
	})
}

func TestService_CheckTrustlineStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors the decision", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)

		assert.True(t, svc.CheckTrustlineStatus(ctx, req))
	})

	t.Run("collapses evaluation failures to false", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(nil, errors.New("store down"))

		assert.False(t, svc.CheckTrustlineStatus(ctx, req))
	})
}

func TestService_RequireTrustline(t *testing.T) {
	ctx := context.Background()

	t.Run("passes an allowed decision through", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeDapp, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)

		decision, err := svc.RequireTrustline(ctx, req)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("denials map to coded errors", func(t *testing.T) {
		tests := []struct {
			name     string
			result   func() sanctions.Result
			wantCode dErrors.Code
		}{
			{
				name: "sanctioned",
				result: func() sanctions.Result {
					r := cleanResult(sender, subject)
					r.Flagged[sender] = true
					r.Confirmed[sender] = true
					return r
				},
				wantCode: dErrors.CodeForbidden,
			},
			{
				name: "source unavailable",
				result: func() sanctions.Result {
					r := cleanResult(sender, subject)
					r.Flagged[sender] = true
					r.Unavailable = []string{"ofac"}
					return r
				},
				wantCode: dErrors.CodeSourceUnavailable,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, m := newEngine(t)
				req := evaluateRequest(domain.ModeDapp, nil)

				m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeDapp), nil)
				m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.result(), nil)

				decision, err := svc.RequireTrustline(ctx, req)
				assert.True(t, dErrors.HasCode(err, tt.wantCode))
				require.NotNil(t, decision, "denials still carry the decision")
				assert.False(t, decision.Allowed)
			})
		}
	})

	t.Run("a missing certificate is forbidden", func(t *testing.T) {
		svc, m := newEngine(t)
		req := evaluateRequest(domain.ModeMorphoV2, nil)

		m.policies.EXPECT().Resolve(gomock.Any(), sender).Return(policyFor(domain.ModeMorphoV2), nil)
		m.sanctions.EXPECT().Aggregate(gomock.Any(), gomock.Any(), gomock.Any()).Return(cleanResult(sender, subject), nil)

		_, err := svc.RequireTrustline(ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
