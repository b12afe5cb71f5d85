package certificate

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"trustline/internal/certificate/metrics"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

// personalSignPrefix is the EIP-191 prefix for a 32-byte message.
const personalSignPrefix = "\x19Ethereum Signed Message:\n32"

// SignatureLength is the size of a secp256k1 signature in r ‖ s ‖ v form.
const SignatureLength = 65

// NonceStore tracks consumed certificate IDs. Certificates are single-use:
// MarkUsed must be atomic check-and-set, returning sentinel.ErrAlreadyUsed
// when the ID was seen before.
type NonceStore interface {
	MarkUsed(ctx context.Context, id common.Hash, ttl time.Duration) error
}

// Verifier checks certificate authenticity, freshness, and request binding
// against a ring of registered issuer keys.
type Verifier struct {
	issuers *IssuerRing
	nonces  NonceStore
	maxTTL  time.Duration
	metrics *metrics.Metrics
}

// NewVerifier constructs a certificate verifier. maxTTL caps how far in the
// future a certificate may expire; zero disables the cap. A nil nonce store
// disables replay tracking, which is only acceptable in tests.
func NewVerifier(issuers *IssuerRing, nonces NonceStore, maxTTL time.Duration, m *metrics.Metrics) *Verifier {
	return &Verifier{issuers: issuers, nonces: nonces, maxTTL: maxTTL, metrics: m}
}

// Verify checks a certificate against the current request. The checks run in
// a fixed order so failures are deterministic: binding, expiry, signature,
// replay. Verification has no side effect beyond consuming the nonce.
func (v *Verifier) Verify(ctx context.Context, cert Certificate, req domain.ValidationRequest) (*VerifiedClaim, error) {
	now := requestcontext.Now(ctx)

	if cert.RequestHash != req.Digest() {
		v.metrics.RecordFailure("subject_mismatch")
		return nil, dErrors.New(dErrors.CodeSubjectMismatch, "certificate is bound to a different request")
	}
	if cert.Subject != req.Sender {
		v.metrics.RecordFailure("subject_mismatch")
		return nil, dErrors.New(dErrors.CodeSubjectMismatch, "certificate subject does not match request sender")
	}

	if !cert.Expiry.After(now) {
		v.metrics.RecordFailure("expired")
		return nil, dErrors.Newf(dErrors.CodeExpired, "certificate expired at %s", cert.Expiry.UTC().Format(time.RFC3339))
	}
	if v.maxTTL > 0 && cert.Expiry.After(now.Add(v.maxTTL)) {
		v.metrics.RecordFailure("lifetime_exceeded")
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "certificate lifetime exceeds the %s maximum", v.maxTTL)
	}

	issuer, err := v.recoverIssuer(cert)
	if err != nil {
		v.metrics.RecordFailure("bad_signature")
		return nil, err
	}

	if v.nonces != nil {
		// TTL matches remaining validity so the store can expire entries
		// the moment they stop mattering.
		if err := v.nonces.MarkUsed(ctx, cert.ID(), cert.Expiry.Sub(now)); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				v.metrics.RecordFailure("replayed")
				return nil, dErrors.New(dErrors.CodeReplayed, "certificate has already been consumed")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "nonce store failed")
		}
	}

	v.metrics.RecordSuccess()
	return &VerifiedClaim{
		Issuer:      issuer,
		Subject:     cert.Subject,
		RequestHash: cert.RequestHash,
		Expiry:      cert.Expiry,
		VerifiedAt:  now,
	}, nil
}

// recoverIssuer recovers the signer address and checks it against the ring.
func (v *Verifier) recoverIssuer(cert Certificate) (common.Address, error) {
	if len(cert.Signature) != SignatureLength {
		return common.Address{}, dErrors.Newf(dErrors.CodeBadSignature, "signature must be %d bytes, got %d", SignatureLength, len(cert.Signature))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, cert.Signature)
	// Accept both raw recovery ids (0/1) and the 27/28 convention used by
	// eth_sign style tooling.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(cert.SigningDigest().Bytes(), sig)
	if err != nil {
		return common.Address{}, dErrors.Wrap(err, dErrors.CodeBadSignature, "signature recovery failed")
	}

	issuer := crypto.PubkeyToAddress(*pub)
	if !v.issuers.Contains(issuer) {
		return common.Address{}, dErrors.Newf(dErrors.CodeBadSignature, "signer %s is not a registered issuer", issuer.Hex())
	}
	return issuer, nil
}

func expiryWord(t time.Time) *big.Int {
	return big.NewInt(t.Unix())
}

// Sign produces a certificate signature with the given issuer key. It lives
// next to Verify so the digest layout has a single owner; production issuance
// happens in the oracle backend, this is used by local tooling and tests.
func Sign(cert Certificate, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(cert.SigningDigest().Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("sign certificate: %w", err)
	}
	return sig, nil
}
