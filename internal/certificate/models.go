// Package certificate validates signed oracle attestations. A certificate is
// issued off-chain by the oracle backend, bound to one ValidationRequest
// digest, and consumed exactly once.
package certificate

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Certificate is a signed attestation from the oracle backend. The signature
// covers the request digest under the EIP-191 personal-sign prefix, so the
// issuer is recovered from the signature rather than carried as a trusted
// field.
type Certificate struct {
	// Subject is the client contract the attestation was issued for.
	Subject common.Address

	// RequestHash binds the certificate to one request digest.
	RequestHash common.Hash

	// Expiry is the instant the certificate stops being acceptable.
	Expiry time.Time

	// Signature is the 65-byte secp256k1 signature (r ‖ s ‖ v) over the
	// signing digest.
	Signature []byte

	// Payload carries opaque oracle verification data. The verifier hashes
	// it into the signing digest but never interprets it.
	Payload []byte
}

// SigningDigest is the message the issuer actually signs: the request hash,
// subject, expiry, and payload hash under the EIP-191 prefix. Including the
// expiry stops a third party from extending a certificate's lifetime.
func (c Certificate) SigningDigest() common.Hash {
	buf := make([]byte, 0, common.HashLength*2+common.AddressLength+8)
	buf = append(buf, c.RequestHash.Bytes()...)
	buf = append(buf, c.Subject.Bytes()...)
	buf = append(buf, common.BigToHash(expiryWord(c.Expiry)).Bytes()...)
	buf = append(buf, crypto.Keccak256(c.Payload)...)

	msg := crypto.Keccak256(buf)
	return crypto.Keccak256Hash([]byte(personalSignPrefix), msg)
}

// ID identifies a certificate for replay tracking. Two certificates with the
// same signature are the same certificate.
func (c Certificate) ID() common.Hash {
	return crypto.Keccak256Hash(c.Signature)
}

// VerifiedClaim is the outcome of a successful verification.
type VerifiedClaim struct {
	Issuer      common.Address
	Subject     common.Address
	RequestHash common.Hash
	Expiry      time.Time
	VerifiedAt  time.Time
}
