package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "trustline/pkg/domain-errors"
)

// ValidationRequest carries the transaction metadata a client contract
// forwards for validation. It is immutable once constructed and lives only
// for the duration of one decision.
type ValidationRequest struct {
	Sender           common.Address
	Value            *big.Int
	Payload          []byte
	SubjectAddresses []common.Address
	Mode             Mode
}

// Validate rejects requests the engine cannot decide on.
func (r ValidationRequest) Validate() error {
	if r.Sender == (common.Address{}) {
		return dErrors.New(dErrors.CodeBadRequest, "sender address is required")
	}
	if r.Value != nil && r.Value.Sign() < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "value must not be negative")
	}
	if !r.Mode.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown mode %q", r.Mode)
	}
	return nil
}

// ScreeningSet returns every address the sanctions check applies to: the
// subject addresses in order, with the sender prepended. Duplicates are
// dropped so each address is screened once.
func (r ValidationRequest) ScreeningSet() []common.Address {
	seen := make(map[common.Address]struct{}, len(r.SubjectAddresses)+1)
	out := make([]common.Address, 0, len(r.SubjectAddresses)+1)
	for _, addr := range append([]common.Address{r.Sender}, r.SubjectAddresses...) {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// Digest computes the keccak256 hash that binds a certificate to this exact
// request: sender, value, payload hash, subject addresses in order, and mode.
// Certificates signed over a different digest fail the subject check, which
// is what prevents reuse across unrelated calls.
func (r ValidationRequest) Digest() common.Hash {
	value := r.Value
	if value == nil {
		value = new(big.Int)
	}

	buf := make([]byte, 0, common.AddressLength+32+common.HashLength*(len(r.SubjectAddresses)+1)+len(r.Mode))
	buf = append(buf, r.Sender.Bytes()...)
	buf = append(buf, common.BigToHash(value).Bytes()...)
	buf = append(buf, crypto.Keccak256(r.Payload)...)
	for _, addr := range r.SubjectAddresses {
		buf = append(buf, addr.Bytes()...)
	}
	buf = append(buf, []byte(r.Mode)...)

	return crypto.Keccak256Hash(buf)
}
