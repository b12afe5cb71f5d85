// Package identity answers ERC-3643 identity-registry checks: whether an
// address holds a verified on-chain identity.
package identity

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// isVerifiedSelector is the 4-byte selector of `isVerified(address)` from the
// ERC-3643 identity registry interface.
var isVerifiedSelector = crypto.Keccak256([]byte("isVerified(address)"))[:4]

// ContractCaller is the subset of ethclient.Client the registry needs.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// OnChain reads an ERC-3643 identity registry contract.
type OnChain struct {
	caller   ContractCaller
	contract common.Address
}

// NewOnChain binds the registry to its contract address.
func NewOnChain(caller ContractCaller, contract common.Address) *OnChain {
	return &OnChain{caller: caller, contract: contract}
}

// Verified reports whether the address holds a verified identity.
func (r *OnChain) Verified(ctx context.Context, addr common.Address) (bool, error) {
	data := make([]byte, 0, 4+common.HashLength)
	data = append(data, isVerifiedSelector...)
	data = append(data, common.LeftPadBytes(addr.Bytes(), common.HashLength)...)

	ret, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("identity registry call: %w", err)
	}
	if len(ret) != common.HashLength {
		return false, fmt.Errorf("identity registry returned %d bytes, want %d", len(ret), common.HashLength)
	}
	return ret[common.HashLength-1] == 1, nil
}

// Static is a fixture registry for development and tests.
type Static struct {
	mu       sync.RWMutex
	verified map[common.Address]struct{}
}

// NewStatic builds a registry treating exactly the given addresses as
// verified.
func NewStatic(verified ...common.Address) *Static {
	set := make(map[common.Address]struct{}, len(verified))
	for _, addr := range verified {
		set[addr] = struct{}{}
	}
	return &Static{verified: set}
}

func (r *Static) Verified(_ context.Context, addr common.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.verified[addr]
	return ok, nil
}

// Add marks an address verified. Test helper.
func (r *Static) Add(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified[addr] = struct{}{}
}
