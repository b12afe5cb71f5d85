// Package codereader answers whether an address holds deployed contract
// code. The instance service uses it to reject logic upgrades pointing at
// externally owned accounts or empty addresses.
package codereader

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Reader reports the deployed code at an address.
type Reader interface {
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
}

// ethCodeReader is the subset of ethclient.Client the RPC reader needs.
type ethCodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// RPC reads code from an Ethereum node at the latest block.
type RPC struct {
	client ethCodeReader
}

// NewRPC wraps an Ethereum RPC client.
func NewRPC(client ethCodeReader) *RPC {
	return &RPC{client: client}
}

func (r *RPC) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	code, err := r.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("code at %s: %w", addr, err)
	}
	return code, nil
}

// Static is a fixture reader for development and tests. With registered
// addresses it answers empty code for everything else; constructed empty it
// treats every address as deployed, so a deployment without an Ethereum RPC
// can still bootstrap instances.
type Static struct {
	mu       sync.RWMutex
	code     map[common.Address][]byte
	allowAll bool
}

// NewStatic builds a reader treating the given addresses as deployed
// contracts with a one-byte code stub. No addresses means allow-all.
func NewStatic(contracts ...common.Address) *Static {
	code := make(map[common.Address][]byte, len(contracts))
	for _, addr := range contracts {
		code[addr] = []byte{0xfe}
	}
	return &Static{code: code, allowAll: len(contracts) == 0}
}

func (r *Static) CodeAt(_ context.Context, addr common.Address) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if code, ok := r.code[addr]; ok {
		return code, nil
	}
	if r.allowAll {
		return []byte{0xfe}, nil
	}
	return nil, nil
}

// SetCode registers code at an address. Test helper.
func (r *Static) SetCode(addr common.Address, code []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code[addr] = code
}
