// Package sources holds the sanction-list oracle bindings the aggregator
// queries: on-chain contract reads, attested off-chain oracles, and static
// fixtures.
package sources

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"trustline/internal/sanctions"
)

// isSanctionedSelector is the 4-byte selector of `isSanctioned(address)`,
// the read method exposed by Chainalysis-style sanction oracle contracts.
var isSanctionedSelector = crypto.Keccak256([]byte("isSanctioned(address)"))[:4]

// ContractCaller is the subset of ethclient.Client the on-chain source needs.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// OnChain reads a sanction oracle contract synchronously at the latest block.
type OnChain struct {
	id       string
	caller   ContractCaller
	contract common.Address
}

// NewOnChain binds a source ID to an oracle contract address.
func NewOnChain(id string, caller ContractCaller, contract common.Address) *OnChain {
	return &OnChain{id: id, caller: caller, contract: contract}
}

func (s *OnChain) ID() string { return s.id }

// Check performs an eth_call against the oracle contract. Any RPC failure or
// malformed return surfaces as an error so the aggregator's strictness policy
// applies.
func (s *OnChain) Check(ctx context.Context, addr common.Address) (sanctions.Verdict, error) {
	data := make([]byte, 0, 4+common.HashLength)
	data = append(data, isSanctionedSelector...)
	data = append(data, common.LeftPadBytes(addr.Bytes(), common.HashLength)...)

	ret, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.contract, Data: data}, nil)
	if err != nil {
		return sanctions.Verdict{}, fmt.Errorf("oracle call %s: %w", s.id, err)
	}
	if len(ret) != common.HashLength {
		return sanctions.Verdict{}, fmt.Errorf("oracle %s returned %d bytes, want %d", s.id, len(ret), common.HashLength)
	}

	return sanctions.Verdict{
		Address:    addr,
		Sanctioned: ret[common.HashLength-1] == 1,
		Source:     s.id,
		AsOf:       time.Now(),
	}, nil
}
