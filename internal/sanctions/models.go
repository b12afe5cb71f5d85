// Package sanctions merges verdicts from multiple sanction-list oracles into
// one per-address answer. Merging is OR semantics: any source flagging an
// address is enough to deny.
package sanctions

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Verdict is one source's answer for one address.
type Verdict struct {
	Address    common.Address
	Sanctioned bool
	Source     string
	AsOf       time.Time
}

// Source is a single sanction-list oracle. Implementations may read on-chain
// state synchronously or call an off-chain oracle that returns a signed
// response; the aggregator treats both uniformly.
type Source interface {
	// ID returns the stable identifier policies reference this source by.
	ID() string

	// Check answers whether the address is sanctioned according to this
	// source. Blocking, bounded by the caller's context deadline.
	Check(ctx context.Context, addr common.Address) (Verdict, error)
}

// Result is the merged outcome of one aggregation.
type Result struct {
	// Flagged holds the per-address merged verdict for every screened
	// address, including addresses no source flagged.
	Flagged map[common.Address]bool

	// Confirmed holds the addresses an answering source actually flagged.
	// Flagged minus Confirmed is what fail-closed strictness added for
	// unavailable sources; the engine reports those denials differently.
	Confirmed map[common.Address]bool

	// Unavailable lists sources that could not answer, in source order.
	// Under fail-open strictness their addresses stay unflagged; under
	// fail-closed the aggregator has already marked them sanctioned.
	Unavailable []string
}

// AnySanctioned reports whether any screened address was flagged.
func (r Result) AnySanctioned() bool {
	for _, flagged := range r.Flagged {
		if flagged {
			return true
		}
	}
	return false
}

// AnyConfirmed reports whether an answering source flagged any address, as
// opposed to a flag synthesized by fail-closed strictness.
func (r Result) AnyConfirmed() bool {
	for _, flagged := range r.Confirmed {
		if flagged {
			return true
		}
	}
	return false
}

// FlaggedAddresses returns the flagged addresses for logging and audit.
func (r Result) FlaggedAddresses() []common.Address {
	var out []common.Address
	for addr, flagged := range r.Flagged {
		if flagged {
			out = append(out, addr)
		}
	}
	return out
}

// Cache stores per-source, per-address verdicts for a bounded TTL so repeat
// decisions do not refetch. Find returns sentinel.ErrNotFound for both
// misses and entries older than the TTL.
type Cache interface {
	Find(ctx context.Context, source string, addr common.Address) (*Verdict, error)
	Save(ctx context.Context, verdict Verdict) error
}
