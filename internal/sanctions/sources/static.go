package sources

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/sanctions"
)

// Static answers from a fixed address set. Used for local development and
// tests; Latency and Err mimic real-world source behavior.
type Static struct {
	id      string
	listed  map[common.Address]struct{}
	Latency time.Duration
	Err     error
}

// NewStatic builds a static source flagging exactly the given addresses.
func NewStatic(id string, listed ...common.Address) *Static {
	set := make(map[common.Address]struct{}, len(listed))
	for _, addr := range listed {
		set[addr] = struct{}{}
	}
	return &Static{id: id, listed: set}
}

func (s *Static) ID() string { return s.id }

func (s *Static) Check(ctx context.Context, addr common.Address) (sanctions.Verdict, error) {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return sanctions.Verdict{}, ctx.Err()
		}
	}
	if s.Err != nil {
		return sanctions.Verdict{}, s.Err
	}

	_, listed := s.listed[addr]
	return sanctions.Verdict{
		Address:    addr,
		Sanctioned: listed,
		Source:     s.id,
		AsOf:       time.Now(),
	}, nil
}
