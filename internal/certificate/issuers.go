package certificate

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// IssuerRing is the set of oracle addresses whose certificates the engine
// trusts. Keys rotate: new issuers are added before the oracle switches, old
// ones removed after their last certificates expire, so membership is
// mutable at runtime.
type IssuerRing struct {
	mu      sync.RWMutex
	issuers map[common.Address]struct{}
}

// NewIssuerRing builds a ring from the initially trusted addresses.
func NewIssuerRing(addrs []common.Address) *IssuerRing {
	ring := &IssuerRing{issuers: make(map[common.Address]struct{}, len(addrs))}
	for _, addr := range addrs {
		ring.issuers[addr] = struct{}{}
	}
	return ring
}

// Contains reports whether the address is a trusted issuer.
func (r *IssuerRing) Contains(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.issuers[addr]
	return ok
}

// Add registers a new trusted issuer.
func (r *IssuerRing) Add(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issuers[addr] = struct{}{}
}

// Remove drops an issuer from the ring. Certificates already verified stay
// verified; in-flight decisions observe either membership state atomically.
func (r *IssuerRing) Remove(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.issuers, addr)
}

// Size returns the number of trusted issuers.
func (r *IssuerRing) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.issuers)
}
