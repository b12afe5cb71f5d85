// Package instance manages per-client engine instances: a stable proxy
// address whose logic pointer can be swapped without clients noticing.
package instance

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Instance is one client's engine deployment. ProxyAddress never changes
// after creation; LogicAddress moves on every upgrade.
type Instance struct {
	Client       common.Address
	ProxyAddress common.Address
	LogicAddress common.Address
	Owner        common.Address
	CreatedAt    time.Time
	UpgradedAt   time.Time
}

// DeriveProxyAddress computes the stable proxy address for a client. The
// derivation is deterministic over client and owner only, so upgrades can
// never move it.
func DeriveProxyAddress(client, owner common.Address) common.Address {
	buf := make([]byte, 0, 2*common.AddressLength)
	buf = append(buf, client.Bytes()...)
	buf = append(buf, owner.Bytes()...)
	hash := crypto.Keccak256(buf)
	return common.BytesToAddress(hash[len(hash)-common.AddressLength:])
}
