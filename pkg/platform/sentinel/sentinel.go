package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches, and oracle
// clients return these (optionally wrapped) so services can translate them
// into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store or cache
// - ErrExpired: certificate or cached verdict past its validity window
// - ErrAlreadyUsed: resource (certificate nonce, instance slot) already consumed
// - ErrStale: cached verdict older than the configured TTL
// - ErrUnavailable: oracle source or backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
	ErrStale       = errors.New("stale")
	ErrUnavailable = errors.New("unavailable")
)
