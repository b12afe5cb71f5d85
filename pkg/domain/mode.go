// Package domain holds shared identifier and enumeration types used across
// the engine. Keeping them here avoids import cycles between the policy,
// certificate, and engine packages.
package domain

import "fmt"

// Mode selects the integration profile a client contract runs under. The
// profile decides which checks are mandatory before a transaction is allowed.
type Mode string

const (
	ModeDapp      Mode = "dapp"
	ModeUniswapV4 Mode = "uniswap_v4"
	ModeMorphoV2  Mode = "morpho_v2"
	ModeERC3643   Mode = "erc3643"
)

// ParseMode validates and normalizes a wire-format mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDapp, ModeUniswapV4, ModeMorphoV2, ModeERC3643:
		return Mode(s), nil
	case "":
		return ModeDapp, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Valid reports whether the mode is one of the supported profiles.
func (m Mode) Valid() bool {
	_, err := ParseMode(string(m))
	return err == nil && m != ""
}

// CheckKind names a validation step the engine can require for a client.
type CheckKind string

const (
	CheckCertificate      CheckKind = "certificate"
	CheckSanctions        CheckKind = "sanctions"
	CheckIdentityRegistry CheckKind = "identity_registry"
)

// RequiredChecks returns the mandatory checks for a mode. Policies may add
// checks on top of these but can never remove them.
func (m Mode) RequiredChecks() []CheckKind {
	switch m {
	case ModeMorphoV2:
		return []CheckKind{CheckSanctions, CheckCertificate}
	case ModeERC3643:
		return []CheckKind{CheckSanctions, CheckCertificate, CheckIdentityRegistry}
	default:
		return []CheckKind{CheckSanctions}
	}
}
