package handler

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"trustline/internal/certificate"
	"trustline/internal/engine"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
)

// maxSubjectAddresses bounds one request's screening fan-out.
const maxSubjectAddresses = 64

// CheckRequest is the HTTP request body for POST /v1/trustline/check and
// POST /v1/trustline/require.
type CheckRequest struct {
	Sender           string              `json:"sender"`
	Value            string              `json:"value,omitempty"`
	Payload          hexutil.Bytes       `json:"payload,omitempty"`
	SubjectAddresses []string            `json:"subject_addresses,omitempty"`
	Mode             string              `json:"mode,omitempty"`
	Certificate      *CertificateRequest `json:"certificate,omitempty"`

	// Parsed values (populated by Validate)
	parsed engine.EvaluateRequest
}

// CertificateRequest is the wire form of an authorization certificate.
type CertificateRequest struct {
	Subject     string        `json:"subject"`
	RequestHash string        `json:"request_hash"`
	Expiry      int64         `json:"expiry"`
	Signature   hexutil.Bytes `json:"signature"`
	Payload     hexutil.Bytes `json:"payload,omitempty"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	sender, err := parseAddress(r.Sender, "sender")
	if err != nil {
		return err
	}

	value := new(big.Int)
	if v := strings.TrimSpace(r.Value); v != "" {
		if _, ok := value.SetString(strings.TrimPrefix(v, "0x"), base(v)); !ok {
			return dErrors.New(dErrors.CodeBadRequest, "value must be a decimal or 0x-prefixed integer")
		}
		if value.Sign() < 0 {
			return dErrors.New(dErrors.CodeBadRequest, "value must not be negative")
		}
	}

	if len(r.SubjectAddresses) > maxSubjectAddresses {
		return dErrors.Newf(dErrors.CodeBadRequest, "at most %d subject addresses per request", maxSubjectAddresses)
	}
	subjects := make([]common.Address, 0, len(r.SubjectAddresses))
	for _, raw := range r.SubjectAddresses {
		addr, err := parseAddress(raw, "subject_addresses")
		if err != nil {
			return err
		}
		subjects = append(subjects, addr)
	}

	mode, err := domain.ParseMode(r.Mode)
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown mode %q", r.Mode)
	}

	r.parsed = engine.EvaluateRequest{
		Request: domain.ValidationRequest{
			Sender:           sender,
			Value:            value,
			Payload:          r.Payload,
			SubjectAddresses: subjects,
			Mode:             mode,
		},
	}

	if r.Certificate != nil {
		cert, err := r.Certificate.parse()
		if err != nil {
			return err
		}
		r.parsed.Certificate = cert
	}

	return nil
}

// Parsed returns the validated engine request.
func (r *CheckRequest) Parsed() engine.EvaluateRequest {
	return r.parsed
}

func (c *CertificateRequest) parse() (*certificate.Certificate, error) {
	subject, err := parseAddress(c.Subject, "certificate.subject")
	if err != nil {
		return nil, err
	}

	hash := strings.TrimSpace(c.RequestHash)
	if !strings.HasPrefix(hash, "0x") || len(hash) != 2+common.HashLength*2 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "certificate.request_hash must be a 32-byte hex hash")
	}

	if len(c.Signature) != certificate.SignatureLength {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "certificate.signature must be %d bytes", certificate.SignatureLength)
	}

	return &certificate.Certificate{
		Subject:     subject,
		RequestHash: common.HexToHash(hash),
		Expiry:      time.Unix(c.Expiry, 0).UTC(),
		Signature:   c.Signature,
		Payload:     c.Payload,
	}, nil
}

func parseAddress(raw, field string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a hex address", field)
	}
	return common.HexToAddress(raw), nil
}

func base(v string) int {
	if strings.HasPrefix(v, "0x") {
		return 16
	}
	return 10
}
