package sources

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"trustline/internal/certificate"
	"trustline/internal/sanctions"
	"trustline/pkg/platform/sentinel"
)

// attestedResponse is the wire format an off-chain sanction oracle returns.
// The signature covers the verdict fields so the oracle, not the transport,
// is the trust anchor.
type attestedResponse struct {
	Address    common.Address `json:"address"`
	Sanctioned bool           `json:"sanctioned"`
	AsOf       time.Time      `json:"as_of"`
	Signature  hexBytes       `json:"signature"`
}

type hexBytes []byte

func (h *hexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Attested queries an off-chain oracle over HTTP and accepts its answer only
// when the response signature recovers to a trusted issuer and the verdict is
// fresh enough.
type Attested struct {
	id      string
	url     string
	client  *http.Client
	issuers *certificate.IssuerRing
	maxAge  time.Duration
}

// NewAttested binds a source ID to an oracle endpoint. maxAge bounds verdict
// staleness independently of the cache TTL.
func NewAttested(id, url string, client *http.Client, issuers *certificate.IssuerRing, maxAge time.Duration) *Attested {
	if client == nil {
		client = http.DefaultClient
	}
	return &Attested{id: id, url: url, client: client, issuers: issuers, maxAge: maxAge}
}

func (s *Attested) ID() string { return s.id }

// Check posts the address to the oracle and verifies the signed response.
func (s *Attested) Check(ctx context.Context, addr common.Address) (sanctions.Verdict, error) {
	body, err := json.Marshal(map[string]string{"address": addr.Hex()})
	if err != nil {
		return sanctions.Verdict{}, fmt.Errorf("marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return sanctions.Verdict{}, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return sanctions.Verdict{}, fmt.Errorf("oracle %s: %w", s.id, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sanctions.Verdict{}, fmt.Errorf("oracle %s returned %d: %w", s.id, resp.StatusCode, sentinel.ErrUnavailable)
	}

	var attested attestedResponse
	if err := json.NewDecoder(resp.Body).Decode(&attested); err != nil {
		return sanctions.Verdict{}, fmt.Errorf("decode oracle response: %w", err)
	}

	if err := s.verify(attested, addr); err != nil {
		return sanctions.Verdict{}, err
	}

	return sanctions.Verdict{
		Address:    attested.Address,
		Sanctioned: attested.Sanctioned,
		Source:     s.id,
		AsOf:       attested.AsOf,
	}, nil
}

// verify checks the response signature and freshness.
func (s *Attested) verify(attested attestedResponse, want common.Address) error {
	if attested.Address != want {
		return fmt.Errorf("oracle %s answered for %s, asked about %s", s.id, attested.Address.Hex(), want.Hex())
	}
	if age := time.Since(attested.AsOf); age > s.maxAge {
		return fmt.Errorf("oracle %s verdict is %s old: %w", s.id, age.Round(time.Second), sentinel.ErrStale)
	}

	digest := attestationDigest(s.id, attested.Address, attested.Sanctioned, attested.AsOf)

	sig := make([]byte, len(attested.Signature))
	copy(sig, attested.Signature)
	if len(sig) != 65 {
		return fmt.Errorf("oracle %s signature is %d bytes, want 65", s.id, len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return fmt.Errorf("oracle %s signature recovery: %w", s.id, err)
	}
	if signer := crypto.PubkeyToAddress(*pub); !s.issuers.Contains(signer) {
		return fmt.Errorf("oracle %s response signed by untrusted key %s", s.id, signer.Hex())
	}
	return nil
}

// attestationDigest is the EIP-191 digest an attested oracle signs: source
// ID, address, verdict bit, and timestamp.
func attestationDigest(sourceID string, addr common.Address, sanctioned bool, asOf time.Time) common.Hash {
	verdictByte := byte(0)
	if sanctioned {
		verdictByte = 1
	}

	buf := make([]byte, 0, len(sourceID)+common.AddressLength+1+8)
	buf = append(buf, []byte(sourceID)...)
	buf = append(buf, addr.Bytes()...)
	buf = append(buf, verdictByte)
	buf = binary.BigEndian.AppendUint64(buf, uint64(asOf.Unix()))

	msg := crypto.Keccak256(buf)
	return crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n32"), msg)
}
