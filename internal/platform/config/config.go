package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Server captures process-level configuration for the validation engine.
type Server struct {
	Addr string

	// Policy registry behavior. When false, re-registering a client policy
	// fails with already_registered instead of overwriting.
	PolicyAllowOverwrite bool

	// DefaultMode applies to clients without a registered policy. Empty
	// disables the default policy entirely, turning unregistered clients
	// into conservative denies.
	DefaultMode string

	// Sanctions aggregation strictness. Fail-closed treats an unreachable
	// or stale source as a sanctioned verdict; fail-open reports
	// source_unavailable and leaves the address unflagged. The variable is
	// required so a deployment never inherits an implicit choice.
	SanctionsFailClosed bool
	SanctionsCacheTTL   time.Duration
	SourceTimeout       time.Duration

	// Certificate verification.
	IssuerAddresses []common.Address
	CertificateTTL  time.Duration

	JWTSigningKey string

	// Per-IP request limit on the decision endpoints. Zero disables
	// limiting.
	RateLimitPerMinute int

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// Ethereum RPC endpoint used by on-chain sanction sources and the
	// instance code reader. Empty disables on-chain backends.
	EthRPCURL string

	// Sanction source bindings, both "id=value" comma-separated lists.
	// On-chain sources bind a source id to a screening contract; attested
	// sources bind an id to an HTTP oracle endpoint.
	OnChainSources  map[string]common.Address
	AttestedSources map[string]string
	AttestedMaxAge  time.Duration

	// IdentityRegistryContract backs the erc3643 identity check. The zero
	// address disables the on-chain registry.
	IdentityRegistryContract common.Address
}

// RedisConfig holds connection settings for the verdict cache and nonce store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds settings for the policy, instance, and audit stores.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig holds settings for the deployment event publisher.
type KafkaConfig struct {
	Brokers         []string
	DeploymentTopic string
	AuditTopic      string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Missing strictness configuration defaults to fail-closed and logs the
// choice; it never silently fails open.
func FromEnv(logger *slog.Logger) (Server, error) {
	cfg := Server{
		Addr:                 envOr("TRUSTLINE_ADDR", ":8080"),
		PolicyAllowOverwrite: os.Getenv("POLICY_ALLOW_OVERWRITE") == "true",
		DefaultMode:          os.Getenv("DEFAULT_MODE"),
		SanctionsCacheTTL:    envDuration("SANCTIONS_CACHE_TTL", 5*time.Minute),
		SourceTimeout:        envDuration("SANCTIONS_SOURCE_TIMEOUT", 3*time.Second),
		CertificateTTL:       envDuration("CERTIFICATE_MAX_TTL", 15*time.Minute),
		JWTSigningKey:        os.Getenv("JWT_SIGNING_KEY"),
		RateLimitPerMinute:   envInt("RATE_LIMIT_PER_MINUTE", 600),
		EthRPCURL:            os.Getenv("ETH_RPC_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Kafka: KafkaConfig{
			Brokers:         splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			DeploymentTopic: envOr("KAFKA_DEPLOYMENT_TOPIC", "trustline.deployments"),
			AuditTopic:      envOr("KAFKA_AUDIT_TOPIC", "trustline.audit"),
		},
	}

	switch strictness := os.Getenv("SANCTIONS_FAIL_CLOSED"); strictness {
	case "true":
		cfg.SanctionsFailClosed = true
	case "false":
		cfg.SanctionsFailClosed = false
	case "":
		cfg.SanctionsFailClosed = true
		if logger != nil {
			logger.Warn("SANCTIONS_FAIL_CLOSED not set, defaulting to fail-closed")
		}
	default:
		return Server{}, fmt.Errorf("SANCTIONS_FAIL_CLOSED must be true or false, got %q", strictness)
	}

	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	issuers, err := parseIssuers(os.Getenv("ISSUER_ADDRESSES"))
	if err != nil {
		return Server{}, err
	}
	cfg.IssuerAddresses = issuers

	cfg.AttestedSources = parsePairs(os.Getenv("SANCTIONS_ATTESTED_SOURCES"))
	cfg.AttestedMaxAge = envDuration("SANCTIONS_ATTESTED_MAX_AGE", 10*time.Minute)

	cfg.OnChainSources = make(map[string]common.Address)
	for id, raw := range parsePairs(os.Getenv("SANCTIONS_ONCHAIN_SOURCES")) {
		if !common.IsHexAddress(raw) {
			return Server{}, fmt.Errorf("SANCTIONS_ONCHAIN_SOURCES: %q is not a hex address", raw)
		}
		cfg.OnChainSources[id] = common.HexToAddress(raw)
	}

	if raw := os.Getenv("IDENTITY_REGISTRY_CONTRACT"); raw != "" {
		if !common.IsHexAddress(raw) {
			return Server{}, fmt.Errorf("IDENTITY_REGISTRY_CONTRACT: %q is not a hex address", raw)
		}
		cfg.IdentityRegistryContract = common.HexToAddress(raw)
	}

	return cfg, nil
}

// parsePairs parses a comma-separated "id=value" list.
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range splitNonEmpty(raw) {
		id, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(id)] = strings.TrimSpace(value)
	}
	return out
}

// parseIssuers parses a comma-separated list of hex oracle issuer addresses.
func parseIssuers(raw string) ([]common.Address, error) {
	parts := splitNonEmpty(raw)
	addrs := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("ISSUER_ADDRESSES: %q is not a hex address", p)
		}
		addrs = append(addrs, common.HexToAddress(p))
	}
	return addrs, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
