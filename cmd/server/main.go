package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"trustline/internal/admintoken"
	"trustline/internal/audit"
	auditstore "trustline/internal/audit/store"
	auditworker "trustline/internal/audit/worker"
	"trustline/internal/certificate"
	certmetrics "trustline/internal/certificate/metrics"
	"trustline/internal/certificate/nonce"
	"trustline/internal/engine"
	enginehandler "trustline/internal/engine/handler"
	enginemetrics "trustline/internal/engine/metrics"
	"trustline/internal/engine/ports"
	"trustline/internal/identity"
	"trustline/internal/instance/codereader"
	instancehandler "trustline/internal/instance/handler"
	instancemetrics "trustline/internal/instance/metrics"
	instanceservice "trustline/internal/instance/service"
	instancestore "trustline/internal/instance/store"
	"trustline/internal/platform/config"
	"trustline/internal/platform/httpserver"
	"trustline/internal/platform/kafka"
	"trustline/internal/platform/logger"
	"trustline/internal/platform/postgres"
	"trustline/internal/platform/redis"
	policyhandler "trustline/internal/policy/handler"
	policymetrics "trustline/internal/policy/metrics"
	policyservice "trustline/internal/policy/service"
	policystore "trustline/internal/policy/store"
	"trustline/internal/ratelimit"
	"trustline/internal/sanctions"
	sanctionscache "trustline/internal/sanctions/cache"
	sanctionsmetrics "trustline/internal/sanctions/metrics"
	"trustline/internal/sanctions/sources"
	httptransport "trustline/internal/transport/http"
	"trustline/pkg/domain"
)

const (
	shutdownGrace  = 10 * time.Second
	auditInboxSize = 256
	jwtIssuer      = "trustline"
	jwtAudience    = "trustline-admin"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared infrastructure. Every backend degrades to an in-process
	// fallback when unconfigured, so a bare binary still serves decisions.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var events *kafka.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		events, err = kafka.New(ctx, cfg.Kafka)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer events.Close()
	}

	var ethClient *ethclient.Client
	if cfg.EthRPCURL != "" {
		ethClient, err = ethclient.DialContext(ctx, cfg.EthRPCURL)
		if err != nil {
			log.Error("ethereum rpc connection failed", "error", err, "url", cfg.EthRPCURL)
			os.Exit(1)
		}
		defer ethClient.Close()
	}

	// Audit pipeline: synchronous store append, asynchronous Kafka export.
	var auditStore audit.Store
	if db != nil {
		auditStore = auditstore.NewPostgres(db)
	} else {
		auditStore = auditstore.NewInMemory()
	}

	var inbox chan audit.Event
	if events != nil {
		inbox = make(chan audit.Event, auditInboxSize)
		go func() {
			_ = auditworker.New(events, cfg.Kafka.AuditTopic, inbox, log).Run(ctx)
		}()
	}
	auditor := audit.NewPublisher(auditStore, inbox, log)

	// Certificate verification.
	issuers := certificate.NewIssuerRing(cfg.IssuerAddresses)

	var nonces certificate.NonceStore
	if redisClient != nil {
		nonces = nonce.NewRedis(redisClient.Client)
	} else {
		nonces = nonce.NewInMemory()
	}
	verifier := certificate.NewVerifier(issuers, nonces, cfg.CertificateTTL, certmetrics.New())

	// Sanctions aggregation.
	sourceRegistry := sanctions.NewSourceRegistry()
	for id, contract := range cfg.OnChainSources {
		if ethClient == nil {
			log.Error("on-chain sanction source configured without ETH_RPC_URL", "source", id)
			os.Exit(1)
		}
		mustRegister(log, sourceRegistry, sources.NewOnChain(id, ethClient, contract))
	}
	httpClient := &http.Client{Timeout: cfg.SourceTimeout}
	for id, url := range cfg.AttestedSources {
		mustRegister(log, sourceRegistry, sources.NewAttested(id, url, httpClient, issuers, cfg.AttestedMaxAge))
	}

	var verdictCache sanctions.Cache
	if redisClient != nil {
		verdictCache = sanctionscache.NewRedis(redisClient.Client, cfg.SanctionsCacheTTL)
	} else {
		verdictCache = sanctionscache.NewInMemory(cfg.SanctionsCacheTTL)
	}

	strictness := sanctions.FailOpen
	if cfg.SanctionsFailClosed {
		strictness = sanctions.FailClosed
	}
	aggregator := sanctions.NewAggregator(sourceRegistry, verdictCache, strictness, cfg.SourceTimeout, log, sanctionsmetrics.New())

	// Policy registry.
	var polStore policyservice.Store
	if db != nil {
		polStore = policystore.NewPostgres(db)
	} else {
		polStore = policystore.NewInMemory()
	}
	policies := policyservice.New(polStore, cfg.PolicyAllowOverwrite, domain.Mode(cfg.DefaultMode), auditor, policymetrics.New())

	// Identity registry, erc3643 mode only.
	var identityRegistry ports.IdentityRegistry
	if ethClient != nil && cfg.IdentityRegistryContract != (common.Address{}) {
		identityRegistry = identity.NewOnChain(ethClient, cfg.IdentityRegistryContract)
	}

	// Validation engine.
	engineService := engine.NewService(policies, verifier, aggregator, identityRegistry, auditor, log, enginemetrics.New())

	// Instance bootstrap.
	var instStore instanceservice.Store
	if db != nil {
		instStore = instancestore.NewPostgres(db)
	} else {
		instStore = instancestore.NewInMemory()
	}
	var code codereader.Reader = codereader.NewStatic()
	if ethClient != nil {
		code = codereader.NewRPC(ethClient)
	}
	var deployEvents instanceservice.EventPublisher
	if events != nil {
		deployEvents = events
	}
	instances := instanceservice.New(instStore, code, deployEvents, cfg.Kafka.DeploymentTopic, auditor, log, instancemetrics.New())

	// HTTP surface.
	var limiter ratelimit.BucketStore
	if cfg.RateLimitPerMinute > 0 {
		if redisClient != nil {
			limiter = ratelimit.NewRedis(redisClient.Client)
		} else {
			limiter = ratelimit.NewInMemory()
		}
	}

	adminTokens := admintoken.NewService(cfg.JWTSigningKey, jwtIssuer, jwtAudience)
	router := httptransport.NewRouter(httptransport.Handlers{
		Engine:   enginehandler.New(engineService, log),
		Policy:   policyhandler.New(policies, log),
		Instance: instancehandler.New(instances, log),
	}, adminTokens, httptransport.Options{
		RateLimitStore:     limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("trustline listening",
			"addr", cfg.Addr,
			"strictness", strictness,
			"sources", sourceRegistry.IDs(),
			"issuers", len(cfg.IssuerAddresses),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := httpserver.Shutdown(srv, shutdownGrace); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

func mustRegister(log *slog.Logger, registry *sanctions.SourceRegistry, source sanctions.Source) {
	if err := registry.Register(source); err != nil {
		log.Error("sanction source registration failed", "source", source.ID(), "error", err)
		os.Exit(1)
	}
}
