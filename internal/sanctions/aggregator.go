package sanctions

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"trustline/internal/sanctions/metrics"
	"trustline/pkg/platform/sentinel"
)

// Strictness decides how an unreachable or stale source affects the verdict.
// The choice is a required deployment parameter; there is no silent fallback.
type Strictness string

const (
	// FailClosed treats every address queried against an unavailable source
	// as sanctioned. Conservative-deny.
	FailClosed Strictness = "fail_closed"

	// FailOpen leaves addresses unflagged by an unavailable source and
	// reports the source in Result.Unavailable.
	FailOpen Strictness = "fail_open"
)

// Aggregator fans queries out to the configured sources and merges the
// answers with OR semantics.
type Aggregator struct {
	registry   *SourceRegistry
	cache      Cache
	strictness Strictness
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewAggregator constructs an aggregator. A nil cache disables verdict
// caching; every decision then pays the full source query cost.
func NewAggregator(registry *SourceRegistry, cache Cache, strictness Strictness, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		registry:   registry,
		cache:      cache,
		strictness: strictness,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

// Aggregate screens every address against every referenced source. Source
// queries run concurrently with a shared deadline; per-address verdicts merge
// under OR. An empty sourceIDs list falls back to every registered source.
func (a *Aggregator) Aggregate(ctx context.Context, addrs []common.Address, sourceIDs []string) (Result, error) {
	if len(sourceIDs) == 0 {
		sourceIDs = a.registry.IDs()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result := Result{
		Flagged:   make(map[common.Address]bool, len(addrs)),
		Confirmed: make(map[common.Address]bool, len(addrs)),
	}
	for _, addr := range addrs {
		result.Flagged[addr] = false
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, sourceID := range sourceIDs {
		g.Go(func() error {
			verdicts, err := a.querySource(ctx, sourceID, addrs)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.applyStrictness(&result, sourceID, addrs)
				return nil
			}
			for _, v := range verdicts {
				if v.Sanctioned {
					result.Flagged[v.Address] = true
					result.Confirmed[v.Address] = true
					a.metrics.RecordFlagged()
				}
			}
			return nil
		})
	}

	// Goroutines report failures through the strictness policy, never as
	// group errors, so Wait cannot fail.
	_ = g.Wait()

	// Goroutine completion order is not deterministic; the report order
	// must be.
	sort.Strings(result.Unavailable)

	return result, nil
}

// querySource screens all addresses against one source, consulting the cache
// first. The first source error aborts the remaining addresses; partial
// answers are discarded so strictness applies to the source as a whole.
func (a *Aggregator) querySource(ctx context.Context, sourceID string, addrs []common.Address) ([]Verdict, error) {
	source, ok := a.registry.Get(sourceID)
	if !ok {
		// A policy referencing an unknown source is a configuration fault;
		// surface it through the same unavailability path.
		return nil, sentinel.ErrUnavailable
	}

	verdicts := make([]Verdict, 0, len(addrs))
	for _, addr := range addrs {
		verdict, err := a.lookup(ctx, source, addr)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}

// lookup answers one (source, address) pair, going to the source only on a
// cache miss.
func (a *Aggregator) lookup(ctx context.Context, source Source, addr common.Address) (Verdict, error) {
	if a.cache != nil {
		if cached, err := a.cache.Find(ctx, source.ID(), addr); err == nil {
			a.metrics.RecordCacheHit()
			return *cached, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			a.logger.WarnContext(ctx, "verdict cache read failed",
				"source", source.ID(),
				"error", err,
			)
		}
		a.metrics.RecordCacheMiss()
	}

	start := time.Now()
	verdict, err := source.Check(ctx, addr)
	a.metrics.ObserveSourceLatency(source.ID(), time.Since(start))
	if err != nil {
		return Verdict{}, err
	}

	if a.cache != nil {
		if err := a.cache.Save(ctx, verdict); err != nil {
			a.logger.WarnContext(ctx, "verdict cache write failed",
				"source", source.ID(),
				"error", err,
			)
		}
	}
	return verdict, nil
}

// applyStrictness folds an unavailable source into the result. Called with
// the result mutex held.
func (a *Aggregator) applyStrictness(result *Result, sourceID string, addrs []common.Address) {
	a.metrics.RecordSourceFailure(sourceID, string(a.strictness))
	a.logger.Warn("sanction source unavailable",
		"source", sourceID,
		"strictness", a.strictness,
	)

	result.Unavailable = append(result.Unavailable, sourceID)
	if a.strictness == FailClosed {
		for _, addr := range addrs {
			result.Flagged[addr] = true
		}
	}
}
