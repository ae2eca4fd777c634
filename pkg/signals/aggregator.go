package signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/atmoslabs/atmos/pkg/cache"
)

const (
	// DefaultProviderTimeout bounds each provider's fetch, including any
	// rate-limit wait.
	DefaultProviderTimeout = 5 * time.Second

	// DefaultRateLimit is the per-provider request rate ceiling.
	DefaultRateLimit = rate.Limit(5)

	// DefaultBurst is the per-provider rate limiter burst.
	DefaultBurst = 5

	// DefaultCacheSize bounds the bundle cache.
	DefaultCacheSize = 512

	// DefaultCacheTTL keeps signal bundles fresh. Live data goes stale
	// quickly, so this is much shorter than the embedding cache.
	DefaultCacheTTL = 10 * time.Minute
)

// AggregatorConfig tunes aggregation behavior.
type AggregatorConfig struct {
	// ProviderTimeout is the per-provider fetch deadline.
	ProviderTimeout time.Duration

	// RateLimit caps requests per second per provider.
	RateLimit rate.Limit

	// Burst is the rate limiter burst per provider.
	Burst int
}

// Aggregator fans a query out to every configured provider and assembles
// the outcomes into a Bundle. It owns the last-known-value store used by
// providers with a cached fallback strategy.
type Aggregator struct {
	providers []Provider
	config    AggregatorConfig
	limiters  map[string]*rate.Limiter
	cache     *cache.Cache[Bundle]
	logger    *zap.Logger

	mu        sync.Mutex
	lastKnown map[string]Observation
}

// NewAggregator creates an aggregator over a fixed provider set.
func NewAggregator(providers []Provider, config AggregatorConfig, logger *zap.Logger) *Aggregator {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultProviderTimeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.Burst <= 0 {
		config.Burst = DefaultBurst
	}

	limiters := make(map[string]*rate.Limiter, len(providers))
	for _, provider := range providers {
		limiters[provider.Name()] = rate.NewLimiter(config.RateLimit, config.Burst)
	}

	return &Aggregator{
		providers: providers,
		config:    config,
		limiters:  limiters,
		cache:     cache.New[Bundle](DefaultCacheSize, DefaultCacheTTL),
		logger:    logger,
	}
}

// Aggregate fetches from every provider concurrently and returns a bundle
// containing one entry per provider. It waits for every dispatch to either
// complete or hit its timeout; it never blocks past the longest timeout.
func (a *Aggregator) Aggregate(ctx context.Context, params Params) Bundle {
	key := paramsFingerprint(params)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	bundle := a.aggregate(ctx, params)

	// An all-error bundle is not worth pinning for the TTL; the next
	// query should retry the providers.
	if !allErrored(bundle) {
		a.cache.Add(key, bundle)
	}

	return bundle
}

func (a *Aggregator) aggregate(ctx context.Context, params Params) Bundle {
	bundle := make(Bundle, len(a.providers))
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	for _, provider := range a.providers {
		group.Go(func() error {
			entry := a.fetchOne(ctx, provider, params)
			mu.Lock()
			bundle[provider.Name()] = entry
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures live inside their entries.
	_ = group.Wait()

	return bundle
}

// fetchOne runs one provider's primary fetch, validates plausibility, and
// applies the provider's fallback strategy at most once.
func (a *Aggregator) fetchOne(ctx context.Context, provider Provider, params Params) Entry {
	fetchCtx, cancel := context.WithTimeout(ctx, a.config.ProviderTimeout)
	defer cancel()

	name := provider.Name()

	obs, err := a.fetch(fetchCtx, provider, params)
	if err == nil {
		a.remember(name, obs)

		entry := Entry{
			Value:     &obs.Value,
			Unit:      obs.Unit,
			Quality:   QualityHigh,
			Status:    StatusOK,
			FetchedAt: time.Now().UTC(),
		}

		if r := provider.Plausibility(); !r.Contains(obs.Value) {
			entry.Quality = QualityLow
			entry.Detail = fmt.Sprintf("value %g outside plausible range [%g, %g]", obs.Value, r.Min, r.Max)
			a.logger.Warn("implausible provider value",
				zap.String("provider", name),
				zap.Float64("value", obs.Value),
			)
		}

		return entry
	}

	a.logger.Warn("provider fetch failed",
		zap.String("provider", name),
		zap.Error(err),
	)

	if entry, ok := a.fallback(provider, params); ok {
		return entry
	}

	return Entry{
		Quality:   QualityLow,
		Status:    StatusError,
		FetchedAt: time.Now().UTC(),
		Detail:    err.Error(),
	}
}

func (a *Aggregator) fetch(ctx context.Context, provider Provider, params Params) (Observation, error) {
	if err := a.limiters[provider.Name()].Wait(ctx); err != nil {
		return Observation{}, fmt.Errorf("%w: rate limit wait: %v", ErrProviderTimeout, err)
	}

	obs, err := provider.Fetch(ctx, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Observation{}, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return Observation{}, err
	}

	return obs, nil
}

// fallback attempts the provider's configured strategy exactly once.
func (a *Aggregator) fallback(provider Provider, params Params) (Entry, bool) {
	name := provider.Name()

	switch provider.Fallback() {
	case FallbackCached:
		a.mu.Lock()
		obs, ok := a.lastKnown[name]
		a.mu.Unlock()
		if !ok {
			return Entry{}, false
		}

		return Entry{
			Value:     &obs.Value,
			Unit:      obs.Unit,
			Quality:   QualityMedium,
			Status:    StatusFallback,
			FetchedAt: time.Now().UTC(),
			Detail:    fmt.Sprintf("last known value from %s", obs.Timestamp.Format(time.RFC3339)),
		}, true

	case FallbackEstimate:
		estimator, ok := provider.(Estimator)
		if !ok {
			return Entry{}, false
		}
		obs, ok := estimator.Estimate(params)
		if !ok {
			return Entry{}, false
		}

		return Entry{
			Value:     &obs.Value,
			Unit:      obs.Unit,
			Quality:   QualityLow,
			Status:    StatusFallback,
			FetchedAt: time.Now().UTC(),
			Detail:    "synthetic estimate, live data unavailable",
		}, true

	default:
		return Entry{}, false
	}
}

func (a *Aggregator) remember(name string, obs Observation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastKnown == nil {
		a.lastKnown = make(map[string]Observation)
	}
	a.lastKnown[name] = obs
}

func allErrored(bundle Bundle) bool {
	for _, entry := range bundle {
		if entry.Status != StatusError {
			return false
		}
	}
	return true
}

func paramsFingerprint(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte(';')
	}

	return cache.Fingerprint(b.String())
}
