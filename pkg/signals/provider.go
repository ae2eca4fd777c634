package signals

import "context"

// Range declares the plausible interval for a provider's values. A fetched
// value outside the range is downgraded to low quality and flagged, never
// silently discarded.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FallbackStrategy names what the aggregator tries once when a provider's
// primary fetch fails.
type FallbackStrategy string

const (
	// FallbackNone performs no fallback; the entry becomes status=error.
	FallbackNone FallbackStrategy = "none"

	// FallbackCached substitutes the last value the provider returned
	// successfully, if any.
	FallbackCached FallbackStrategy = "cached"

	// FallbackEstimate asks the provider for a synthetic estimate, such
	// as a static reference table lookup.
	FallbackEstimate FallbackStrategy = "estimate"
)

// Provider is one external climate data source. The set of providers is
// closed and chosen through configuration, not runtime plug-in lookup.
type Provider interface {
	// Name identifies the provider inside a Bundle.
	Name() string

	// Fetch performs the primary data call. Failures wrap ErrProvider,
	// ErrProviderTimeout, or ErrMalformed.
	Fetch(ctx context.Context, params Params) (Observation, error)

	// Plausibility declares the range a sane value must fall into.
	Plausibility() Range

	// Fallback declares the strategy tried when Fetch fails.
	Fallback() FallbackStrategy
}

// Estimator is implemented by providers whose fallback strategy is
// FallbackEstimate. Estimate returns false when no estimate exists for the
// given params.
type Estimator interface {
	Estimate(params Params) (Observation, bool)
}
