// Package signals aggregates live climate data from independent external
// providers. Each query fans out to the configured providers concurrently;
// every provider's outcome is recorded in the resulting bundle, including
// timeouts and failures. Partial results are an expected outcome, not an
// error condition.
package signals

import "time"

// Quality grades how trustworthy a signal value is.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Status records how a signal value was obtained.
type Status string

const (
	// StatusOK means the provider's primary fetch succeeded.
	StatusOK Status = "ok"

	// StatusFallback means the primary fetch failed and a fallback value
	// (cached last-known or synthetic estimate) was substituted.
	StatusFallback Status = "fallback"

	// StatusError means nothing usable was obtained.
	StatusError Status = "error"
)

// Params carries provider inputs extracted from a query, such as the
// location or country code it mentions.
type Params map[string]string

// Observation is one raw measurement returned by a provider.
type Observation struct {
	Value     float64
	Unit      string
	Timestamp time.Time
}

// Entry is one provider's contribution to a bundle. Value is nil when the
// provider produced nothing usable.
type Entry struct {
	Value     *float64  `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Quality   Quality   `json:"quality"`
	Status    Status    `json:"status"`
	FetchedAt time.Time `json:"fetched_at"`

	// Detail explains a degraded entry: the failure, the timeout, or the
	// plausibility violation that got it flagged.
	Detail string `json:"detail,omitempty"`
}

// Bundle maps provider name to that provider's entry. Every configured
// provider is always present, regardless of failures.
type Bundle map[string]Entry
