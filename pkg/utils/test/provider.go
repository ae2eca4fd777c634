package testutils

import (
	"context"
	"time"

	"github.com/atmoslabs/atmos/pkg/signals"
)

// MockProvider is a configurable signal provider for tests.
type MockProvider struct {
	// ProviderName is returned by Name.
	ProviderName string

	// Observation is returned by Fetch when Err is nil.
	Observation signals.Observation

	// Err causes Fetch to fail.
	Err error

	// Delay makes Fetch block before returning, to exercise timeouts.
	Delay time.Duration

	// Range is the declared plausibility range.
	Range signals.Range

	// Strategy is the declared fallback strategy.
	Strategy signals.FallbackStrategy

	// EstimateObs and EstimateOK configure the Estimate result.
	EstimateObs signals.Observation
	EstimateOK  bool

	// Calls counts Fetch invocations.
	Calls int
}

func (m *MockProvider) Name() string {
	return m.ProviderName
}

func (m *MockProvider) Fetch(ctx context.Context, _ signals.Params) (signals.Observation, error) {
	m.Calls++

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return signals.Observation{}, ctx.Err()
		}
	}

	if m.Err != nil {
		return signals.Observation{}, m.Err
	}
	return m.Observation, nil
}

func (m *MockProvider) Plausibility() signals.Range {
	return m.Range
}

func (m *MockProvider) Fallback() signals.FallbackStrategy {
	return m.Strategy
}

func (m *MockProvider) Estimate(_ signals.Params) (signals.Observation, bool) {
	return m.EstimateObs, m.EstimateOK
}

var (
	_ signals.Provider  = (*MockProvider)(nil)
	_ signals.Estimator = (*MockProvider)(nil)
)
