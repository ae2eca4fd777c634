package signals

import "errors"

var (
	// ErrProvider indicates a provider's fetch failed.
	ErrProvider = errors.New("provider error")

	// ErrProviderTimeout indicates a provider exceeded its fetch deadline.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrMalformed indicates a provider's response could not be used, for
	// example a missing-data sentinel in place of a measurement.
	ErrMalformed = errors.New("malformed provider response")
)
