// Package openweather implements a current-temperature provider backed by
// the OpenWeatherMap API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/atmoslabs/atmos/pkg/signals"
)

const (
	// ProviderName identifies this provider in signal bundles.
	ProviderName = "openweather"

	// DefaultBaseURL is the OpenWeatherMap API root.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// Surface temperature extremes ever recorded sit inside this interval; a
// reading outside it is a sensor or parsing problem, not weather.
var plausibleTemperature = signals.Range{Min: -90, Max: 60}

// Provider fetches current temperature for a location.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for the OpenWeatherMap provider.
type Config struct {
	// BaseURL overrides the API root; defaults to DefaultBaseURL.
	BaseURL string

	// APIKey authenticates requests.
	APIKey string
}

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Dt int64 `json:"dt"`
}

// NewProvider creates an OpenWeatherMap provider.
func NewProvider(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

// Fetch retrieves the current temperature in Celsius for params["location"].
func (p *Provider) Fetch(ctx context.Context, params signals.Params) (signals.Observation, error) {
	location, ok := params["location"]
	if !ok || location == "" {
		return signals.Observation{}, fmt.Errorf("%w: missing location param", signals.ErrProvider)
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("appid", p.apiKey)
	query.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/weather?"+query.Encode(), nil)
	if err != nil {
		return signals.Observation{}, fmt.Errorf("%w: creating request: %v", signals.ErrProvider, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return signals.Observation{}, fmt.Errorf("%w: sending request: %v", signals.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return signals.Observation{}, fmt.Errorf("%w: openweather returned status %d: %s", signals.ErrProvider, resp.StatusCode, string(body))
	}

	var weather weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&weather); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding response: %v", signals.ErrMalformed, err)
	}

	return signals.Observation{
		Value:     weather.Main.Temp,
		Unit:      "°C",
		Timestamp: time.Unix(weather.Dt, 0).UTC(),
	}, nil
}

func (p *Provider) Plausibility() signals.Range {
	return plausibleTemperature
}

// Fallback reuses the last known temperature; there is no sane synthetic
// estimate for live weather.
func (p *Provider) Fallback() signals.FallbackStrategy {
	return signals.FallbackCached
}

var _ signals.Provider = (*Provider)(nil)
