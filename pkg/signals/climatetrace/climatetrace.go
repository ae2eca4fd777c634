// Package climatetrace implements a country-emissions provider backed by
// the Climate TRACE API.
package climatetrace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atmoslabs/atmos/pkg/signals"
)

const (
	// ProviderName identifies this provider in signal bundles.
	ProviderName = "climatetrace"

	// DefaultBaseURL is the Climate TRACE v6 API root.
	DefaultBaseURL = "https://api.climatetrace.org/v6"

	// referenceYear anchors queries and synthetic estimates.
	referenceYear = 2022
)

// Country totals in megatons CO2e; the largest national emitter sits under
// 16,000 Mt, so anything past this bound is a unit or parsing problem.
var plausibleEmissions = signals.Range{Min: 0, Max: 20000}

// referenceSectorEmissions holds per-sector country emissions in Mt CO2e,
// summed into a country total when the API is unreachable.
var referenceSectorEmissions = map[string]map[string]float64{
	"USA": {"power": 1500, "transportation": 1800, "buildings": 500, "manufacturing": 400},
	"CHN": {"power": 4000, "transportation": 800, "buildings": 300, "manufacturing": 1200},
	"IND": {"power": 900, "transportation": 300, "buildings": 150, "manufacturing": 600},
	"DEU": {"power": 250, "transportation": 150, "buildings": 100, "manufacturing": 200},
	"JPN": {"power": 350, "transportation": 200, "buildings": 80, "manufacturing": 300},
}

// Provider fetches total CO2e emissions for a country.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the Climate TRACE provider.
type Config struct {
	// BaseURL overrides the API root; defaults to DefaultBaseURL.
	BaseURL string
}

type countryEmissions struct {
	Emissions struct {
		CO2e float64 `json:"co2e_100yr"`
	} `json:"emissions"`
}

// NewProvider creates a Climate TRACE provider.
func NewProvider(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Provider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

// Fetch retrieves total CO2e emissions for params["country"], an ISO3
// country code.
func (p *Provider) Fetch(ctx context.Context, params signals.Params) (signals.Observation, error) {
	country, ok := params["country"]
	if !ok || country == "" {
		return signals.Observation{}, fmt.Errorf("%w: missing country param", signals.ErrProvider)
	}
	country = strings.ToUpper(country)

	query := url.Values{}
	query.Set("countries", country)
	query.Set("since", strconv.Itoa(referenceYear))
	query.Set("to", strconv.Itoa(referenceYear))

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/country/emissions?"+query.Encode(), nil)
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
		return signals.Observation{}, fmt.Errorf("%w: climatetrace returned status %d: %s", signals.ErrProvider, resp.StatusCode, string(body))
	}

	var rows []countryEmissions
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding response: %v", signals.ErrMalformed, err)
	}
	if len(rows) == 0 {
		return signals.Observation{}, fmt.Errorf("%w: no emissions rows for %s", signals.ErrMalformed, country)
	}

	var total float64
	for _, row := range rows {
		total += row.Emissions.CO2e
	}

	return signals.Observation{
		Value:     total,
		Unit:      "Mt CO2e",
		Timestamp: time.Date(referenceYear, 12, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (p *Provider) Plausibility() signals.Range {
	return plausibleEmissions
}

func (p *Provider) Fallback() signals.FallbackStrategy {
	return signals.FallbackEstimate
}

// Estimate sums the static per-sector reference table for the country.
func (p *Provider) Estimate(params signals.Params) (signals.Observation, bool) {
	sectors, ok := referenceSectorEmissions[strings.ToUpper(params["country"])]
	if !ok {
		return signals.Observation{}, false
	}

	var total float64
	for _, emissions := range sectors {
		total += emissions
	}

	return signals.Observation{
		Value:     total,
		Unit:      "Mt CO2e",
		Timestamp: time.Date(referenceYear, 12, 31, 0, 0, 0, 0, time.UTC),
	}, true
}

var (
	_ signals.Provider  = (*Provider)(nil)
	_ signals.Estimator = (*Provider)(nil)
)
