// Package worldbank implements a CO2-emissions-per-capita provider backed
// by the World Bank indicator API.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atmoslabs/atmos/pkg/signals"
)

const (
	// ProviderName identifies this provider in signal bundles.
	ProviderName = "worldbank"

	// DefaultBaseURL is the World Bank API root.
	DefaultBaseURL = "https://api.worldbank.org/v2"

	// CO2PerCapitaIndicator is the indicator code for CO2 emissions per
	// capita in metric tons.
	CO2PerCapitaIndicator = "EN.ATM.CO2E.PC"
)

// No country emits more than this per capita; readings above it indicate a
// unit mixup upstream.
var plausibleEmissions = signals.Range{Min: 0, Max: 100}

// referenceEmissions holds recent per-capita CO2 figures used as synthetic
// estimates when the API is unreachable.
var referenceEmissions = map[string]float64{
	"USA": 14.24,
	"CHN": 7.38,
	"DEU": 8.52,
	"JPN": 8.65,
	"IND": 1.91,
	"RUS": 11.45,
	"GBR": 5.55,
	"FRA": 4.27,
}

// Provider fetches CO2 emissions per capita for a country.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the World Bank provider.
type Config struct {
	// BaseURL overrides the API root; defaults to DefaultBaseURL.
	BaseURL string
}

// indicatorRow is one data point in the World Bank response. The API
// returns a two-element array: metadata first, then rows.
type indicatorRow struct {
	Value *float64 `json:"value"`
	Date  string   `json:"date"`
}

// NewProvider creates a World Bank provider.
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

// Fetch retrieves the most recent CO2 per-capita figure for
// params["country"], an ISO3 country code.
func (p *Provider) Fetch(ctx context.Context, params signals.Params) (signals.Observation, error) {
	country, ok := params["country"]
	if !ok || country == "" {
		return signals.Observation{}, fmt.Errorf("%w: missing country param", signals.ErrProvider)
	}
	country = strings.ToUpper(country)

	query := url.Values{}
	query.Set("format", "json")
	query.Set("date", "2020:2023")
	query.Set("per_page", "10")

	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s?%s", p.baseURL, country, CO2PerCapitaIndicator, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
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
		return signals.Observation{}, fmt.Errorf("%w: worldbank returned status %d: %s", signals.ErrProvider, resp.StatusCode, string(body))
	}

	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding response: %v", signals.ErrMalformed, err)
	}
	if len(envelope) < 2 {
		return signals.Observation{}, fmt.Errorf("%w: response missing data element", signals.ErrMalformed)
	}

	var rows []indicatorRow
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding rows: %v", signals.ErrMalformed, err)
	}

	// Rows come newest-first; take the first year with a reported value.
	for _, row := range rows {
		if row.Value != nil {
			return signals.Observation{
				Value:     *row.Value,
				Unit:      "t/capita",
				Timestamp: yearTimestamp(row.Date),
			}, nil
		}
	}

	return signals.Observation{}, fmt.Errorf("%w: no reported value for %s", signals.ErrMalformed, country)
}

func (p *Provider) Plausibility() signals.Range {
	return plausibleEmissions
}

func (p *Provider) Fallback() signals.FallbackStrategy {
	return signals.FallbackEstimate
}

// Estimate looks up a static reference figure for the country.
func (p *Provider) Estimate(params signals.Params) (signals.Observation, bool) {
	value, ok := referenceEmissions[strings.ToUpper(params["country"])]
	if !ok {
		return signals.Observation{}, false
	}

	return signals.Observation{
		Value:     value,
		Unit:      "t/capita",
		Timestamp: yearTimestamp("2022"),
	}, true
}

func yearTimestamp(year string) time.Time {
	t, err := time.Parse("2006", year)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	_ signals.Provider  = (*Provider)(nil)
	_ signals.Estimator = (*Provider)(nil)
)
