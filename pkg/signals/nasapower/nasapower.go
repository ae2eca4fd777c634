// Package nasapower implements a solar-irradiance provider backed by the
// NASA POWER API.
package nasapower

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
	ProviderName = "nasapower"

	// DefaultBaseURL is the NASA POWER temporal API root.
	DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal"

	// IrradianceParameter is the all-sky surface shortwave downward
	// irradiance parameter code.
	IrradianceParameter = "ALLSKY_SFC_SW_DWN"

	// missingThreshold filters NASA's -999 missing-data sentinel. Any
	// value at or below it is absent, not a measurement.
	missingThreshold = -900
)

// Daily irradiance tops out well under 15 kWh/m²/day anywhere on Earth.
var plausibleIrradiance = signals.Range{Min: 0, Max: 15}

// Provider fetches average daily solar irradiance for a coordinate over the
// trailing month.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Config holds configuration for the NASA POWER provider.
type Config struct {
	// BaseURL overrides the API root; defaults to DefaultBaseURL.
	BaseURL string
}

type powerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// NewProvider creates a NASA POWER provider.
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
		now: time.Now,
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

// Fetch retrieves daily irradiance for params["lat"]/params["lon"] over the
// last 30 days and returns the mean of the valid readings. Days carrying
// the missing-data sentinel are excluded; if every day is missing the
// response is malformed, not zero.
func (p *Provider) Fetch(ctx context.Context, params signals.Params) (signals.Observation, error) {
	lat, latOK := params["lat"]
	lon, lonOK := params["lon"]
	if !latOK || !lonOK {
		return signals.Observation{}, fmt.Errorf("%w: missing lat/lon params", signals.ErrProvider)
	}

	end := p.now().UTC()
	start := end.AddDate(0, 0, -30)

	query := url.Values{}
	query.Set("parameters", IrradianceParameter)
	query.Set("community", "RE")
	query.Set("latitude", lat)
	query.Set("longitude", lon)
	query.Set("start", start.Format("20060102"))
	query.Set("end", end.Format("20060102"))
	query.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/daily/point?"+query.Encode(), nil)
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
		return signals.Observation{}, fmt.Errorf("%w: nasa power returned status %d: %s", signals.ErrProvider, resp.StatusCode, string(body))
	}

	var power powerResponse
	if err := json.NewDecoder(resp.Body).Decode(&power); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding response: %v", signals.ErrMalformed, err)
	}

	daily, ok := power.Properties.Parameter[IrradianceParameter]
	if !ok {
		return signals.Observation{}, fmt.Errorf("%w: response missing %s", signals.ErrMalformed, IrradianceParameter)
	}

	var sum float64
	var count int
	for _, value := range daily {
		if value > missingThreshold {
			sum += value
			count++
		}
	}
	if count == 0 {
		return signals.Observation{}, fmt.Errorf("%w: all readings carry the missing-data sentinel", signals.ErrMalformed)
	}

	return signals.Observation{
		Value:     sum / float64(count),
		Unit:      "kWh/m²/day",
		Timestamp: end,
	}, nil
}

func (p *Provider) Plausibility() signals.Range {
	return plausibleIrradiance
}

// Fallback reuses the last known reading; irradiance averages drift slowly
// enough for a stale value to stay useful.
func (p *Provider) Fallback() signals.FallbackStrategy {
	return signals.FallbackCached
}

var _ signals.Provider = (*Provider)(nil)
