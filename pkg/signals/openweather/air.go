package openweather

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

// AirProviderName identifies the air-quality provider in signal bundles.
const AirProviderName = "openweather_air"

// PM2.5 readings above 500 µg/m³ exceed even the most severe recorded
// pollution events.
var plausiblePM25 = signals.Range{Min: 0, Max: 500}

// referenceCoordinates maps locations the air-pollution endpoint can be
// asked about; it takes coordinates, not city names. Explicit lat/lon
// params bypass the table.
var referenceCoordinates = map[string][2]string{
	"london":    {"51.5074", "-0.1278"},
	"paris":     {"48.8566", "2.3522"},
	"berlin":    {"52.5200", "13.4050"},
	"new york":  {"40.7128", "-74.0060"},
	"tokyo":     {"35.6762", "139.6503"},
	"delhi":     {"28.6139", "77.2090"},
	"beijing":   {"39.9042", "116.4074"},
	"sao paulo": {"-23.5505", "-46.6333"},
}

// AirProvider fetches current PM2.5 concentration for a location.
type AirProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type airResponse struct {
	List []struct {
		Dt         int64 `json:"dt"`
		Components struct {
			PM25 float64 `json:"pm2_5"`
		} `json:"components"`
	} `json:"list"`
}

// NewAirProvider creates an OpenWeatherMap air-quality provider. It shares
// the weather provider's API root and key.
func NewAirProvider(cfg Config) *AirProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &AirProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *AirProvider) Name() string {
	return AirProviderName
}

// Fetch retrieves the current PM2.5 concentration in µg/m³. Coordinates
// come from params["lat"]/params["lon"] when given, otherwise from the
// reference table keyed by params["location"].
func (p *AirProvider) Fetch(ctx context.Context, params signals.Params) (signals.Observation, error) {
	lat, lon, err := resolveCoordinates(params)
	if err != nil {
		return signals.Observation{}, err
	}

	query := url.Values{}
	query.Set("lat", lat)
	query.Set("lon", lon)
	query.Set("appid", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/air_pollution?"+query.Encode(), nil)
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

	var air airResponse
	if err := json.NewDecoder(resp.Body).Decode(&air); err != nil {
		return signals.Observation{}, fmt.Errorf("%w: decoding response: %v", signals.ErrMalformed, err)
	}
	if len(air.List) == 0 {
		return signals.Observation{}, fmt.Errorf("%w: no air quality readings", signals.ErrMalformed)
	}

	reading := air.List[0]
	return signals.Observation{
		Value:     reading.Components.PM25,
		Unit:      "µg/m³",
		Timestamp: time.Unix(reading.Dt, 0).UTC(),
	}, nil
}

func (p *AirProvider) Plausibility() signals.Range {
	return plausiblePM25
}

// Fallback reuses the last known reading; live air quality has no sane
// synthetic estimate.
func (p *AirProvider) Fallback() signals.FallbackStrategy {
	return signals.FallbackCached
}

func resolveCoordinates(params signals.Params) (string, string, error) {
	if lat, lon := params["lat"], params["lon"]; lat != "" && lon != "" {
		return lat, lon, nil
	}

	location := strings.ToLower(params["location"])
	if location == "" {
		return "", "", fmt.Errorf("%w: missing location param", signals.ErrProvider)
	}
	coords, ok := referenceCoordinates[location]
	if !ok {
		return "", "", fmt.Errorf("%w: no coordinates for location %q", signals.ErrProvider, location)
	}
	return coords[0], coords[1], nil
}

var _ signals.Provider = (*AirProvider)(nil)
