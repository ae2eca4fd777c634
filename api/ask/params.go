package ask

import (
	"strings"

	"github.com/atmoslabs/atmos/pkg/signals"
)

// place maps a country mentioned in a query to the provider inputs derived
// from it. Coordinates point at the capital, which is where weather and
// irradiance questions about a country usually mean.
type place struct {
	iso3     string
	location string
	lat      string
	lon      string
}

var places = map[string]place{
	"germany":        {"DEU", "Berlin", "52.52", "13.40"},
	"united states":  {"USA", "Washington", "38.90", "-77.04"},
	"usa":            {"USA", "Washington", "38.90", "-77.04"},
	"america":        {"USA", "Washington", "38.90", "-77.04"},
	"china":          {"CHN", "Beijing", "39.90", "116.40"},
	"india":          {"IND", "New Delhi", "28.61", "77.21"},
	"japan":          {"JPN", "Tokyo", "35.68", "139.69"},
	"russia":         {"RUS", "Moscow", "55.75", "37.62"},
	"united kingdom": {"GBR", "London", "51.51", "-0.13"},
	"uk":             {"GBR", "London", "51.51", "-0.13"},
	"france":         {"FRA", "Paris", "48.86", "2.35"},
}

// defaultPlace anchors queries that name no recognizable country so every
// provider still receives usable inputs.
var defaultPlace = place{"USA", "Washington", "38.90", "-77.04"}

// QueryParams derives provider inputs from the query text. Recognition is a
// closed lookup over common country names, checked longest-first so
// "united states" wins over "usa" inside it.
func QueryParams(query string) signals.Params {
	lowered := strings.ToLower(query)

	found := defaultPlace
	bestLen := 0
	for name, p := range places {
		if len(name) > bestLen && strings.Contains(lowered, name) {
			found = p
			bestLen = len(name)
		}
	}

	return signals.Params{
		"country":  found.iso3,
		"location": found.location,
		"lat":      found.lat,
		"lon":      found.lon,
	}
}
