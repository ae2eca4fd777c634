package openweather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/signals/openweather"
)

func TestOpenWeather(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenWeather Provider Suite")
}

var _ = Describe("Provider", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	BeforeEach(func() {
		ctx = context.Background()
	})

	newProvider := func(handler http.HandlerFunc) *openweather.Provider {
		server = httptest.NewServer(handler)
		return openweather.NewProvider(openweather.Config{
			BaseURL: server.URL,
			APIKey:  "test-key",
		})
	}

	It("fetches the current temperature for a location", func() {
		provider := newProvider(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/weather"))
			Expect(r.URL.Query().Get("q")).To(Equal("Berlin"))
			Expect(r.URL.Query().Get("appid")).To(Equal("test-key"))
			Expect(r.URL.Query().Get("units")).To(Equal("metric"))
			w.Write([]byte(`{"main":{"temp":14.2},"dt":1700000000}`))
		})

		obs, err := provider.Fetch(ctx, signals.Params{"location": "Berlin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.Value).To(BeNumerically("==", 14.2))
		Expect(obs.Unit).To(Equal("°C"))
	})

	It("fails without a location param", func() {
		provider := openweather.NewProvider(openweather.Config{})
		_, err := provider.Fetch(ctx, signals.Params{})
		Expect(err).To(MatchError(signals.ErrProvider))
	})

	It("treats non-200 responses as provider errors", func() {
		provider := newProvider(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := provider.Fetch(ctx, signals.Params{"location": "Berlin"})
		Expect(err).To(MatchError(signals.ErrProvider))
	})

	It("falls back to the last cached value", func() {
		Expect(openweather.NewProvider(openweather.Config{}).Fallback()).To(Equal(signals.FallbackCached))
	})
})

var _ = Describe("AirProvider", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	BeforeEach(func() {
		ctx = context.Background()
	})

	newProvider := func(handler http.HandlerFunc) *openweather.AirProvider {
		server = httptest.NewServer(handler)
		return openweather.NewAirProvider(openweather.Config{
			BaseURL: server.URL,
			APIKey:  "test-key",
		})
	}

	It("fetches PM2.5 for a known location", func() {
		provider := newProvider(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/air_pollution"))
			Expect(r.URL.Query().Get("lat")).To(Equal("52.5200"))
			Expect(r.URL.Query().Get("lon")).To(Equal("13.4050"))
			Expect(r.URL.Query().Get("appid")).To(Equal("test-key"))
			w.Write([]byte(`{"list":[{"dt":1700000000,"components":{"pm2_5":12.4}}]}`))
		})

		obs, err := provider.Fetch(ctx, signals.Params{"location": "Berlin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.Value).To(BeNumerically("==", 12.4))
		Expect(obs.Unit).To(Equal("µg/m³"))
	})

	It("prefers explicit coordinates over the location table", func() {
		provider := newProvider(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("lat")).To(Equal("1.0"))
			Expect(r.URL.Query().Get("lon")).To(Equal("2.0"))
			w.Write([]byte(`{"list":[{"dt":1700000000,"components":{"pm2_5":3.1}}]}`))
		})

		_, err := provider.Fetch(ctx, signals.Params{"location": "Berlin", "lat": "1.0", "lon": "2.0"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails for a location outside the coordinate table", func() {
		provider := openweather.NewAirProvider(openweather.Config{})
		_, err := provider.Fetch(ctx, signals.Params{"location": "Atlantis"})
		Expect(err).To(MatchError(signals.ErrProvider))
	})

	It("treats an empty reading list as malformed", func() {
		provider := newProvider(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"list":[]}`))
		})

		_, err := provider.Fetch(ctx, signals.Params{"location": "Berlin"})
		Expect(err).To(MatchError(signals.ErrMalformed))
	})

	It("bounds plausible PM2.5 readings", func() {
		r := openweather.NewAirProvider(openweather.Config{}).Plausibility()
		Expect(r.Min).To(BeNumerically("==", 0))
		Expect(r.Max).To(BeNumerically("==", 500))
	})

	It("falls back to the last cached value", func() {
		Expect(openweather.NewAirProvider(openweather.Config{}).Fallback()).To(Equal(signals.FallbackCached))
	})
})
