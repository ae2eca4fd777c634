package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent atmos configuration stored as config.toml
// in the .atmos/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Model       ModelConfig       `toml:"model"`
	Fallback    ModelConfig       `toml:"fallback"`
	Signals     SignalsConfig     `toml:"signals"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Chunker     ChunkerConfig     `toml:"chunker"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig holds document store settings.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresURL string `toml:"postgres_url,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. atmos ask, atmos ingest). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Host       string `toml:"host,omitempty"`
	Port       int    `toml:"port,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ModelConfig holds generation backend settings. The same shape serves both
// the primary backend and the fallback section.
type ModelConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// SignalsConfig holds external data provider settings.
type SignalsConfig struct {
	OpenWeatherAPIKey string `toml:"openweather_api_key,omitempty"`
	TimeoutSeconds    int    `toml:"timeout_seconds,omitempty"`
}

// RetrievalConfig holds retrieval tuning.
type RetrievalConfig struct {
	TopK     int     `toml:"top_k,omitempty"`
	MinScore float64 `toml:"min_score,omitempty"`
}

// ChunkerConfig holds chunking parameters.
type ChunkerConfig struct {
	MaxChars     int `toml:"max_chars,omitempty"`
	OverlapChars int `toml:"overlap_chars,omitempty"`
}

// EventsConfig holds eventstream publisher settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": {
		get: func(c *Config) string {
			if c.VectorStore.Port == 0 {
				return ""
			}
			return strconv.Itoa(c.VectorStore.Port)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.port: %w", err)
			}
			c.VectorStore.Port = n
			return nil
		},
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"model.provider": {
		get: func(c *Config) string { return c.Model.Provider },
		set: func(c *Config, v string) error { c.Model.Provider = v; return nil },
	},
	"model.target": {
		get: func(c *Config) string { return c.Model.Target },
		set: func(c *Config, v string) error { c.Model.Target = v; return nil },
	},
	"model.model": {
		get: func(c *Config) string { return c.Model.Model },
		set: func(c *Config, v string) error { c.Model.Model = v; return nil },
	},
	"model.api_key": {
		get: func(c *Config) string { return c.Model.APIKey },
		set: func(c *Config, v string) error { c.Model.APIKey = v; return nil },
	},
	"fallback.provider": {
		get: func(c *Config) string { return c.Fallback.Provider },
		set: func(c *Config, v string) error { c.Fallback.Provider = v; return nil },
	},
	"fallback.target": {
		get: func(c *Config) string { return c.Fallback.Target },
		set: func(c *Config, v string) error { c.Fallback.Target = v; return nil },
	},
	"fallback.model": {
		get: func(c *Config) string { return c.Fallback.Model },
		set: func(c *Config, v string) error { c.Fallback.Model = v; return nil },
	},
	"fallback.api_key": {
		get: func(c *Config) string { return c.Fallback.APIKey },
		set: func(c *Config, v string) error { c.Fallback.APIKey = v; return nil },
	},
	"signals.openweather_api_key": {
		get: func(c *Config) string { return c.Signals.OpenWeatherAPIKey },
		set: func(c *Config, v string) error { c.Signals.OpenWeatherAPIKey = v; return nil },
	},
	"signals.timeout_seconds": {
		get: func(c *Config) string {
			if c.Signals.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.Itoa(c.Signals.TimeoutSeconds)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for signals.timeout_seconds: %w", err)
			}
			c.Signals.TimeoutSeconds = n
			return nil
		},
	},
	"retrieval.top_k": {
		get: func(c *Config) string {
			if c.Retrieval.TopK == 0 {
				return ""
			}
			return strconv.Itoa(c.Retrieval.TopK)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.top_k: %w", err)
			}
			c.Retrieval.TopK = n
			return nil
		},
	},
	"retrieval.min_score": {
		get: func(c *Config) string {
			if c.Retrieval.MinScore == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Retrieval.MinScore, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.min_score: %w", err)
			}
			c.Retrieval.MinScore = f
			return nil
		},
	},
	"chunker.max_chars": {
		get: func(c *Config) string {
			if c.Chunker.MaxChars == 0 {
				return ""
			}
			return strconv.Itoa(c.Chunker.MaxChars)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chunker.max_chars: %w", err)
			}
			c.Chunker.MaxChars = n
			return nil
		},
	},
	"chunker.overlap_chars": {
		get: func(c *Config) string {
			if c.Chunker.OverlapChars == 0 {
				return ""
			}
			return strconv.Itoa(c.Chunker.OverlapChars)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chunker.overlap_chars: %w", err)
			}
			c.Chunker.OverlapChars = n
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
