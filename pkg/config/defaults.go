package config

const (
	defaultStorageProvider = "memory"
	defaultAPIListen       = ":8081"

	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultModelProvider = "ollama"
	defaultModelTarget   = "http://localhost:11434"
	defaultModelName     = "llama3.2"

	defaultSignalsTimeoutSeconds = 5

	defaultRetrievalTopK     = 5
	defaultRetrievalMinScore = 0.0

	defaultChunkerMaxChars     = 1000
	defaultChunkerOverlapChars = 200

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "atmos.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Model: ModelConfig{
			Provider: defaultModelProvider,
			Target:   defaultModelTarget,
			Model:    defaultModelName,
		},
		Signals: SignalsConfig{
			TimeoutSeconds: defaultSignalsTimeoutSeconds,
		},
		Retrieval: RetrievalConfig{
			TopK:     defaultRetrievalTopK,
			MinScore: defaultRetrievalMinScore,
		},
		Chunker: ChunkerConfig{
			MaxChars:     defaultChunkerMaxChars,
			OverlapChars: defaultChunkerOverlapChars,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
