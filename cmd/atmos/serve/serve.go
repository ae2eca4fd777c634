// Package servecmder provides the serve command for running the atmos servers.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api"
	"github.com/atmoslabs/atmos/api/ask"
	atmosmcp "github.com/atmoslabs/atmos/api/mcp"
	"github.com/atmoslabs/atmos/pkg/config"
	"github.com/atmoslabs/atmos/pkg/document"
	embeddingutils "github.com/atmoslabs/atmos/pkg/embeddings/utils"
	eventstreamutils "github.com/atmoslabs/atmos/pkg/eventstream/utils"
	"github.com/atmoslabs/atmos/pkg/fusion"
	"github.com/atmoslabs/atmos/pkg/ingest"
	"github.com/atmoslabs/atmos/pkg/logger"
	modelutils "github.com/atmoslabs/atmos/pkg/model/utils"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/signals/climatetrace"
	"github.com/atmoslabs/atmos/pkg/signals/nasapower"
	"github.com/atmoslabs/atmos/pkg/signals/openweather"
	"github.com/atmoslabs/atmos/pkg/signals/worldbank"
	storageutils "github.com/atmoslabs/atmos/pkg/storage/utils"
	vectorutils "github.com/atmoslabs/atmos/pkg/vector/utils"
)

type ServeCommander struct {
	apiListen       string
	mcpListen       string
	storageProvider string
	sqlitePath      string
	postgresURL     string
	watchDir        string
	noMCP           bool
	debug           bool

	v      *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the Atmos servers.

Starts the HTTP API server and, unless disabled, the MCP server for
agent access to the ask and ingest tools.

Configuration comes from flags, ATMOS_ environment variables, and
config.toml in the .atmos/ directory, in that order of precedence.

With --watch, atmos ingests .txt and .md files from the given
directory and re-ingests them as they change.`

const serveShortDesc string = "Run the Atmos servers"

// serveFlags is the flag registry for the serve command.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageProv: {
		Name:        "storage-provider",
		ViperKey:    "storage.provider",
		Description: "Document store provider (memory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database",
	},
	config.FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_url",
		Description: "Postgres connection string",
	},
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, []string{
				config.FlagAPIListen,
				config.FlagStorageProv,
				config.FlagSQLite,
				config.FlagPostgres,
			})

			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProv, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &cmder.postgresURL)
	cmd.Flags().StringVar(&cmder.mcpListen, "mcp-listen", ":8082", "Address for the MCP server to listen on")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP server")
	cmd.Flags().StringVarP(&cmder.watchDir, "watch", "w", "", "Directory to watch and ingest documents from")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := c.v

	storer, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{
		ProviderType: v.GetString("storage.provider"),
		DBPath:       v.GetString("storage.sqlite_path"),
		ConnString:   v.GetString("storage.postgres_url"),
	})
	if err != nil {
		return fmt.Errorf("creating document store: %w", err)
	}
	defer storer.Close()

	index, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		DBPath:       v.GetString("vector_store.target"),
		Host:         v.GetString("vector_store.host"),
		Port:         v.GetInt("vector_store.port"),
		Collection:   v.GetString("vector_store.collection"),
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer index.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	backend, err := modelutils.NewFailoverBackend(
		&modelutils.NewBackendOpts{
			Provider: v.GetString("model.provider"),
			BaseURL:  v.GetString("model.target"),
			Model:    v.GetString("model.model"),
			APIKey:   v.GetString("model.api_key"),
		},
		&modelutils.NewBackendOpts{
			Provider: v.GetString("fallback.provider"),
			BaseURL:  v.GetString("fallback.target"),
			Model:    v.GetString("fallback.model"),
			APIKey:   v.GetString("fallback.api_key"),
		},
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating model backend: %w", err)
	}
	defer backend.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: v.GetString("events.provider"),
		Brokers:      splitBrokers(v.GetString("events.brokers")),
		Topic:        v.GetString("events.topic"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	chunker, err := document.NewChunker(document.ChunkerConfig{
		MaxChars:     v.GetInt("chunker.max_chars"),
		OverlapChars: v.GetInt("chunker.overlap_chars"),
	})
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	ingestor := ingest.NewIngestor(chunker, embedder, index, storer, publisher, c.logger)

	retriever := retrieval.NewRetriever(embedder, index, storer, retrieval.Config{
		TopK:     v.GetInt("retrieval.top_k"),
		MinScore: float32(v.GetFloat64("retrieval.min_score")),
	}, c.logger)
	retriever.SetReindexer(ingestor)

	aggregator := signals.NewAggregator(c.newProviders(), signals.AggregatorConfig{
		ProviderTimeout: time.Duration(v.GetInt("signals.timeout_seconds")) * time.Second,
	}, c.logger)

	composer := fusion.NewComposer(backend, fusion.ComposerConfig{}, c.logger)

	asker := ask.NewAsker(retriever, aggregator, composer, publisher, ask.Config{
		TopK: v.GetInt("retrieval.top_k"),
	}, c.logger)

	apiServer := api.NewServer(api.Config{
		ListenAddr: v.GetString("api.listen"),
	}, asker, ingestor, aggregator, storer, c.logger)

	errChan := make(chan error, 3)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if !c.noMCP {
		mcpServer, err := atmosmcp.NewServer(atmosmcp.Config{
			Asker:    asker,
			Ingestor: ingestor,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}

		c.logger.Info("starting MCP server",
			zap.String("listen", c.mcpListen),
		)

		go func() {
			if err := http.ListenAndServe(c.mcpListen, mcpServer.Handler()); err != nil {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	if c.watchDir != "" {
		watcher := newCorpusWatcher(c.watchDir, ingestor, c.logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				errChan <- fmt.Errorf("corpus watcher error: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

// newProviders builds the closed set of climate signal providers.
func (c *ServeCommander) newProviders() []signals.Provider {
	return []signals.Provider{
		openweather.NewProvider(openweather.Config{
			APIKey: c.v.GetString("signals.openweather_api_key"),
		}),
		openweather.NewAirProvider(openweather.Config{
			APIKey: c.v.GetString("signals.openweather_api_key"),
		}),
		worldbank.NewProvider(worldbank.Config{}),
		nasapower.NewProvider(nasapower.Config{}),
		climatetrace.NewProvider(climatetrace.Config{}),
	}
}

func splitBrokers(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
