package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api/ask"
	"github.com/atmoslabs/atmos/pkg/ingest"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/storage"
)

// Server is the API server for asking questions and managing documents.
type Server struct {
	config     Config
	asker      *ask.Asker
	ingestor   *ingest.Ingestor
	aggregator *signals.Aggregator
	storer     storage.Driver
	logger     *zap.Logger
	app        *fiber.App
}

// NewServer creates a new API server. Collaborators are injected so they can
// be shared with the MCP server.
func NewServer(
	config Config,
	asker *ask.Asker,
	ingestor *ingest.Ingestor,
	aggregator *signals.Aggregator,
	storer storage.Driver,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		asker:      asker,
		ingestor:   ingestor,
		aggregator: aggregator,
		storer:     storer,
		logger:     logger,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/ask", s.handleAsk)
	app.Get("/signals", s.handleSignals)
	app.Get("/documents", s.handleListDocuments)
	app.Post("/documents", s.handleIngestDocument)
	app.Delete("/documents/:id", s.handleDeleteDocument)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
