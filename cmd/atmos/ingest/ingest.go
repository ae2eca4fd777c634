// Package ingestcmder provides the ingest command for adding documents
// to a running atmos server's corpus.
package ingestcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api"
	"github.com/atmoslabs/atmos/pkg/cliui"
	"github.com/atmoslabs/atmos/pkg/config"
	"github.com/atmoslabs/atmos/pkg/logger"
)

type ingestCommander struct {
	files []string
	id    string

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const ingestLongDesc string = `Ingest documents into the Atmos corpus.

Reads each file, sends it to the running Atmos API server, and reports
how many retrieval chunks it produced. The document ID defaults to the
file's base name; use --id to override it when ingesting a single file.

Re-ingesting an existing document ID replaces the document and all of
its chunks.

Examples:
  atmos ingest climate-report.md
  atmos ingest notes/*.txt
  atmos ingest --id ipcc-ar6 summary.md`

const ingestShortDesc string = "Ingest documents into the corpus"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("id") && len(args) > 1 {
				return fmt.Errorf("--id only applies when ingesting a single file")
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.files = args

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.id, "id", "", "Document ID (defaults to the file's base name)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Atmos API server URL")

	return cmd
}

func (c *ingestCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	var failed int
	for _, path := range c.files {
		id := c.id
		if id == "" {
			id = filepath.Base(path)
		}

		var resp *api.IngestResponse
		err := cliui.Step(os.Stdout, fmt.Sprintf("ingesting %s", path), func() error {
			var stepErr error
			resp, stepErr = c.ingestFile(path, id)
			return stepErr
		})
		if err != nil {
			failed++
			fmt.Printf("    %s\n", cliui.DimStyle.Render(err.Error()))
			continue
		}

		fmt.Printf("    %s %s\n",
			cliui.KeyStyle.Render(resp.DocumentID),
			cliui.DimStyle.Render(fmt.Sprintf("%d chunks", resp.ChunkCount)),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", failed, len(c.files))
	}
	return nil
}

func (c *ingestCommander) ingestFile(path, id string) (*api.IngestResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ingestURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	ingestURL.Path = "/documents"

	payload, err := json.Marshal(api.IngestRequest{
		ID:       id,
		Text:     string(data),
		Source:   path,
		MimeType: "text/plain",
	})
	if err != nil {
		return nil, fmt.Errorf("encoding ingest request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ingestURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Atmos API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ingest request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out api.IngestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ingest response: %w", err)
	}

	return &out, nil
}
