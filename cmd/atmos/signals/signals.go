// Package signalscmder provides the signals command for inspecting live
// climate data providers via a running atmos server.
package signalscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api"
	"github.com/atmoslabs/atmos/pkg/cliui"
	"github.com/atmoslabs/atmos/pkg/config"
	"github.com/atmoslabs/atmos/pkg/logger"
)

type signalsCommander struct {
	query string

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const signalsLongDesc string = `Fetch live climate signals for a query.

Queries every configured provider (current weather, CO2 per capita,
solar irradiance, national emissions) through the running Atmos API
server and displays the resulting bundle. Every provider always appears
in the output; failed fetches show their fallback or error status
instead of a value.

Examples:
  atmos signals "solar potential in Germany"
  atmos signals "emissions in China"`

const signalsShortDesc string = "Fetch live climate signals"

func NewSignalsCmd() *cobra.Command {
	cmder := &signalsCommander{}

	cmd := &cobra.Command{
		Use:   "signals <query>",
		Short: signalsShortDesc,
		Long:  signalsLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
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
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Atmos API server URL")

	return cmd
}

func (c *signalsCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	output, err := c.fetchSignals()
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %q\n\n", cliui.HeaderStyle.Render("Live signals for:"), output.Query)

	names := make([]string, 0, len(output.Signals))
	for name := range output.Signals {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := output.Signals[name]
		if entry.Value != nil {
			fmt.Printf("  %s %s %s\n",
				cliui.KeyStyle.Render(name+":"),
				cliui.ValueStyle.Render(fmt.Sprintf("%g %s", *entry.Value, entry.Unit)),
				cliui.DimStyle.Render(fmt.Sprintf("(%s, %s)", entry.Quality, entry.Status)),
			)
		} else {
			fmt.Printf("  %s %s\n",
				cliui.KeyStyle.Render(name+":"),
				cliui.DimStyle.Render(fmt.Sprintf("unavailable (%s)", entry.Status)),
			)
		}

		if entry.Detail != "" {
			fmt.Printf("      %s\n", cliui.DimStyle.Render(entry.Detail))
		}
	}

	fmt.Println()
	return nil
}

func (c *signalsCommander) fetchSignals() (*api.SignalsResponse, error) {
	signalsURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	signalsURL.Path = "/signals"
	q := signalsURL.Query()
	q.Set("query", c.query)
	signalsURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, signalsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating signals request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Atmos API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signals request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.SignalsResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse signals response: %w", err)
	}

	return &output, nil
}
