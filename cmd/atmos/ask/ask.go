// Package askcmder provides the ask command for querying a running atmos server.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiask "github.com/atmoslabs/atmos/api/ask"
	"github.com/atmoslabs/atmos/pkg/cliui"
	"github.com/atmoslabs/atmos/pkg/config"
	"github.com/atmoslabs/atmos/pkg/fusion"
	"github.com/atmoslabs/atmos/pkg/logger"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/utils"
)

var (
	qualityStyles = map[signals.Quality]lipgloss.Style{
		signals.QualityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		signals.QualityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		signals.QualityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	signalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type askCommander struct {
	query   string
	topK    int
	sources bool
	raw     bool

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const askLongDesc string = `Ask a climate question via the Atmos API.

The answer fuses relevant passages from the ingested corpus with live
climate signals (weather, emissions, irradiance). Every answer carries a
quality label: high when strong evidence and fresh signals back it,
medium when some evidence degraded, low when the answer rests on
fallbacks alone.

Requires a running Atmos API server.

Examples:
  atmos ask "How much CO2 does Germany emit per capita?"
  atmos ask "Is solar power viable in northern Europe?" --top 10
  atmos ask "What drives sea level rise?" --sources
  atmos ask "current warming trends" --raw | jq .overall_quality`

const askShortDesc string = "Ask a climate question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
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
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 0, "Number of passages to retrieve (0 uses the server default)")
	cmd.Flags().BoolVar(&cmder.sources, "sources", false, "Show source attributions alongside the answer")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Output the raw answer record as JSON (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Atmos API server URL")

	return cmd
}

func (c *askCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	record, err := AskAPI(c.apiTarget, apiask.Input{
		Query:          c.query,
		TopK:           c.topK,
		IncludeSources: c.sources,
	})
	if err != nil {
		return err
	}

	if c.raw {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding answer record: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	c.printRecord(record)
	return nil
}

func (c *askCommander) printRecord(record *fusion.AnswerRecord) {
	rendered, err := cliui.RenderMarkdown(record.AnswerText)
	if err != nil {
		rendered = "\n" + record.AnswerText + "\n"
	}
	fmt.Print(rendered)

	quality := string(record.OverallQuality)
	style, ok := qualityStyles[record.OverallQuality]
	if !ok {
		style = signalStyle
	}

	fmt.Printf("  %s %s", cliui.HeaderStyle.Render("Quality:"), style.Render(quality))
	if record.Backend != "" {
		fmt.Printf("  %s", cliui.DimStyle.Render("via "+record.Backend))
	}
	fmt.Println()

	if len(record.Signals) > 0 {
		fmt.Printf("\n  %s\n", cliui.HeaderStyle.Render("Live signals"))
		for _, name := range sortedSignalNames(record.Signals) {
			entry := record.Signals[name]
			if entry.Value != nil {
				fmt.Printf("    %s %s %s\n",
					sourceStyle.Render(name+":"),
					signalStyle.Render(fmt.Sprintf("%g %s", *entry.Value, entry.Unit)),
					cliui.DimStyle.Render(fmt.Sprintf("(%s, %s)", entry.Quality, entry.Status)),
				)
			} else {
				fmt.Printf("    %s %s\n",
					sourceStyle.Render(name+":"),
					cliui.DimStyle.Render(fmt.Sprintf("unavailable (%s)", entry.Status)),
				)
			}
		}
	}

	if c.sources && len(record.Sources) > 0 {
		fmt.Printf("\n  %s\n", cliui.HeaderStyle.Render("Sources"))
		for i, src := range record.Sources {
			fmt.Printf("    %s %s %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("[%d]", i+1)),
				scoreStyle.Render(fmt.Sprintf("%.2f", src.Score)),
				sourceStyle.Render(src.ChunkID),
			)
			fmt.Printf("        %s\n", signalStyle.Render(utils.Truncate(src.Excerpt, 100)))
		}
	}

	fmt.Println()
}

func sortedSignalNames(bundle signals.Bundle) []string {
	names := make([]string, 0, len(bundle))
	for name := range bundle {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AskAPI calls the atmos ask API and returns the parsed answer record.
func AskAPI(apiTarget string, input apiask.Input) (*fusion.AnswerRecord, error) {
	askURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	askURL.Path = "/ask"

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encoding ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, askURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Atmos API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ask request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var record fusion.AnswerRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}

	return &record, nil
}
