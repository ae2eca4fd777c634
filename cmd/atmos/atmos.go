// Package atmoscmder
package atmoscmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/atmoslabs/atmos/cmd/atmos/ask"
	configcmder "github.com/atmoslabs/atmos/cmd/atmos/config"
	ingestcmder "github.com/atmoslabs/atmos/cmd/atmos/ingest"
	initcmder "github.com/atmoslabs/atmos/cmd/atmos/init"
	servecmder "github.com/atmoslabs/atmos/cmd/atmos/serve"
	signalscmder "github.com/atmoslabs/atmos/cmd/atmos/signals"
	versioncmder "github.com/atmoslabs/atmos/cmd/version"
)

const atmosLongDesc string = `Atmos answers climate questions by fusing a local document corpus
with live climate data.

Run the server using:
  atmos serve          Run the API and MCP servers

Work with a running server using:
  atmos ingest         Add documents to the corpus
  atmos ask            Ask a climate question
  atmos signals        Fetch live climate signals for a query`

const atmosShortDesc string = "Atmos - Climate Question Answering"

func NewAtmosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atmos",
		Short: atmosShortDesc,
		Long:  atmosLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .atmos/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(signalscmder.NewSignalsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
