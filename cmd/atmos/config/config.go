// Package configcmder provides the config command for managing persistent
// atmos configuration stored in the .atmos/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent atmos configuration.

Configuration is stored as config.toml in the .atmos/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_url,
  api.listen, client.api_target,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  model.provider, model.target, model.model, model.api_key,
  fallback.provider, fallback.target, fallback.model, fallback.api_key,
  signals.openweather_api_key, signals.timeout_seconds,
  retrieval.top_k, retrieval.min_score,
  chunker.max_chars, chunker.overlap_chars,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  atmos config set <key> <value>    Set a configuration value
  atmos config get <key>            Get a configuration value
  atmos config list                 List all configuration values

Examples:
  atmos config set model.provider anthropic
  atmos config set signals.openweather_api_key <key>
  atmos config get retrieval.top_k
  atmos config list`

const configShortDesc string = "Manage persistent atmos configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
