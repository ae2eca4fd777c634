// Package initcmder provides the init command for initializing a local .atmos
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atmoslabs/atmos/pkg/config"
)

const (
	dirName = ".atmos"
)

const initLongDesc string = `Initialize a new .atmos/ directory in the current working directory.

Creates a local .atmos/ directory that takes precedence over the default
~/.atmos/ directory for storage, configuration, and other atmos operations,
and writes a config.toml with default values.

With --preset, the config is seeded from a named backend preset or fetched
from a remote config.toml URL. Re-running with a preset overwrites the
existing config; without one, an existing config is left untouched.

This is useful for maintaining a separate corpus and configuration per
project or directory.

Examples:
  atmos init
  atmos init --preset anthropic
  atmos init --preset https://example.com/atmos-config.toml`

const initShortDesc string = "Initialize a local .atmos/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Config preset name (ollama, anthropic) or remote config.toml URL")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	alreadyInitialized := err == nil && info.IsDir()

	if !alreadyInitialized {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .atmos directory: %w", err)
		}
	}

	if err := writeConfig(dir, preset, alreadyInitialized); err != nil {
		return err
	}

	if alreadyInitialized {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		fmt.Printf("Initialized .atmos directory: %s\n", dir)
	}
	return nil
}

// writeConfig seeds config.toml. Without a preset, an existing config is
// preserved; a preset always overwrites.
func writeConfig(dir, preset string, alreadyInitialized bool) error {
	configPath := filepath.Join(dir, "config.toml")

	var cfg *config.Config
	switch {
	case preset == "":
		if _, err := os.Stat(configPath); err == nil {
			return nil
		}
		cfg = config.NewDefaultConfig()

	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		fetched, err := fetchRemoteConfig(preset)
		if err != nil {
			return err
		}
		cfg = fetched

	default:
		named, err := config.PresetConfig(preset)
		if err != nil {
			return err
		}
		cfg = named
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("preparing config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// fetchRemoteConfig downloads and parses a config.toml from a URL.
func fetchRemoteConfig(url string) (*config.Config, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
