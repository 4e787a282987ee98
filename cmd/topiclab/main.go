// Topic Lab - MQTT test bench
//
// This is the main entry point for the topiclab binary. It serves the HTTP
// and WebSocket API that drives a single supervised MQTT session, and carries
// a few offline commands for managing saved connection profiles.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/topiclab/internal/infrastructure/config"
	"github.com/nerrad567/topiclab/internal/profile"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnv names the environment variable that overrides the config path.
const configEnv = "TOPICLAB_CONFIG"

func main() {
	// Cancel on Ctrl+C or SIGTERM so every command can shut down cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// newRootCmd builds the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "topiclab",
		Short: "Interactive MQTT test bench",
		Long: `topiclab connects to one MQTT broker at a time, publishes from saved
buttons, subscribes to topic filters and streams received messages to
API and WebSocket clients.

The configuration file is taken from --config, then $TOPICLAB_CONFIG, then
configs/config.yaml. Built-in defaults are used when the default file is absent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(
		newServeCmd(opts),
		newProfilesCmd(opts),
		newWatchCmd(opts),
		newTokenCmd(opts),
		newHashPasswordCmd(),
		newVersionCmd(),
	)
	return root
}

// getConfigPath returns the configuration file path.
// The flag wins over TOPICLAB_CONFIG, which wins over the default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig loads the configuration named by flag. A missing default file
// falls back to built-in defaults; an explicit path must exist.
func loadConfig(flag string) (*config.Config, string, error) {
	path := getConfigPath(flag)
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// openStore loads the configuration and opens the profile store it names.
func openStore(ctx context.Context, opts *rootOptions) (profile.Store, *config.Config, error) {
	cfg, _, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := profile.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening profile store: %w", err)
	}
	return store, cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "topiclab %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
