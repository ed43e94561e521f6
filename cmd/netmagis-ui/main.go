package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/netmagis/netmagis-ui/internal/config"
	"github.com/netmagis/netmagis-ui/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "netmagis-ui",
		Short: "Netmagis session and localization host",
		Long: `netmagis-ui keeps the session of the Netmagis web interface:
current user, granted capabilities, language and translations.

It talks to the Netmagis backend over HTTP and pushes the rendered
interface to browsers over a websocket. A small development backend
is included for local work.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default: working directory)")

	rootCmd.AddCommand(
		initCmd(),
		serveCmd(&configPath),
		backendCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads and validates the configuration.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, errors.New("N102").Wrap(err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch cfg.Log.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}
