package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netmagis/netmagis-ui/internal/devbackend"
	"github.com/netmagis/netmagis-ui/internal/errors"
)

func backendCmd(configPath *string) *cobra.Command {
	var (
		listen  string
		bundles string
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Start the development backend",
		Long: `Start a development backend serving capabilities, translation
bundles, login and logout under the configured prefix.

Bundles are read from a directory of <lang>.json or <lang>.yaml files,
or from an S3 bucket when backend.bundles.s3.bucket is set.

Examples:
  netmagis-ui backend --bundles=./bundles --secret=dev
  NETMAGIS_UI_SECRET=dev netmagis-ui backend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Backend.Listen = listen
			}
			if bundles != "" {
				cfg.Backend.Bundles.Dir = bundles
			}
			if secret == "" {
				secret = os.Getenv("NETMAGIS_UI_SECRET")
			}
			if secret != "" {
				cfg.Backend.Secret = secret
			}

			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}

			b, err := devbackend.New(cfg.Backend, devbackend.NewBundleSource(cfg.Backend.Bundles), devbackend.WithLogger(logger))
			if err != nil {
				return errors.New("N141").
					WithSuggestion("Set backend.secret, --secret or NETMAGIS_UI_SECRET").
					Wrap(err)
			}

			srv := &http.Server{
				Addr:              cfg.Backend.Listen,
				Handler:           b.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return listenAndServe(cmd.Context(), srv, logger, "development backend listening", "prefix", cfg.Backend.Prefix)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&bundles, "bundles", "b", "", "Bundle directory (default from config)")
	cmd.Flags().StringVar(&secret, "secret", "", "Session signing secret")

	cmd.AddCommand(hashCmd())
	return cmd
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt hash for the users section of the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := devbackend.HashPassword(args[0])
			if err != nil {
				return errors.New("N120").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
