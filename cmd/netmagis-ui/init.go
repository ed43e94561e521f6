package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/netmagis/netmagis-ui/internal/config"
	"github.com/netmagis/netmagis-ui/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a configuration file",
		Long: `Write netmagis-ui.json in dir (default: working directory).

A missing file is created with the built-in defaults. An existing file
is rewritten with every missing field filled in. Use --force to replace
a file that is not valid JSON.

Examples:
  netmagis-ui init
  netmagis-ui init /etc/netmagis --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an invalid configuration file")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)

	if !config.Exists(dir) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.New("N103").Wrap(err)
		}
		if err := config.New().SaveTo(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	}

	cfg, err := config.Load(dir)
	switch {
	case err == nil:
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", cfg.Path())
	case errors.HasCode(err, "N101") && force:
		if err := config.New().SaveTo(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Replaced %s\n", path)
	case errors.HasCode(err, "N101"):
		return errors.FromError(err, "N101").
			WithSuggestion("Fix the file or rerun with --force to replace it")
	default:
		return err
	}
	return nil
}
