package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/whochat/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage whochat configuration",
		Long: `Provides commands for managing the whochat config file.

Examples:
  # Write a default config file
  whochat config init

  # Print the effective configuration
  whochat config show`,
	}
	cmd.AddCommand(newConfigInitCmd(root), newConfigShowCmd(root))
	return cmd
}

func newConfigInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.resolveConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("!")+" Config already exists at "+path)
				fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("→")+" Use "+color.YellowString("--force")+" to overwrite it")
				return nil
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config: %w", err)
			}

			cfg := config.DefaultConfig()
			if root.dataDir != "" {
				cfg.DataDir = root.dataDir
			}
			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote config to %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# "+root.resolveConfigPath())
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}
