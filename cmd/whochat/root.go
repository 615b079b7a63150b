package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/whochat/config"
	"github.com/bitfsorg/whochat/logging"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dataDir    string
	verbose    bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "whochat",
		Short: "Password-protected encrypted chats",
		Long: `whochat stores short chats encrypted under a per-chat password.

Anyone who knows a chat's name and password can read it, post to it or
delete it. Posts are prepended and old text falls off once the chat
reaches its size cap.

Examples:
  # Serve the HTTP API
  whochat serve

  # Post to a chat in the local data directory
  whochat post lobby "hello there"

  # Read a chat from a running server
  whochat get lobby --server http://127.0.0.1:8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default <datadir>/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "datadir", "", "data directory (default ~/.whochat)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug output")

	cmd.AddCommand(
		newServeCmd(opts),
		newGetCmd(opts),
		newPostCmd(opts),
		newDeleteCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// resolveConfigPath returns the config file the flags point at.
func (o *rootOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	dir := o.dataDir
	if dir == "" {
		dir = config.DefaultDataDir()
	}
	return config.ConfigPath(dir)
}

// loadConfig loads and validates the effective config. A missing config
// file yields the defaults; --datadir overrides the file.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(o.resolveConfigPath())
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) || o.configPath != "" {
			return config.Config{}, err
		}
		cfg = config.DefaultConfig()
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openLogger builds the logger for a command. Interactive commands stay
// quiet unless --verbose or --debug is set; serve always logs at the
// configured level.
func (o *rootOptions) openLogger(cfg config.Config, interactive bool) (zerolog.Logger, io.Closer, error) {
	switch {
	case o.debug:
		cfg.LogLevel = "debug"
	case o.verbose:
		cfg.LogLevel = "info"
	case interactive:
		cfg.LogLevel = "error"
	}
	return logging.Open(cfg)
}
