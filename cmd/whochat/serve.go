package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/whochat/metrics"
	"github.com/bitfsorg/whochat/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat HTTP API",
		Long: `Starts the HTTP server exposing /who_chat/get, /who_chat/post and
/who_chat/delete, plus /healthz, /readyz and /metrics.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}

			logger, logCloser, err := root.openLogger(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			rec := metrics.New(logger)
			store, backend, err := openStore(cfg, logger, rec)
			if err != nil {
				return err
			}
			defer func() {
				if err := backend.Close(); err != nil {
					logger.Error().Err(err).Msg("close backend")
				}
			}()

			logger.Info().
				Str("datadir", cfg.DataDir).
				Str("backend", cfg.Backend).
				Str("envelope", cfg.Envelope).
				Str("locking", cfg.Locking).
				Int("content_cap", cfg.ContentCap).
				Msg("whochat starting")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(store, server.Options{
				MaxBodyBytes: cfg.MaxBodyBytes,
				Logger:       logger,
				Metrics:      rec.Handler(),
			})
			return srv.ListenAndServe(ctx, cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
