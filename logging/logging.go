// Package logging builds the zerolog logger shared by the server, the CLI
// and the chat store.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/whochat/config"
)

// Logger is the logger type used across the module.
type Logger = zerolog.Logger

// ParseLevel maps a config level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// New returns a logger writing to w at the configured level. With
// LogPretty set the output is human-readable instead of JSON.
func New(cfg config.Config, w io.Writer) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Logger()
}

// Open returns a logger for cfg, writing to cfg.LogFile when set and to
// stderr otherwise. The returned closer releases the log file.
func Open(cfg config.Config) (Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return New(cfg, os.Stderr), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging: create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return New(cfg, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
