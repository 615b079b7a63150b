// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the whochat configuration.
//
// The configuration lives in a TOML file, by default <datadir>/config.toml.
// Keys missing from the file keep their DefaultConfig values and unknown
// keys are ignored, so older files keep working as options are added.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/bitfsorg/whochat/envelope"
)

// ConfigFileName is the name of the configuration file inside the data directory.
const ConfigFileName = "config.toml"

// Backend names.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Locking modes.
const (
	LockingNone    = "none"
	LockingProcess = "process"
	LockingFile    = "file"
)

// DefaultContentCap is the number of plaintext bytes a chat retains.
const DefaultContentCap = 40

// Config holds every tunable of a whochat deployment.
type Config struct {
	DataDir          string `toml:"datadir"`
	ListenAddr       string `toml:"listen"`
	Backend          string `toml:"backend"`
	Envelope         string `toml:"envelope"`
	ScryptWorkFactor int    `toml:"scrypt_work_factor"`
	ContentCap       int    `toml:"content_cap"`
	Locking          string `toml:"locking"`
	MaxBodyBytes     int64  `toml:"max_body_bytes"`
	LogLevel         string `toml:"loglevel"`
	LogFile          string `toml:"logfile"`
	LogPretty        bool   `toml:"logpretty"`
}

// DefaultDataDir returns ~/.whochat, or ".whochat" when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".whochat"
	}
	return filepath.Join(home, ".whochat")
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		ListenAddr:       "127.0.0.1:8080",
		Backend:          BackendFile,
		Envelope:         envelope.SchemeAge,
		ScryptWorkFactor: envelope.DefaultScryptWorkFactor,
		ContentCap:       DefaultContentCap,
		Locking:          LockingNone,
		MaxBodyBytes:     64 * 1024,
		LogLevel:         "info",
	}
}

// ConfigPath returns the configuration file path for dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// ChatsDir returns the directory holding one file per chat.
func (c Config) ChatsDir() string {
	return filepath.Join(c.DataDir, "chats")
}

// BoltPath returns the bbolt database path used by the bolt backend.
func (c Config) BoltPath() string {
	return filepath.Join(c.DataDir, "chats.db")
}

// LocksDir returns the directory holding advisory lock files.
func (c Config) LocksDir() string {
	return filepath.Join(c.DataDir, "locks")
}

// LoadConfig reads the TOML file at path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("config: close file: %w", cerr)
		}
	}()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}
