// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bitfsorg/whochat/envelope"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// minBodyBytes leaves room for a JSON body carrying a name, a password
// and a little content.
const minBodyBytes = 1024

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if cfg.Backend != BackendFile && cfg.Backend != BackendBolt {
		return ErrInvalidBackend
	}

	if cfg.Envelope != envelope.SchemeAge && cfg.Envelope != envelope.SchemeArgon2id {
		return ErrInvalidEnvelope
	}

	if cfg.ScryptWorkFactor < envelope.MinScryptWorkFactor || cfg.ScryptWorkFactor > envelope.MaxScryptWorkFactor {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidWorkFactor,
			cfg.ScryptWorkFactor, envelope.MinScryptWorkFactor, envelope.MaxScryptWorkFactor)
	}

	if cfg.ContentCap < 1 {
		return ErrInvalidContentCap
	}

	switch cfg.Locking {
	case LockingNone, LockingProcess:
	case LockingFile:
		if cfg.Backend != BackendFile {
			return fmt.Errorf("%w: file locking requires the file backend", ErrInvalidLocking)
		}
	default:
		return ErrInvalidLocking
	}

	if cfg.MaxBodyBytes < minBodyBytes {
		return fmt.Errorf("%w: %d < %d", ErrInvalidBodyLimit, cfg.MaxBodyBytes, minBodyBytes)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
