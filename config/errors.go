// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidBackend indicates the storage backend is not recognized.
	ErrInvalidBackend = errors.New("config: invalid backend (must be \"file\" or \"bolt\")")

	// ErrInvalidEnvelope indicates the envelope scheme is not recognized.
	ErrInvalidEnvelope = errors.New("config: invalid envelope (must be \"age\" or \"argon2id\")")

	// ErrInvalidWorkFactor indicates the scrypt work factor is out of range.
	ErrInvalidWorkFactor = errors.New("config: scrypt work factor out of range")

	// ErrInvalidContentCap indicates the content cap is not positive.
	ErrInvalidContentCap = errors.New("config: content cap must be positive")

	// ErrInvalidLocking indicates the locking mode is not recognized or
	// not supported by the selected backend.
	ErrInvalidLocking = errors.New("config: invalid locking mode (must be \"none\", \"process\", or \"file\")")

	// ErrInvalidBodyLimit indicates the request body limit is too small.
	ErrInvalidBodyLimit = errors.New("config: max body bytes too small")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the configuration file could not be parsed.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")
)
