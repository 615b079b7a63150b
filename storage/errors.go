package storage

import "errors"

var (
	// ErrNotFound indicates no blob is stored under the given name.
	ErrNotFound = errors.New("storage: content not found")

	// ErrInvalidName indicates the name is empty or not strictly alphanumeric.
	ErrInvalidName = errors.New("storage: name must be non-empty and alphanumeric")

	// ErrIOFailure indicates a file or database read/write error.
	ErrIOFailure = errors.New("storage: I/O failure")

	// ErrEmptyContent indicates an attempt to store an empty blob.
	ErrEmptyContent = errors.New("storage: content is empty")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("storage: invalid base directory")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("storage: store is closed")
)
