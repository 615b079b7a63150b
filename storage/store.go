// Package storage persists opaque chat blobs keyed by chat name.
//
// Two backends are provided: FileStore keeps one file per chat under a
// base directory, BoltStore keeps every chat in a single bbolt database.
// Neither backend looks inside the blobs; encryption is the caller's job.
package storage

import "fmt"

// Store provides name-keyed storage for encrypted chat blobs.
// Names must be non-empty ASCII alphanumeric strings.
type Store interface {
	// Put stores blob under name, replacing any previous value.
	Put(name string, blob []byte) error

	// Get retrieves the blob stored under name.
	Get(name string) ([]byte, error)

	// Has checks if a blob exists for name.
	Has(name string) (bool, error)

	// Delete removes the blob stored under name.
	Delete(name string) error

	// Size returns the size in bytes of the blob stored under name.
	Size(name string) (int64, error)

	// List returns all stored names in lexical order.
	List() ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// ValidName reports whether name can be used as a storage key.
// Only ASCII letters and digits are accepted so a name can never
// escape the base directory or collide with internal files.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// validateName checks that name is a usable storage key.
func validateName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
