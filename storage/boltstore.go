package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketChats = []byte("chats")

// BoltStore implements Store on top of a single bbolt database.
// All chats live in the "chats" bucket keyed by name.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, ErrInvalidBaseDir
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db: %w", ErrIOFailure, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChats)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", ErrIOFailure, err)
	}

	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Put stores blob under name.
func (s *BoltStore) Put(name string, blob []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(blob) == 0 {
		return ErrEmptyContent
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChats).Put([]byte(name), blob)
	})
	return wrapBoltErr(err)
}

// Get retrieves the blob stored under name.
func (s *BoltStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketChats).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, wrapBoltErr(err)
	}
	return out, nil
}

// Has checks if a blob exists for name.
func (s *BoltStore) Has(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketChats).Get([]byte(name)) != nil
		return nil
	})
	if err != nil {
		return false, wrapBoltErr(err)
	}
	return found, nil
}

// Delete removes the blob stored under name.
func (s *BoltStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		if b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
	return wrapBoltErr(err)
}

// Size returns the size in bytes of the blob stored under name.
func (s *BoltStore) Size(name string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	var size int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketChats).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		size = int64(len(v))
		return nil
	})
	if err != nil {
		return 0, wrapBoltErr(err)
	}
	return size, nil
}

// List returns all stored chat names. bbolt iterates keys in byte order,
// which for alphanumeric names is lexical order.
func (s *BoltStore) List() ([]string, error) {
	var result []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChats).ForEach(func(k, _ []byte) error {
			result = append(result, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, wrapBoltErr(err)
	}
	return result, nil
}

// wrapBoltErr passes storage sentinels through and tags everything else
// as an I/O failure.
func wrapBoltErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return ErrClosed
	}
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}
