package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// BlobExt is the file extension used for stored chats.
const BlobExt = ".txt"

// FileStore implements Store using the local filesystem.
// Each chat is stored at {baseDir}/{name}.txt and contains exactly the
// blob handed to Put, with no additional framing.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a new file-based chat store.
// The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &FileStore{
		baseDir: baseDir,
	}, nil
}

// NameToPath converts a chat name to its filesystem path.
func NameToPath(baseDir, name string) string {
	return filepath.Join(baseDir, name+BlobExt)
}

// BaseDir returns the directory holding the chat files.
func (fs *FileStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FileStore) filePath(name string) string {
	return NameToPath(fs.baseDir, name)
}

// Put stores blob under name.
func (fs *FileStore) Put(name string, blob []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(blob) == 0 {
		return ErrEmptyContent
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := writeFileAtomic(fs.filePath(name), blob); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so readers in other processes see the old or the new blob
// and never a partial one.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get retrieves the blob stored under name.
func (fs *FileStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return data, nil
}

// Has checks if a blob exists for name.
func (fs *FileStore) Has(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := os.Stat(fs.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return true, nil
}

// Delete removes the blob stored under name.
func (fs *FileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}

// Size returns the size in bytes of the blob stored under name.
func (fs *FileStore) Size(name string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, err := os.Stat(fs.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return info.Size(), nil
}

// List returns all stored chat names by scanning the base directory.
// Files that do not look like chats are skipped.
func (fs *FileStore) List() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), BlobExt)
		if !ok || !ValidName(name) {
			continue
		}
		result = append(result, name)
	}
	sort.Strings(result)

	return result, nil
}

// Close is a no-op for FileStore.
func (fs *FileStore) Close() error {
	return nil
}
