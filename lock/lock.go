// Package lock serialises read-modify-write sequences on a single chat.
//
// Without a locker, two concurrent posts to the same chat both read the
// old state and the later write wins. KeyedLocker closes that window
// inside one process; FileLocker also excludes other processes sharing
// the data directory by locking <dir>/<name>.lock (flock on unix,
// LockFileEx on windows).
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitfsorg/whochat/storage"
)

var (
	// ErrLockHeld indicates a non-blocking lock attempt found the lock taken.
	ErrLockHeld = errors.New("lock: held by another owner")

	// ErrInvalidName indicates a lock name that cannot be used as a file name.
	ErrInvalidName = errors.New("lock: invalid name")

	// ErrUnknownMode indicates an unrecognised locking mode.
	ErrUnknownMode = errors.New("lock: unknown mode")
)

// Modes accepted by New.
const (
	ModeNone    = "none"
	ModeProcess = "process"
	ModeFile    = "file"
)

// Unlock releases a lock obtained from a Locker. It must be called exactly once.
type Unlock func()

// Locker hands out exclusive per-name locks.
type Locker interface {
	Lock(name string) (Unlock, error)
}

// New returns the locker for mode. dir is only used by ModeFile.
func New(mode, dir string) (Locker, error) {
	switch mode {
	case "", ModeNone:
		return Nop(), nil
	case ModeProcess:
		return NewKeyed(), nil
	case ModeFile:
		return NewFileLocker(dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

type nopLocker struct{}

// Nop returns a Locker that never blocks, leaving concurrent writers to
// race with last-write-wins.
func Nop() Locker { return nopLocker{} }

func (nopLocker) Lock(string) (Unlock, error) { return func() {}, nil }

// KeyedLocker is an in-process mutex per name. Entries are dropped once
// no goroutine holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyed creates an empty KeyedLocker.
func NewKeyed() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until name is free and returns its release function.
func (k *KeyedLocker) Lock(name string) (Unlock, error) {
	k.mu.Lock()
	e, ok := k.locks[name]
	if !ok {
		e = &keyedEntry{}
		k.locks[name] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, name)
			}
			k.mu.Unlock()
		})
	}, nil
}

// Len returns the number of names currently held or awaited.
func (k *KeyedLocker) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// FileLocker combines a KeyedLocker with an advisory flock per name.
type FileLocker struct {
	dir   string
	keyed *KeyedLocker
}

// NewFileLocker creates a FileLocker keeping lock files in dir.
func NewFileLocker(dir string) (*FileLocker, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty lock directory", ErrInvalidName)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("lock: create directory: %w", err)
	}
	return &FileLocker{dir: dir, keyed: NewKeyed()}, nil
}

// Path returns the lock file used for name.
func (f *FileLocker) Path(name string) string {
	return filepath.Join(f.dir, name+".lock")
}

// Lock takes the in-process lock, then the file lock, for name.
func (f *FileLocker) Lock(name string) (Unlock, error) {
	if !storage.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	unlockKeyed, err := f.keyed.Lock(name)
	if err != nil {
		return nil, err
	}
	lf, err := openLockFile(f.Path(name), true)
	if err != nil {
		unlockKeyed()
		return nil, fmt.Errorf("lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lf.release()
			unlockKeyed()
		})
	}, nil
}

// TryLock attempts the file lock for name without blocking. It does not
// take the in-process lock, so it observes only locks held through files.
func (f *FileLocker) TryLock(name string) (Unlock, error) {
	if !storage.ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	lf, err := openLockFile(f.Path(name), false)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(lf.release) }, nil
}

// lockFile is an open lock file holding an OS-level exclusive lock.
type lockFile struct {
	f *os.File
}

// release drops the OS lock and closes the file.
func (l *lockFile) release() {
	l.unlock()
	_ = l.f.Close()
}
