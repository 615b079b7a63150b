// Package chat implements the password-gated chat store.
//
// A chat is a named record holding salt || envelope, where salt is a random
// 32 character string fixed at creation and envelope is the chat text
// sealed under the passphrase password || salt. Posting to a chat prepends
// the new text and re-seals with the same salt; the text is then capped so
// the oldest bytes fall off once the cap is exceeded.
//
// Every operation validates its credentials before touching storage.
// By default there is no locking between operations: two concurrent posts
// to one chat both read the old text and the later write wins. Pass
// WithLocker to serialise read-modify-write per chat.
package chat

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/whochat/envelope"
	"github.com/bitfsorg/whochat/lock"
	"github.com/bitfsorg/whochat/storage"
)

// DefaultCap is the default number of plaintext bytes a chat retains.
const DefaultCap = 40

// Operation names reported to observers.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpAppend = "append"
	OpDelete = "delete"
	// OpPost is reported when a post is rejected before it is known
	// whether it would create or append.
	OpPost = "post"
)

// Observer is notified once per completed operation.
type Observer interface {
	Observe(op string, err error, elapsed time.Duration)
}

// Store is the encrypted chat record store.
type Store struct {
	backend  storage.Store
	codec    *envelope.Codec
	locker   lock.Locker
	cap      int
	log      zerolog.Logger
	observer Observer
}

// Option configures a Store.
type Option func(*Store)

// WithCap sets the number of plaintext bytes retained per chat.
// Values below 1 are ignored.
func WithCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithLocker serialises read-modify-write sequences per chat name.
func WithLocker(l lock.Locker) Option {
	return func(s *Store) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithLogger sets the logger used for per-operation debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver registers an observer for completed operations.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore creates a chat store over backend, sealing with codec.
func NewStore(backend storage.Store, codec *envelope.Codec, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		codec:   codec,
		locker:  lock.Nop(),
		cap:     DefaultCap,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cap returns the number of plaintext bytes retained per chat.
func (s *Store) Cap() int { return s.cap }

// Create stores content as a new chat under a fresh salt.
// The caller must ensure no chat exists under name; an existing record is
// overwritten. Post performs that check.
func (s *Store) Create(name, password, content string) error {
	start := time.Now()
	err := s.withLock(name, password, func() error {
		return s.create(name, password, content)
	})
	s.done(OpCreate, name, start, err)
	return err
}

// Read returns the text of chat name.
func (s *Store) Read(name, password string) (string, error) {
	start := time.Now()
	var text string
	err := Validate(name, password)
	if err == nil {
		text, _, err = s.read(name, password)
	}
	s.done(OpRead, name, start, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Append prepends content to an existing chat and re-seals it with the
// chat's original salt. Read errors are returned unchanged.
func (s *Store) Append(name, password, content string) error {
	start := time.Now()
	err := s.withLock(name, password, func() error {
		return s.append(name, password, content)
	})
	s.done(OpAppend, name, start, err)
	return err
}

// Delete removes chat name after proving the password opens it.
func (s *Store) Delete(name, password string) error {
	start := time.Now()
	err := s.withLock(name, password, func() error {
		if _, _, err := s.read(name, password); err != nil {
			return err
		}
		if err := s.backend.Delete(name); err != nil {
			return fmt.Errorf("%w: remove chat: %w", ErrInternal, err)
		}
		return nil
	})
	s.done(OpDelete, name, start, err)
	return err
}

// Exists reports whether a chat is stored under name.
func (s *Store) Exists(name string) (bool, error) {
	if !storage.ValidName(name) {
		return false, ErrInvalidName
	}
	ok, err := s.backend.Has(name)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return ok, nil
}

// Post validates the credentials and content, then creates the chat if it
// does not exist or appends to it if it does. It reports whether a new
// chat was created. With a locker configured the existence check and the
// write happen under one lock.
func (s *Store) Post(name, password, content string) (created bool, err error) {
	start := time.Now()
	if err = Validate(name, password); err == nil {
		err = ValidateContent(content)
	}
	if err != nil {
		s.done(OpPost, name, start, err)
		return false, err
	}

	op := OpAppend
	err = s.withLock(name, password, func() error {
		exists, err := s.Exists(name)
		if err != nil {
			return err
		}
		if !exists {
			op = OpCreate
			created = true
			return s.create(name, password, content)
		}
		return s.append(name, password, content)
	})
	s.done(op, name, start, err)
	if err != nil {
		return false, err
	}
	return created, nil
}

// withLock validates the credentials, then runs fn under the chat's lock.
func (s *Store) withLock(name, password string, fn func() error) error {
	if err := Validate(name, password); err != nil {
		return err
	}
	unlock, err := s.locker.Lock(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	defer unlock()
	return fn()
}

func (s *Store) create(name, password, content string) error {
	salt, err := GenerateSalt()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return s.write(name, password, salt, content)
}

func (s *Store) append(name, password, content string) error {
	old, salt, err := s.read(name, password)
	if err != nil {
		return err
	}
	return s.write(name, password, salt, content+old)
}

// read loads, splits and opens the record of chat name.
func (s *Store) read(name, password string) (text, salt string, err error) {
	record, err := s.backend.Get(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", ErrChatNotFound
		}
		return "", "", fmt.Errorf("%w: %w", ErrInternal, err)
	}

	salt, env, err := SplitRecord(record)
	if err != nil {
		return "", "", err
	}

	plaintext, err := s.codec.Open(env, passphrase(password, salt))
	if err != nil {
		switch {
		case errors.Is(err, envelope.ErrDecryptionFailed):
			return "", "", ErrWrongPassword
		case errors.Is(err, envelope.ErrUnknownFormat), errors.Is(err, envelope.ErrInvalidEnvelope):
			return "", "", fmt.Errorf("%w: %w", ErrDataCorruption, err)
		default:
			return "", "", fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}
	if !utf8.Valid(plaintext) {
		return "", "", fmt.Errorf("%w: content is not valid UTF-8", ErrDataCorruption)
	}
	return string(plaintext), salt, nil
}

// write caps content, seals it under password || salt and stores
// salt || envelope.
func (s *Store) write(name, password, salt, content string) error {
	capped := Truncate(content, s.cap)
	env, err := s.codec.Seal([]byte(capped), passphrase(password, salt))
	if err != nil {
		return fmt.Errorf("%w: seal: %w", ErrInternal, err)
	}
	if err := s.backend.Put(name, joinRecord(salt, env)); err != nil {
		return fmt.Errorf("%w: store chat: %w", ErrInternal, err)
	}
	return nil
}

func (s *Store) done(op, name string, start time.Time, err error) {
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.Observe(op, err, elapsed)
	}
	ev := s.log.Debug()
	if err != nil && Kind(err) == ErrInternal {
		ev = s.log.Error()
	}
	ev.Str("op", op).
		Str("chat", name).
		Str("result", Label(err)).
		Dur("elapsed", elapsed).
		AnErr("error", err).
		Msg("chat operation")
}
