package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

const (
	// DefaultScryptWorkFactor matches age's own default (N = 2^18).
	DefaultScryptWorkFactor = 18

	// MinScryptWorkFactor and MaxScryptWorkFactor bound the accepted work factor.
	// Opening refuses envelopes above MaxScryptWorkFactor.
	MinScryptWorkFactor = 10
	MaxScryptWorkFactor = 22
)

// ageHeader is the first line of every binary age file.
var ageHeader = []byte("age-encryption.org/v1\n")

// AgeScheme seals with an age scrypt recipient.
type AgeScheme struct {
	workFactor int
}

// NewAgeScheme creates an age scheme using 2^workFactor scrypt iterations.
// A zero workFactor selects DefaultScryptWorkFactor.
func NewAgeScheme(workFactor int) (*AgeScheme, error) {
	if workFactor == 0 {
		workFactor = DefaultScryptWorkFactor
	}
	if workFactor < MinScryptWorkFactor || workFactor > MaxScryptWorkFactor {
		return nil, fmt.Errorf("%w: scrypt work factor %d not in [%d, %d]",
			ErrInvalidParams, workFactor, MinScryptWorkFactor, MaxScryptWorkFactor)
	}
	return &AgeScheme{workFactor: workFactor}, nil
}

// Name returns "age".
func (s *AgeScheme) Name() string { return SchemeAge }

// WorkFactor returns log2 of the scrypt cost used when sealing.
func (s *AgeScheme) WorkFactor() int { return s.workFactor }

// Detect reports whether data is a binary age file.
func (s *AgeScheme) Detect(data []byte) bool {
	return bytes.HasPrefix(data, ageHeader)
}

// Seal encrypts plaintext to a single scrypt recipient.
func (s *AgeScheme) Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	r, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("envelope: age recipient: %w", err)
	}
	r.SetWorkFactor(s.workFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, r)
	if err != nil {
		return nil, fmt.Errorf("envelope: age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("envelope: age write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("envelope: age close: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts an age scrypt envelope. A passphrase that does not unwrap
// the file key yields ErrDecryptionFailed; a header age cannot parse, or
// one demanding more than MaxScryptWorkFactor, yields ErrInvalidEnvelope.
func (s *AgeScheme) Open(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if !s.Detect(data) {
		return nil, ErrUnknownFormat
	}
	id, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("envelope: age identity: %w", err)
	}
	id.SetMaxWorkFactor(MaxScryptWorkFactor)

	r, err := age.Decrypt(bytes.NewReader(data), id)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity) {
			return nil, ErrDecryptionFailed
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		// Header MAC passed but the payload stream did not authenticate.
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
