// Package envelope implements the passphrase encryption containers used to
// store chat contents.
//
// An envelope is a self-describing authenticated container: it carries
// everything needed to re-derive the key from a passphrase and to detect a
// wrong passphrase. Two schemes are available:
//
//	age       age v1 file with a single scrypt recipient
//	argon2id  "WCENV1" || id || params || salt || nonce || XChaCha20-Poly1305(ct)
//
// Codec seals with one scheme and opens any registered scheme, choosing
// it from the leading bytes of the envelope.
package envelope

import "fmt"

// Scheme names accepted by New.
const (
	SchemeAge      = "age"
	SchemeArgon2id = "argon2id"
)

// Scheme is one passphrase envelope format.
type Scheme interface {
	// Name returns the configuration name of the scheme.
	Name() string

	// Detect reports whether data starts with this scheme's header.
	Detect(data []byte) bool

	// Seal encrypts plaintext under passphrase.
	Seal(plaintext []byte, passphrase string) ([]byte, error)

	// Open decrypts an envelope produced by Seal.
	Open(data []byte, passphrase string) ([]byte, error)
}

// Options configures the schemes built by New.
type Options struct {
	// ScryptWorkFactor is log2(N) for age scrypt sealing. Zero means DefaultScryptWorkFactor.
	ScryptWorkFactor int

	// Argon2 holds the argon2id parameters. Zero value means DefaultArgon2Params.
	Argon2 Argon2Params
}

// New returns the scheme registered under name.
func New(name string, opts Options) (Scheme, error) {
	switch name {
	case SchemeAge:
		return NewAgeScheme(opts.ScryptWorkFactor)
	case SchemeArgon2id:
		return NewArgon2Scheme(opts.Argon2)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// Codec seals with a single scheme and opens envelopes of any scheme it knows.
type Codec struct {
	sealer  Scheme
	schemes []Scheme
}

// NewCodec creates a Codec that seals with sealer. Envelopes written by
// sealer or by any of the extra schemes can be opened.
func NewCodec(sealer Scheme, extra ...Scheme) *Codec {
	schemes := make([]Scheme, 0, 1+len(extra))
	schemes = append(schemes, sealer)
	for _, s := range extra {
		if s != nil && s.Name() != sealer.Name() {
			schemes = append(schemes, s)
		}
	}
	return &Codec{sealer: sealer, schemes: schemes}
}

// NewDefaultCodec seals with the named scheme and opens both age and
// argon2id envelopes, so data written under a previous setting stays readable.
func NewDefaultCodec(name string, opts Options) (*Codec, error) {
	sealer, err := New(name, opts)
	if err != nil {
		return nil, err
	}
	var extra []Scheme
	for _, other := range []string{SchemeAge, SchemeArgon2id} {
		if other == name {
			continue
		}
		s, err := New(other, opts)
		if err != nil {
			return nil, err
		}
		extra = append(extra, s)
	}
	return NewCodec(sealer, extra...), nil
}

// SealerName returns the name of the scheme used for sealing.
func (c *Codec) SealerName() string {
	return c.sealer.Name()
}

// Seal encrypts plaintext under passphrase with the sealing scheme.
func (c *Codec) Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return c.sealer.Seal(plaintext, passphrase)
}

// Open detects the envelope scheme and decrypts data under passphrase.
func (c *Codec) Open(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	s, err := c.Detect(data)
	if err != nil {
		return nil, err
	}
	return s.Open(data, passphrase)
}

// Detect returns the scheme that produced data.
func (c *Codec) Detect(data []byte) (Scheme, error) {
	for _, s := range c.schemes {
		if s.Detect(data) {
			return s, nil
		}
	}
	return nil, ErrUnknownFormat
}
