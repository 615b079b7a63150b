package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// argon2Magic opens every argon2id envelope.
	argon2Magic = "WCENV1"

	// argon2SchemeID follows the magic and identifies the KDF/AEAD pair.
	argon2SchemeID byte = 0x01

	// Argon2SaltLen is the KDF salt length in bytes.
	Argon2SaltLen = 16

	// Argon2KeyLen is the derived key length (XChaCha20-Poly1305 key).
	Argon2KeyLen = chacha20poly1305.KeySize

	// argon2HeaderLen = magic + id + time(4) + memory(4) + threads(1) + salt + nonce.
	argon2HeaderLen = len(argon2Magic) + 1 + 4 + 4 + 1 + Argon2SaltLen + chacha20poly1305.NonceSizeX

	// Upper bounds accepted when opening, so a crafted header cannot
	// make a reader allocate unbounded memory.
	maxArgon2Time    = 16
	maxArgon2Memory  = 1024 * 1024 // 1 GiB in KiB
	maxArgon2Threads = 64
)

// Argon2Params holds the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32 // passes over memory
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params follows the OWASP minimum recommendation.
var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024, // 64 MiB
	Threads: 4,
}

func (p Argon2Params) validate() error {
	if p.Time == 0 || p.Time > maxArgon2Time {
		return fmt.Errorf("%w: argon2 time %d", ErrInvalidParams, p.Time)
	}
	if p.Memory < 8*uint32(p.Threads) || p.Memory > maxArgon2Memory {
		return fmt.Errorf("%w: argon2 memory %d KiB", ErrInvalidParams, p.Memory)
	}
	if p.Threads == 0 || p.Threads > maxArgon2Threads {
		return fmt.Errorf("%w: argon2 threads %d", ErrInvalidParams, p.Threads)
	}
	return nil
}

// Argon2Scheme seals with argon2id key derivation and XChaCha20-Poly1305.
// The whole header is bound to the ciphertext as additional data, so
// tampering with the cost parameters fails authentication.
type Argon2Scheme struct {
	params Argon2Params
}

// NewArgon2Scheme creates an argon2id scheme. Zero params select DefaultArgon2Params.
func NewArgon2Scheme(params Argon2Params) (*Argon2Scheme, error) {
	if params == (Argon2Params{}) {
		params = DefaultArgon2Params
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Argon2Scheme{params: params}, nil
}

// Name returns "argon2id".
func (s *Argon2Scheme) Name() string { return SchemeArgon2id }

// Params returns the parameters used when sealing.
func (s *Argon2Scheme) Params() Argon2Params { return s.params }

// Detect reports whether data starts with the argon2id envelope magic.
func (s *Argon2Scheme) Detect(data []byte) bool {
	return len(data) > len(argon2Magic) &&
		bytes.HasPrefix(data, []byte(argon2Magic)) &&
		data[len(argon2Magic)] == argon2SchemeID
}

func deriveArgon2Key(passphrase string, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, Argon2KeyLen)
}

// Seal encrypts plaintext under passphrase.
//
// Output format: magic(6) || id(1) || time(4) || memory(4) || threads(1) ||
// salt(16) || nonce(24) || XChaCha20-Poly1305(key, nonce, plaintext, header)
func (s *Argon2Scheme) Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("envelope: failed to generate salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("envelope: failed to generate nonce: %w", err)
	}

	header := make([]byte, 0, argon2HeaderLen)
	header = append(header, argon2Magic...)
	header = append(header, argon2SchemeID)
	header = binary.BigEndian.AppendUint32(header, s.params.Time)
	header = binary.BigEndian.AppendUint32(header, s.params.Memory)
	header = append(header, s.params.Threads)
	header = append(header, salt...)
	header = append(header, nonce...)

	aead, err := chacha20poly1305.NewX(deriveArgon2Key(passphrase, salt, s.params))
	if err != nil {
		return nil, fmt.Errorf("envelope: AEAD creation failed: %w", err)
	}

	out := make([]byte, len(header), len(header)+len(plaintext)+aead.Overhead())
	copy(out, header)
	return aead.Seal(out, nonce, plaintext, header), nil
}

// Open decrypts an argon2id envelope.
func (s *Argon2Scheme) Open(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if !s.Detect(data) {
		return nil, ErrUnknownFormat
	}
	if len(data) < argon2HeaderLen+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: argon2id envelope truncated (%d bytes)", ErrInvalidEnvelope, len(data))
	}

	off := len(argon2Magic) + 1
	p := Argon2Params{
		Time:    binary.BigEndian.Uint32(data[off:]),
		Memory:  binary.BigEndian.Uint32(data[off+4:]),
		Threads: data[off+8],
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	off += 9
	salt := data[off : off+Argon2SaltLen]
	off += Argon2SaltLen
	nonce := data[off : off+chacha20poly1305.NonceSizeX]

	header := data[:argon2HeaderLen]
	ciphertext := data[argon2HeaderLen:]

	aead, err := chacha20poly1305.NewX(deriveArgon2Key(passphrase, salt, p))
	if err != nil {
		return nil, fmt.Errorf("envelope: AEAD creation failed: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
