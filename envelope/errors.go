package envelope

import "errors"

var (
	// ErrEmptyPassphrase indicates an empty passphrase was provided.
	ErrEmptyPassphrase = errors.New("envelope: passphrase is empty")

	// ErrDecryptionFailed indicates the envelope failed authentication.
	// A wrong passphrase and a tampered ciphertext are indistinguishable here.
	ErrDecryptionFailed = errors.New("envelope: decryption failed (wrong passphrase or corrupted data)")

	// ErrUnknownFormat indicates the data does not start with any known envelope header.
	ErrUnknownFormat = errors.New("envelope: unknown envelope format")

	// ErrInvalidEnvelope indicates a recognised envelope whose header is malformed
	// or carries parameters outside the accepted range.
	ErrInvalidEnvelope = errors.New("envelope: malformed envelope")

	// ErrInvalidParams indicates scheme parameters are out of range.
	ErrInvalidParams = errors.New("envelope: invalid scheme parameters")

	// ErrUnknownScheme indicates a scheme name that is not registered.
	ErrUnknownScheme = errors.New("envelope: unknown scheme (must be \"age\" or \"argon2id\")")
)
