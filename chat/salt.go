package chat

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// SaltLen is the length of the salt prefix of every stored record.
const SaltLen = 32

const saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSalt returns SaltLen characters drawn uniformly from [A-Za-z0-9].
func GenerateSalt() (string, error) {
	n := big.NewInt(int64(len(saltAlphabet)))

	var b strings.Builder
	b.Grow(SaltLen)
	for i := 0; i < SaltLen; i++ {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", fmt.Errorf("chat: generate salt: %w", err)
		}
		b.WriteByte(saltAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// passphrase is the envelope passphrase for a chat: the password followed
// by the chat's salt.
func passphrase(password, salt string) string {
	return password + salt
}

// SplitRecord separates a stored record into its salt and envelope.
func SplitRecord(record []byte) (salt string, env []byte, err error) {
	if len(record) < SaltLen {
		return "", nil, fmt.Errorf("%w: record is %d bytes, shorter than the %d byte salt",
			ErrDataCorruption, len(record), SaltLen)
	}
	if !utf8.Valid(record[:SaltLen]) {
		return "", nil, fmt.Errorf("%w: salt is not valid text", ErrDataCorruption)
	}
	return string(record[:SaltLen]), record[SaltLen:], nil
}

// joinRecord builds the stored form salt || envelope.
func joinRecord(salt string, env []byte) []byte {
	out := make([]byte, 0, len(salt)+len(env))
	out = append(out, salt...)
	return append(out, env...)
}
