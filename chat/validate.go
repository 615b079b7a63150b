package chat

import "github.com/bitfsorg/whochat/storage"

// Validate checks a credential pair. It touches no storage and must run
// before every operation.
func Validate(name, password string) error {
	if !storage.ValidName(name) {
		return ErrInvalidName
	}
	if password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// ValidateContent checks the content of a post.
func ValidateContent(content string) error {
	if content == "" {
		return ErrEmptyContent
	}
	return nil
}
