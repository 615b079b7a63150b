package chat

import "errors"

// Validation errors are returned before any storage access.
var (
	// ErrInvalidName indicates the chat name is empty or not strictly alphanumeric.
	ErrInvalidName = errors.New("chat: name must be non-empty and contain only letters and digits")

	// ErrEmptyPassword indicates an empty password.
	ErrEmptyPassword = errors.New("chat: password is empty")

	// ErrEmptyContent indicates an attempt to post empty content.
	ErrEmptyContent = errors.New("chat: content is empty")
)

// Storage errors describe the state of the persisted chat.
var (
	// ErrChatNotFound indicates no chat exists under the given name.
	ErrChatNotFound = errors.New("chat: chat not found")

	// ErrWrongPassword indicates the envelope did not authenticate under the
	// supplied password. Corrupted ciphertext surfaces the same way.
	ErrWrongPassword = errors.New("chat: wrong password")

	// ErrDataCorruption indicates the stored record is malformed: shorter than
	// the salt, a salt that is not text, an unrecognised envelope, or
	// decrypted content that is not valid UTF-8.
	ErrDataCorruption = errors.New("chat: stored data is corrupted")

	// ErrInternal indicates an I/O or cryptographic failure unrelated to the
	// caller's input.
	ErrInternal = errors.New("chat: internal error")
)

// kinds lists every sentinel in the order Kind checks them.
var kinds = []error{
	ErrInvalidName,
	ErrEmptyPassword,
	ErrEmptyContent,
	ErrChatNotFound,
	ErrWrongPassword,
	ErrDataCorruption,
	ErrInternal,
}

// Kind returns the chat sentinel err wraps, or nil when err is nil or
// carries none of them. Boundaries use it to report a description without
// leaking wrapped causes such as file paths.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	switch Kind(err) {
	case ErrInvalidName, ErrEmptyPassword, ErrEmptyContent:
		return true
	}
	return false
}

// Label returns a short stable label for err, used in metrics and logs.
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	switch Kind(err) {
	case ErrInvalidName, ErrEmptyPassword, ErrEmptyContent:
		return "invalid"
	case ErrChatNotFound:
		return "not_found"
	case ErrWrongPassword:
		return "wrong_password"
	case ErrDataCorruption:
		return "corrupted"
	default:
		return "internal"
	}
}
