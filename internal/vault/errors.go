package vault

import "errors"

// Gateway errors. Callers test them with errors.Is.
var (
	// ErrInvalidPath is returned when the source path is empty, not valid
	// UTF-8 or contains a NUL byte.
	ErrInvalidPath = errors.New("invalid source path")

	// ErrDecryptionFailed is returned when the decryption tool could not be
	// started, was killed or exited non-zero.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrReadFailed is returned when the decrypted output cannot be read
	// after a successful decryption.
	ErrReadFailed = errors.New("failed to read decrypted output")

	// ErrCleanupFailed is returned when the decrypted output file could not
	// be removed.
	ErrCleanupFailed = errors.New("failed to remove decrypted output")
)
