package errors

import (
	"strings"
	"unicode"
)

// maxKeyLength bounds record keys, which become file names for side files.
const maxKeyLength = 200

// ValidateKey validates a record key for use as a side-file base name.
// It rejects names that could escape the results directory.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - No control characters or null bytes
//   - No path separators (/ or \)
//   - Not "." or ".."
//   - Maximum length of 200 bytes
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "key cannot be empty")
	}

	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidKey, "key too long (max %d bytes)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "key contains invalid control characters")
		}
	}

	if strings.ContainsAny(key, `/\`) {
		return New(ErrCodeInvalidKey, "key %q contains path separators", key)
	}

	if key == "." || key == ".." {
		return New(ErrCodeInvalidKey, "key %q is a relative directory reference", key)
	}

	return nil
}

// ValidatePath validates a user-supplied file path (input, output or
// results directory) for basic sanity.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
