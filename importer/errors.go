package importer

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when no repository is provided.
	ErrRepositoryRequired = errors.New("condition repository required")

	// ErrFingerprintMismatch is returned when the stored knowledge base does
	// not hash to the imported one.
	ErrFingerprintMismatch = errors.New("stored fingerprint does not match imported conditions")
)
