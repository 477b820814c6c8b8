package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when the transaction repository is missing.
	ErrRepositoryRequired = errors.New("transaction repository required")

	// ErrEmbedderRequired is returned when the embedder is missing.
	ErrEmbedderRequired = errors.New("embedder required")
)
