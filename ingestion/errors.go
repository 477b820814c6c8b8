package ingestion

import "errors"

var (
	// ErrUserRepositoryRequired is returned when a user repository is not provided.
	ErrUserRepositoryRequired = errors.New("user repository required")

	// ErrTransactionRepositoryRequired is returned when a transaction repository is not provided.
	ErrTransactionRepositoryRequired = errors.New("transaction repository required")

	// ErrUnknownKind is returned for an unsupported import kind.
	ErrUnknownKind = errors.New("unknown import kind")
)
