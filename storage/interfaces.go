package storage

import (
	"context"

	"github.com/poiesic/ledgermatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// UserRepository stores the named entities the matcher ranks.
type UserRepository interface {
	Repository
	// AddUsers inserts or replaces users by ID.
	AddUsers(ctx context.Context, users ...*core.NamedEntity) error

	// GetUser retrieves a user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id string) (*core.NamedEntity, error)

	// ListUsers returns all users ordered by ID.
	ListUsers(ctx context.Context) ([]core.NamedEntity, error)

	// CountUsers returns the number of stored users.
	CountUsers(ctx context.Context) (int, error)
}

// TransactionRepository stores the described items the ranker searches.
type TransactionRepository interface {
	Repository
	// AddTransactions inserts or replaces transactions by ID.
	AddTransactions(ctx context.Context, items ...*core.DescribedItem) error

	// GetTransaction retrieves a transaction by ID.
	// Returns ErrNotFound if the transaction doesn't exist.
	GetTransaction(ctx context.Context, id string) (*core.DescribedItem, error)

	// ListTransactions returns all transactions ordered by ID.
	ListTransactions(ctx context.Context) ([]core.DescribedItem, error)

	// ListTransactionsAfter returns up to limit transactions with IDs strictly
	// greater than afterID, ordered by ID. An empty afterID starts at the beginning.
	ListTransactionsAfter(ctx context.Context, afterID string, limit int) ([]core.DescribedItem, error)

	// CountTransactions returns the number of stored transactions.
	CountTransactions(ctx context.Context) (int, error)
}

// VectorCache persists embedding vectors keyed by content ID.
type VectorCache interface {
	Repository
	// GetVector returns the cached vector and true, or nil and false on a miss.
	GetVector(ctx context.Context, id core.ID) ([]float32, bool, error)

	// PutVector stores a vector. Entries may expire according to the cache's TTL.
	PutVector(ctx context.Context, id core.ID, vector []float32) error

	// Purge removes every cached vector.
	Purge(ctx context.Context) error
}

// CheckpointRepository persists progress markers for background processors.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes a checkpoint. Missing checkpoints are not an error.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
