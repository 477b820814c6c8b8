package badger

import (
	"log/slog"
	"time"
)

// Store bundles every repository over a single BadgerDB instance.
type Store struct {
	backend *Backend

	Users        *UserRepository
	Transactions *TransactionRepository
	Vectors      *VectorRepository
	Checkpoints  *CheckpointRepository
}

type storeConfig struct {
	vectorTTL time.Duration
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

// WithVectorTTL sets how long cached vectors live. Zero disables expiry.
func WithVectorTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.vectorTTL = ttl
	}
}

// WithLogger sets the logger badger writes through.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// Open opens a store at path. An empty path opens an in-memory store.
func Open(path string, opts ...StoreOption) (*Store, error) {
	cfg := storeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	backend, err := openBackend(path, path == "", cfg.logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		backend:      backend,
		Users:        NewUserRepository(backend),
		Transactions: NewTransactionRepository(backend),
		Vectors:      NewVectorRepository(backend, cfg.vectorTTL),
		Checkpoints:  NewCheckpointRepository(backend),
	}, nil
}

// Backend exposes the underlying backend.
func (s *Store) Backend() *Backend {
	return s.backend
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}
