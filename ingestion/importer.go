package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

const defaultBatchSize = 500

// Kind selects which record type a file holds.
type Kind string

const (
	KindUsers        Kind = "users"
	KindTransactions Kind = "transactions"
)

// Stats summarizes one import.
type Stats struct {
	Imported   int // Records written
	Skipped    int // Rows missing a required value
	Duplicates int // Rows whose ID appeared again later in the file
}

// Importer loads users and transactions from CSV into storage.
type Importer struct {
	users        storage.UserRepository
	transactions storage.TransactionRepository
	pool         *ants.Pool
	batchSize    int
	logger       *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the number of concurrent batch writers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(imp *Importer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if imp.pool != nil {
			imp.pool.Release()
		}
		imp.pool = pool
		return nil
	}
}

// WithBatchSize sets how many rows go into one storage write.
func WithBatchSize(n int) Option {
	return func(imp *Importer) error {
		if n < 1 {
			n = defaultBatchSize
		}
		imp.batchSize = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(imp *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		imp.logger = logger
		return nil
	}
}

// NewImporter creates an importer. Call Release when done.
func NewImporter(users storage.UserRepository, transactions storage.TransactionRepository, opts ...Option) (*Importer, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if transactions == nil {
		return nil, ErrTransactionRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	imp := &Importer{
		users:        users,
		transactions: transactions,
		pool:         pool,
		batchSize:    defaultBatchSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(imp); err != nil {
			imp.Release()
			return nil, err
		}
	}
	imp.logger = imp.logger.With("component", "importer")
	return imp, nil
}

// ImportUsers reads a CSV with "id" and "name" columns.
func (imp *Importer) ImportUsers(ctx context.Context, r io.Reader) (Stats, error) {
	t, err := readTable(r)
	if err != nil {
		return Stats{}, err
	}
	cols, missing := t.columnsOf("id", "name")
	if len(missing) > 0 {
		return imp.skipAll(KindUsers, t, missing), nil
	}

	var stats Stats
	users := make([]*core.NamedEntity, 0, len(t.rows))
	for _, row := range t.rows {
		id, okID := field(row, cols[0])
		name, okName := field(row, cols[1])
		user := &core.NamedEntity{ID: id, Name: name}
		if !okID || !okName || core.ValidateNamedEntity(user) != nil {
			stats.Skipped++
			continue
		}
		users = append(users, user)
	}

	users, stats.Duplicates = dedupe(users, func(u *core.NamedEntity) string { return u.ID })
	if err := writeBatches(ctx, imp.pool, imp.batchSize, users, imp.users.AddUsers); err != nil {
		return stats, fmt.Errorf("writing users: %w", err)
	}
	stats.Imported = len(users)

	imp.logger.Info("imported users", "imported", stats.Imported, "skipped", stats.Skipped, "duplicates", stats.Duplicates)
	return stats, nil
}

// ImportTransactions reads a CSV with "id" and "description" columns.
// Any other columns are kept in DescribedItem.Fields.
func (imp *Importer) ImportTransactions(ctx context.Context, r io.Reader) (Stats, error) {
	t, err := readTable(r)
	if err != nil {
		return Stats{}, err
	}
	cols, missing := t.columnsOf("id", "description")
	if len(missing) > 0 {
		return imp.skipAll(KindTransactions, t, missing), nil
	}

	var stats Stats
	items := make([]*core.DescribedItem, 0, len(t.rows))
	for _, row := range t.rows {
		id, okID := field(row, cols[0])
		desc, okDesc := field(row, cols[1])
		item := &core.DescribedItem{ID: id, Description: desc, Fields: t.extras(row, cols...)}
		if !okID || !okDesc || core.ValidateDescribedItem(item) != nil {
			stats.Skipped++
			continue
		}
		items = append(items, item)
	}

	items, stats.Duplicates = dedupe(items, func(i *core.DescribedItem) string { return i.ID })
	if err := writeBatches(ctx, imp.pool, imp.batchSize, items, imp.transactions.AddTransactions); err != nil {
		return stats, fmt.Errorf("writing transactions: %w", err)
	}
	stats.Imported = len(items)

	imp.logger.Info("imported transactions", "imported", stats.Imported, "skipped", stats.Skipped, "duplicates", stats.Duplicates)
	return stats, nil
}

// skipAll counts every row of a table whose header lacks required columns as skipped.
func (imp *Importer) skipAll(kind Kind, t *table, missing []string) Stats {
	if len(t.header) > 0 {
		imp.logger.Warn("csv header lacks required columns, skipping every row",
			"kind", kind, "missing", missing, "rows", len(t.rows))
	}
	return Stats{Skipped: len(t.rows)}
}

// ImportFile imports path as kind. A missing file imports nothing and is not an error.
func (imp *Importer) ImportFile(ctx context.Context, path string, kind Kind) (Stats, error) {
	var importFn func(context.Context, io.Reader) (Stats, error)
	switch kind {
	case KindUsers:
		importFn = imp.ImportUsers
	case KindTransactions:
		importFn = imp.ImportTransactions
	default:
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		imp.logger.Warn("data file not found, starting empty", "path", path, "kind", kind)
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	stats, err := importFn(ctx, f)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (imp *Importer) Release() {
	if imp.pool != nil {
		imp.pool.Release()
	}
}

// dedupe keeps the last occurrence of each key, preserving first-seen order.
func dedupe[T any](items []*T, key func(*T) string) ([]*T, int) {
	index := make(map[string]int, len(items))
	out := make([]*T, 0, len(items))
	dups := 0
	for _, item := range items {
		k := key(item)
		if i, seen := index[k]; seen {
			out[i] = item
			dups++
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out, dups
}
