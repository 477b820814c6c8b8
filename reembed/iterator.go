package reembed

import (
	"context"

	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

const (
	// DefaultBatchSize is the default number of transactions to fetch in each batch
	DefaultBatchSize = 64
)

// TransactionIterator pages through transactions in ID order.
type TransactionIterator struct {
	repo      storage.TransactionRepository
	batchSize int
}

// NewTransactionIterator creates a new iterator.
// batchSize: number of transactions to fetch in each batch (must be > 0)
func NewTransactionIterator(repo storage.TransactionRepository, batchSize int) *TransactionIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &TransactionIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of transactions with IDs greater than afterID.
// Only one page is held in memory at a time.
// Iteration stops on first error from fn or when all transactions are processed.
// Context cancellation is checked between batches.
func (it *TransactionIterator) ForEach(ctx context.Context, afterID string, fn func([]core.DescribedItem) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.ListTransactionsAfter(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
		afterID = batch[len(batch)-1].ID
	}
}
