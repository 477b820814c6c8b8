package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

// TransactionRepository implements storage.TransactionRepository for BadgerDB.
type TransactionRepository struct {
	backend *Backend
}

var _ storage.TransactionRepository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(backend *Backend) *TransactionRepository {
	return &TransactionRepository{backend: backend}
}

// Close is a no-op; the backend is owned by the Store.
func (r *TransactionRepository) Close() error {
	return nil
}

// AddTransactions inserts or replaces transactions by ID.
func (r *TransactionRepository) AddTransactions(ctx context.Context, items ...*core.DescribedItem) error {
	return r.backend.WriteBatch(ctx, len(items), func(wb *badger.WriteBatch, i int) error {
		return wb.Set(makeTransactionKey(items[i].ID), storage.MarshalDescribedItem(items[i]))
	})
}

// GetTransaction retrieves a transaction by ID.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (*core.DescribedItem, error) {
	var txn *core.DescribedItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTransactionKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			txn, unmarshalErr = storage.UnmarshalDescribedItem(val)
			return unmarshalErr
		})
	}, false)
	return txn, err
}

// ListTransactions returns all transactions ordered by ID.
func (r *TransactionRepository) ListTransactions(ctx context.Context) ([]core.DescribedItem, error) {
	return r.scan(ctx, "", 0)
}

// ListTransactionsAfter returns up to limit transactions with IDs strictly greater
// than afterID. A limit of zero or less means no limit.
func (r *TransactionRepository) ListTransactionsAfter(ctx context.Context, afterID string, limit int) ([]core.DescribedItem, error) {
	return r.scan(ctx, afterID, limit)
}

// CountTransactions returns the number of stored transactions.
func (r *TransactionRepository) CountTransactions(ctx context.Context) (int, error) {
	return r.backend.CountPrefix(ctx, []byte(transactionPrefix))
}

func (r *TransactionRepository) scan(ctx context.Context, afterID string, limit int) ([]core.DescribedItem, error) {
	var seek []byte
	if afterID != "" {
		seek = makeTransactionKey(afterID)
	}

	items := []core.DescribedItem{}
	err := r.backend.ScanPrefix(ctx, []byte(transactionPrefix), seek, true, func(item *badger.Item) (bool, error) {
		if afterID != "" && transactionIDFromKey(item.Key()) == afterID {
			return true, nil
		}
		err := item.Value(func(val []byte) error {
			txn, err := storage.UnmarshalDescribedItem(val)
			if err != nil {
				return err
			}
			items = append(items, *txn)
			return nil
		})
		if err != nil {
			return false, err
		}
		return limit <= 0 || len(items) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
