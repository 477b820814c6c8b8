package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

// VectorRepository implements storage.VectorCache for BadgerDB.
// Entries written with a non-zero TTL expire on their own.
type VectorRepository struct {
	backend *Backend
	ttl     time.Duration
}

var _ storage.VectorCache = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository. A zero ttl keeps entries forever.
func NewVectorRepository(backend *Backend, ttl time.Duration) *VectorRepository {
	return &VectorRepository{backend: backend, ttl: ttl}
}

// Close is a no-op; the backend is owned by the Store.
func (r *VectorRepository) Close() error {
	return nil
}

// GetVector returns the cached vector for id.
func (r *VectorRepository) GetVector(ctx context.Context, id core.ID) ([]float32, bool, error) {
	var vector []float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			vector, unmarshalErr = storage.UnmarshalVector(val)
			return unmarshalErr
		})
	}, false)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// PutVector stores a vector under id.
func (r *VectorRepository) PutVector(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeVectorKey(id), storage.MarshalVector(vector))
		if r.ttl > 0 {
			entry = entry.WithTTL(r.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Purge removes every cached vector.
func (r *VectorRepository) Purge(ctx context.Context) error {
	return r.backend.DropPrefix([]byte(vectorPrefix))
}
