package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
}

var _ storage.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) *UserRepository {
	return &UserRepository{backend: backend}
}

// Close is a no-op; the backend is owned by the Store.
func (r *UserRepository) Close() error {
	return nil
}

// AddUsers inserts or replaces users by ID.
func (r *UserRepository) AddUsers(ctx context.Context, users ...*core.NamedEntity) error {
	return r.backend.WriteBatch(ctx, len(users), func(wb *badger.WriteBatch, i int) error {
		return wb.Set(makeUserKey(users[i].ID), storage.MarshalNamedEntity(users[i]))
	})
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*core.NamedEntity, error) {
	var user *core.NamedEntity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUserKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			user, unmarshalErr = storage.UnmarshalNamedEntity(val)
			return unmarshalErr
		})
	}, false)
	return user, err
}

// ListUsers returns all users ordered by ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]core.NamedEntity, error) {
	users := []core.NamedEntity{}
	err := r.backend.ScanPrefix(ctx, []byte(userPrefix), nil, true, func(item *badger.Item) (bool, error) {
		return true, item.Value(func(val []byte) error {
			user, err := storage.UnmarshalNamedEntity(val)
			if err != nil {
				return err
			}
			users = append(users, *user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the number of stored users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	return r.backend.CountPrefix(ctx, []byte(userPrefix))
}
