package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	store, err := NewMemoryStore(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Users.AddUsers(ctx,
		&core.NamedEntity{ID: "u2", Name: "Bob"},
		&core.NamedEntity{ID: "u1", Name: "Alice"},
	)
	require.NoError(t, err)

	user, err := store.Users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = store.Users.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	users, err := store.Users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)

	count, err := store.Users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-adding replaces by ID.
	require.NoError(t, store.Users.AddUsers(ctx, &core.NamedEntity{ID: "u1", Name: "Alicia"}))
	user, err = store.Users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.Name)

	count, err = store.Users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserRepository_Empty(t *testing.T) {
	store := newTestStore(t)

	users, err := store.Users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestTransactionRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var items []*core.DescribedItem
	for i := 0; i < 10; i++ {
		items = append(items, &core.DescribedItem{
			ID:          fmt.Sprintf("t%02d", i),
			Description: fmt.Sprintf("payment %d", i),
			Fields:      map[string]string{"amount": fmt.Sprint(i)},
		})
	}
	require.NoError(t, store.Transactions.AddTransactions(ctx, items...))

	got, err := store.Transactions.GetTransaction(ctx, "t03")
	require.NoError(t, err)
	assert.Equal(t, items[3], got)

	_, err = store.Transactions.GetTransaction(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := store.Transactions.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	count, err := store.Transactions.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	t.Run("after", func(t *testing.T) {
		page, err := store.Transactions.ListTransactionsAfter(ctx, "t03", 3)
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, "t04", page[0].ID)
		assert.Equal(t, "t06", page[2].ID)
	})

	t.Run("from start", func(t *testing.T) {
		page, err := store.Transactions.ListTransactionsAfter(ctx, "", 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "t00", page[0].ID)
	})

	t.Run("past end", func(t *testing.T) {
		page, err := store.Transactions.ListTransactionsAfter(ctx, "t09", 5)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("missing anchor", func(t *testing.T) {
		page, err := store.Transactions.ListTransactionsAfter(ctx, "t035", 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "t04", page[0].ID)
	})
}

func TestVectorRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := core.IDFromContent("hello")

	_, ok, err := store.Vectors.GetVector(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Vectors.PutVector(ctx, id, []float32{0.1, 0.2, 0.3}))

	vec, ok, err := store.Vectors.GetVector(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	require.NoError(t, store.Vectors.Purge(ctx))

	_, ok, err = store.Vectors.GetVector(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorRepository_TTL(t *testing.T) {
	store := newTestStore(t, WithVectorTTL(time.Second))
	ctx := context.Background()
	id := core.IDFromContent("short lived")

	require.NoError(t, store.Vectors.PutVector(ctx, id, []float32{1}))
	_, ok, err := store.Vectors.GetVector(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, err := store.Vectors.GetVector(ctx, id)
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestPurgeKeepsOtherData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Users.AddUsers(ctx, &core.NamedEntity{ID: "u1", Name: "Alice"}))
	require.NoError(t, store.Vectors.PutVector(ctx, core.IDFromContent("x"), []float32{1}))
	require.NoError(t, store.Vectors.Purge(ctx))

	count, err := store.Users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckpointRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cp, err := store.Checkpoints.LoadCheckpoint(ctx, "warmer")
	require.NoError(t, err)
	assert.Nil(t, cp)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "warmer", LastID: "t10"}))

	cp, err = store.Checkpoints.LoadCheckpoint(ctx, "warmer")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "t10", cp.LastID)
	assert.True(t, cp.UpdatedAt.After(before))

	require.NoError(t, store.Checkpoints.DeleteCheckpoint(ctx, "warmer"))
	cp, err = store.Checkpoints.LoadCheckpoint(ctx, "warmer")
	require.NoError(t, err)
	assert.Nil(t, cp)

	// Deleting again is fine.
	require.NoError(t, store.Checkpoints.DeleteCheckpoint(ctx, "warmer"))
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Users.AddUsers(ctx, &core.NamedEntity{ID: "u1", Name: "Alice"}))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	user, err := store.Users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}
