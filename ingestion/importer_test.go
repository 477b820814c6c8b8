package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...Option) (*Importer, *badger.Store) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	imp, err := NewImporter(store.Users, store.Transactions, opts...)
	require.NoError(t, err)
	t.Cleanup(imp.Release)
	return imp, store
}

func TestNewImporter(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewImporter(nil, store.Transactions)
	assert.ErrorIs(t, err, ErrUserRepositoryRequired)

	_, err = NewImporter(store.Users, nil)
	assert.ErrorIs(t, err, ErrTransactionRepositoryRequired)

	imp, err := NewImporter(store.Users, store.Transactions, WithPoolSize(0), WithBatchSize(0), WithLogger(nil))
	require.NoError(t, err)
	defer imp.Release()
	assert.Equal(t, defaultBatchSize, imp.batchSize)
}

func TestImportUsers(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	csv := "id,name\nu1,Alice\nu2,  Bob  \nu3,Zoë\n"
	stats, err := imp.ImportUsers(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Stats{Imported: 3}, stats)

	users, err := store.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.NamedEntity{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
		{ID: "u3", Name: "Zoë"},
	}, users)
}

func TestImportUsers_ColumnOrderAndCase(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	csv := "\ufeffName, ID ,email\nAlice,u1,a@example.com\n"
	stats, err := imp.ImportUsers(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)

	user, err := store.Users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}

func TestImportUsers_SkipsIncompleteRows(t *testing.T) {
	imp, _ := setup(t)

	csv := "id,name\nu1,Alice\n,NoID\nu3\n  ,Blank\nu5,\n"
	stats, err := imp.ImportUsers(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	// u5 with an empty name is kept; it can still match an empty description.
	assert.Equal(t, Stats{Imported: 2, Skipped: 3}, stats)
}

func TestImportUsers_Duplicates(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	csv := "id,name\nu1,Alice\nu2,Bob\nu1,Alicia\n"
	stats, err := imp.ImportUsers(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Stats{Imported: 2, Duplicates: 1}, stats)

	user, err := store.Users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.Name, "last occurrence wins")
}

func TestImportUsers_MissingColumn(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	stats, err := imp.ImportUsers(ctx, strings.NewReader("id,email\nu1,a@example.com\nu2,b@example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 2}, stats)

	count, err := store.Users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportTransactions_MissingColumn(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	stats, err := imp.ImportTransactions(ctx, strings.NewReader("id,memo\nt1,coffee\n"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 1}, stats)

	count, err := store.Transactions.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportUsers_EmptyDocument(t *testing.T) {
	imp, _ := setup(t)

	stats, err := imp.ImportUsers(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestImportUsers_MalformedCSV(t *testing.T) {
	imp, _ := setup(t)

	_, err := imp.ImportUsers(context.Background(), strings.NewReader("id,name\nu1,\"unterminated\n"))
	assert.Error(t, err)
}

func TestImportTransactions(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()

	csv := "id,amount,description,currency\nt1,12.50,Payment to John,EUR\nt2,3.00,\"Coffee, large\",EUR\nt3,1.00\n"
	stats, err := imp.ImportTransactions(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Stats{Imported: 2, Skipped: 1}, stats)

	item, err := store.Transactions.GetTransaction(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "Coffee, large", item.Description)
	assert.Equal(t, map[string]string{"amount": "3.00", "currency": "EUR"}, item.Fields)
}

func TestImportTransactions_ManyBatches(t *testing.T) {
	imp, store := setup(t, WithBatchSize(7), WithPoolSize(3))
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("id,description\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "t%03d,payment %d\n", i, i)
	}

	stats, err := imp.ImportTransactions(ctx, strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Imported)

	count, err := store.Transactions.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, count)
}

func TestImportFile(t *testing.T) {
	imp, store := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\nu1,Alice\n"), 0644))

	stats, err := imp.ImportFile(ctx, path, KindUsers)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)

	count, err := store.Users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("missing file", func(t *testing.T) {
		stats, err := imp.ImportFile(ctx, filepath.Join(dir, "nope.csv"), KindTransactions)
		require.NoError(t, err)
		assert.Equal(t, Stats{}, stats)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := imp.ImportFile(ctx, path, Kind("accounts"))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("error names the file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("id,name\nu1,\"unterminated\n"), 0644))
		_, err := imp.ImportFile(ctx, bad, KindUsers)
		assert.ErrorContains(t, err, "bad.csv")
	})

	t.Run("header without required column", func(t *testing.T) {
		odd := filepath.Join(dir, "odd.csv")
		require.NoError(t, os.WriteFile(odd, []byte("id,email\nu9,x@example.com\n"), 0644))
		stats, err := imp.ImportFile(ctx, odd, KindUsers)
		require.NoError(t, err)
		assert.Equal(t, Stats{Skipped: 1}, stats)
	})
}

func TestWriteBatches_StopsOnError(t *testing.T) {
	imp, _ := setup(t, WithPoolSize(1))
	boom := errors.New("disk full")

	items := make([]*core.NamedEntity, 10)
	for i := range items {
		items[i] = &core.NamedEntity{ID: fmt.Sprint(i)}
	}

	err := writeBatches(context.Background(), imp.pool, 2, items, func(context.Context, ...*core.NamedEntity) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWriteBatches_CancelledContext(t *testing.T) {
	imp, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := writeBatches(ctx, imp.pool, 2, []*core.NamedEntity{{ID: "a"}}, func(context.Context, ...*core.NamedEntity) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDedupe(t *testing.T) {
	a1, b, a2 := &core.NamedEntity{ID: "a", Name: "1"}, &core.NamedEntity{ID: "b"}, &core.NamedEntity{ID: "a", Name: "2"}
	out, dups := dedupe([]*core.NamedEntity{a1, b, a2}, func(e *core.NamedEntity) string { return e.ID })
	assert.Equal(t, 1, dups)
	assert.Equal(t, []*core.NamedEntity{a2, b}, out)
}
