package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestBackend_UseAfterClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())
	require.NoError(t, backend.Close())

	ctx := context.Background()
	err = backend.WriteBatch(ctx, 1, func(wb *badger.WriteBatch, _ int) error {
		return wb.Set([]byte("a:1"), []byte("v"))
	})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = backend.CountPrefix(ctx, []byte("a:"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	assert.ErrorIs(t, backend.DropPrefix([]byte("a:")), storage.ErrStorageClosed)

	users := NewUserRepository(backend)
	_, err = users.GetUser(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, users.AddUsers(ctx, &core.NamedEntity{ID: "U1", Name: "bob"}), storage.ErrStorageClosed)
}

func TestScanPrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	keys := []string{"a:1", "a:2", "a:3", "b:1"}
	err = backend.WriteBatch(ctx, len(keys), func(wb *badger.WriteBatch, i int) error {
		return wb.Set([]byte(keys[i]), []byte("v"))
	})
	require.NoError(t, err)

	var seen []string
	err = backend.ScanPrefix(ctx, []byte("a:"), nil, false, func(item *badger.Item) (bool, error) {
		seen = append(seen, string(item.KeyCopy(nil)))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2", "a:3"}, seen)

	t.Run("seek", func(t *testing.T) {
		var seen []string
		err := backend.ScanPrefix(ctx, []byte("a:"), []byte("a:2"), false, func(item *badger.Item) (bool, error) {
			seen = append(seen, string(item.KeyCopy(nil)))
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a:2", "a:3"}, seen)
	})

	t.Run("stop early", func(t *testing.T) {
		calls := 0
		err := backend.ScanPrefix(ctx, []byte("a:"), nil, false, func(*badger.Item) (bool, error) {
			calls++
			return false, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	count, err := backend.CountPrefix(ctx, []byte("b:"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScanPrefix_CancelledContext(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.WriteBatch(context.Background(), 1, func(wb *badger.WriteBatch, _ int) error {
		return wb.Set([]byte("a:1"), []byte("v"))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = backend.ScanPrefix(ctx, []byte("a:"), nil, false, func(*badger.Item) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
