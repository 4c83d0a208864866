package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageGetMissingKey(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "college-timetable-maker")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestLocalStorageSetReplacesValue(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "college-timetable-maker", []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "college-timetable-maker", []byte(`[{"id":"s1"}]`)))

	got, err := store.Get(ctx, "college-timetable-maker")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger after a write")
}

func TestLocalStorageKeysStayInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "../escape/key", []byte(`1`)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir())
}

func TestLocalStorageCancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Set(ctx, "k", []byte(`1`)), context.Canceled)
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorageSaveOpenCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	rel, err := store.Save(filepath.Join("backups", "pre-import.json"), []byte(`[]`))
	require.NoError(t, err)

	f, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(rel), old, old))

	deleted, err := store.CleanupOlderThan("backups", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{rel}, deleted)

	require.NoError(t, store.Delete(rel))
}
