package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	store, err := NewSQLite(filepath.Join(t.TempDir(), "pomod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSQLite_EmptyPath(t *testing.T) {
	_, err := NewSQLite("  ")
	assert.Error(t, err)
}

func TestSQLite_GetMissing(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.Get(context.Background(), "run-state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SetGet(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "run-state", `{"status":"paused"}`))

	value, err := store.Get(ctx, "run-state")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"paused"}`, value)
}

func TestSQLite_Upsert(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "history", "[]"))
	require.NoError(t, store.Set(ctx, "history", `[{"id":"1"}]`))

	value, err := store.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, value)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomod.db")
	ctx := context.Background()

	store, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "run-state", "persisted"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "run-state")
	require.NoError(t, err)
	assert.Equal(t, "persisted", value)
}
