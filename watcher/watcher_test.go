package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomodhq/pomod/storage"
)

func newTestWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	w, err := New(dir, logger)
	require.NoError(t, err)
	w.debounceDelay = 10 * time.Millisecond

	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w
}

func waitForKey(t *testing.T, w *Watcher) string {
	t.Helper()

	select {
	case key := <-w.Keys():
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("no change event arrived")
		return ""
	}
}

func TestWatcher_ReportsStoreWrites(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := storage.NewFile(dir, logger)
	require.NoError(t, err)

	w := newTestWatcher(t, dir)

	require.NoError(t, store.Set(context.Background(), "run-state", `{"status":"idle"}`))
	assert.Equal(t, "run-state", waitForKey(t, w))
}

func TestWatcher_CollapsesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := storage.NewFile(dir, logger)
	require.NoError(t, err)

	w := newTestWatcher(t, dir)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set(ctx, "history", `[]`))
	}

	assert.Equal(t, "history", waitForKey(t, w))

	// A stall can split the burst across two debounce windows, but five
	// writes must never surface as five events.
	extras := 0
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case key := <-w.Keys():
			assert.Equal(t, "history", key)
			extras++
		case <-deadline:
			assert.Less(t, extras, 4, "debounce should collapse the burst")
			return
		}
	}
}

func TestWatcher_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".run-state.json.tmp-123"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case key := <-w.Keys():
		t.Fatalf("unexpected event for %q", key)
	case <-time.After(200 * time.Millisecond):
	}
}
