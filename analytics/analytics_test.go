package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomodhq/pomod/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestNewPostHog_MintsStableInstanceID(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	first, err := NewPostHog(Config{APIKey: "phc_test"}, mem, testLogger())
	require.NoError(t, err)
	defer first.Close()

	stored, err := mem.Get(ctx, InstanceIDKey)
	require.NoError(t, err)
	assert.Equal(t, stored, first.distinctID)

	_, err = uuid.Parse(stored)
	assert.NoError(t, err, "instance id should be a uuid")

	second, err := NewPostHog(Config{APIKey: "phc_test"}, mem, testLogger())
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, first.distinctID, second.distinctID)
}

func TestPostHog_CaptureDeliversBatch(t *testing.T) {
	bodies := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies <- string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewPostHog(Config{
		APIKey:     "phc_test",
		Endpoint:   server.URL,
		AppVersion: "1.2.3",
	}, storage.NewMemory(), testLogger())
	require.NoError(t, err)

	sink.Capture("timer_started", map[string]any{"status": "running"})
	require.NoError(t, sink.Close())

	select {
	case body := <-bodies:
		assert.Contains(t, body, `"timer_started"`)
		assert.Contains(t, body, `"app_version":"1.2.3"`)
		assert.Contains(t, body, sink.distinctID)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered before close")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("backend offline")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("backend offline")
}

func (failingStore) Close() error { return nil }

func TestNewPostHog_PropagatesStorageErrors(t *testing.T) {
	_, err := NewPostHog(Config{APIKey: "phc_test"}, failingStore{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving instance id")
}
