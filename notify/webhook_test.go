package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_Notify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{
			name:   "accepted",
			status: http.StatusOK,
		},
		{
			name:   "no content is fine",
			status: http.StatusNoContent,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			wantErr: "unexpected status code: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &received))

				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			webhook := NewWebhook(server.URL)
			err := webhook.Notify(context.Background(), "Focus session complete", "Time for a break.")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Focus session complete", received["title"])
			assert.Equal(t, "Time for a break.", received["body"])

			sentAt, err := time.Parse(time.RFC3339Nano, received["sent_at"].(string))
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().UTC(), sentAt, time.Minute)
		})
	}
}

func TestWebhook_NotifyUnreachableEndpoint(t *testing.T) {
	webhook := NewWebhook("http://127.0.0.1:1/hook")
	err := webhook.Notify(context.Background(), "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending notification")
}
