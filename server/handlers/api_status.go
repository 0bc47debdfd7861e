package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pomodhq/pomod/buildinfo"
	"github.com/pomodhq/pomod/timer"
)

// ServerProperties holds metadata about the running daemon instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
}

// NextReminderResponse is the JSON response for the next reminder information.
type NextReminderResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// APIStatusResponse is the consolidated response for /api/status.
type APIStatusResponse struct {
	Run               timer.RunState       `json:"run"`
	CompletedSessions int                  `json:"completed_sessions"`
	NextReminder      NextReminderResponse `json:"next_reminder"`
	Server            ServerProperties     `json:"server"`
}

// APIStatusProvider aggregates all the providers needed for the status endpoint.
type APIStatusProvider interface {
	StateProvider
	HistoryProvider
	NextReminderProvider
	Properties() ServerProperties
}

// APIStatusHandler handles requests for the consolidated status endpoint.
type APIStatusHandler struct {
	logger   *slog.Logger
	provider APIStatusProvider
}

// NewAPIStatusHandler creates a new APIStatusHandler.
func NewAPIStatusHandler(logger *slog.Logger, provider APIStatusProvider) *APIStatusHandler {
	return &APIStatusHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *APIStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, err := h.provider.State(r.Context())
	if err != nil {
		h.logger.Error("failed to load timer state", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A history failure degrades the response rather than failing it;
	// the run state is still useful on its own.
	completed := 0
	entries, err := h.provider.History(r.Context())
	if err != nil {
		h.logger.Error("failed to load history", "error", err)
	} else {
		completed = len(entries)
	}

	nextRun := h.provider.NextRun()

	resp := APIStatusResponse{
		Run:               state,
		CompletedSessions: completed,
		NextReminder: NextReminderResponse{
			Scheduled: nextRun != nil,
			NextRun:   nextRun,
		},
		Server: h.provider.Properties(),
	}

	writeJSON(w, http.StatusOK, resp)
}
