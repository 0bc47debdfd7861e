package handlers

import (
	"net/http"

	"github.com/pomodhq/pomod/logging"
)

// LogHandler handles requests for recently captured log entries.
type LogHandler struct {
	provider LogProvider
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(provider LogProvider) *LogHandler {
	return &LogHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler. With a source query parameter the
// response is that subsystem's entries; without one it is a map of every
// source to its entries.
func (h *LogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if source := r.URL.Query().Get("source"); source != "" {
		logs := h.provider.GetLogs(source)
		if logs == nil {
			logs = []logging.LogEntry{}
		}
		writeJSON(w, http.StatusOK, logs)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetAllLogs())
}
