package handlers

import (
	"net/http"
)

// StateHandler handles requests for the current timer state.
type StateHandler struct {
	provider StateProvider
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler. The state is reconciled against the
// wall clock on every request, so an expired session reads as completed
// even between runner polls.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, err := h.provider.State(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}
