package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pomodhq/pomod/timer"
)

// TransitionFunc applies one timer transition and returns the resulting
// state.
type TransitionFunc func(ctx context.Context) (timer.RunState, error)

// TransitionHandler handles requests to start, pause, resume, or reset
// the timer. Transitions that do not apply to the current status are
// no-ops and still return the reconciled state.
type TransitionHandler struct {
	logger     *slog.Logger
	action     string
	transition TransitionFunc
}

// NewTransitionHandler creates a new TransitionHandler for the given action.
func NewTransitionHandler(logger *slog.Logger, action string, fn TransitionFunc) *TransitionHandler {
	return &TransitionHandler{
		logger:     logger,
		action:     action,
		transition: fn,
	}
}

// ServeHTTP implements http.Handler.
func (h *TransitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, err := h.transition(r.Context())
	if err != nil {
		h.logger.Error("timer transition failed", "action", h.action, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("timer transition applied",
		"action", h.action,
		"status", state.Status.String(),
		"remaining_sec", state.RemainingSec,
	)
	writeJSON(w, http.StatusOK, state)
}
