// Package handlers provides HTTP handlers for the pomod daemon.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access daemon dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"time"

	"github.com/pomodhq/pomod/config"
	"github.com/pomodhq/pomod/history"
	"github.com/pomodhq/pomod/logging"
	"github.com/pomodhq/pomod/timer"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader can reload its configuration.
type Reloader interface {
	Reload() error
}

// StateProvider provides the clock-reconciled timer state.
type StateProvider interface {
	State(ctx context.Context) (timer.RunState, error)
}

// HistoryProvider provides access to completed sessions.
type HistoryProvider interface {
	History(ctx context.Context) ([]history.Entry, error)
}

// LogProvider provides access to recently captured log entries.
type LogProvider interface {
	GetLogs(source string) []logging.LogEntry
	GetAllLogs() map[string][]logging.LogEntry
}

// NextReminderProvider reports the next scheduled reminder, if any.
type NextReminderProvider interface {
	NextRun() *time.Time
}
