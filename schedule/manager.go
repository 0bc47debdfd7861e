package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager runs one Trigger per configured reminder.
type Manager struct {
	triggers []*Trigger
	logger   *slog.Logger
}

// NewManager builds triggers for all reminders. Returns an error naming the
// first reminder whose cron expression does not parse.
func NewManager(reminders []Reminder, notifier Notifier, analytics Analytics, logger *slog.Logger) (*Manager, error) {
	triggers := make([]*Trigger, 0, len(reminders))
	for i, reminder := range reminders {
		trigger, err := NewTrigger(reminder, notifier, analytics, logger)
		if err != nil {
			return nil, fmt.Errorf("reminder %d (%q): %w", i, reminder.Cron, err)
		}
		triggers = append(triggers, trigger)
	}

	for i, trigger := range triggers {
		logger.Info("reminder registered",
			"index", i,
			"schedule", trigger.spec,
			"next_run", trigger.NextRun(),
		)
	}

	return &Manager{
		triggers: triggers,
		logger:   logger,
	}, nil
}

// Start launches all triggers, each in its own goroutine. Returns
// immediately; the goroutines exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// Len returns the number of configured reminders.
func (m *Manager) Len() int {
	return len(m.triggers)
}

// NextRun returns the earliest upcoming reminder time, or the zero time
// when no reminders are configured.
func (m *Manager) NextRun() time.Time {
	if len(m.triggers) == 0 {
		return time.Time{}
	}

	earliest := m.triggers[0].NextRun()
	for i := 1; i < len(m.triggers); i++ {
		next := m.triggers[i].NextRun()
		if next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}
