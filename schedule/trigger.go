// Package schedule fires configured reminders on cron schedules.
//
// Each reminder pairs a five-field cron expression with a message. A
// Trigger waits for the next tick and hands the message to the notifier;
// the Manager runs one Trigger per configured reminder.
//
// Example usage:
//
//	mgr, err := schedule.NewManager(reminders, notifier, analytics, logger)
//	if err != nil {
//	    return err
//	}
//	mgr.Start(ctx)  // Returns immediately, runs in background
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when a cron expression cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Notifier delivers the reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Analytics records product events.
type Analytics interface {
	Capture(event string, properties map[string]any)
}

// Reminder is one configured reminder.
type Reminder struct {
	// Cron is a five-field expression: minute, hour, day, month, weekday.
	Cron string
	// Message is the notification body.
	Message string
}

// Trigger fires a single reminder on its schedule.
type Trigger struct {
	spec     string
	message  string
	schedule cron.Schedule
	notifier Notifier
	// analytics is optional; nil skips event capture.
	analytics Analytics
	logger    *slog.Logger
}

// NewTrigger creates a trigger for one reminder. Returns ErrInvalidCronSpec
// if the expression cannot be parsed. The notifier is optional; without one
// the reminder is only logged.
func NewTrigger(reminder Reminder, notifier Notifier, analytics Analytics, logger *slog.Logger) (*Trigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(reminder.Cron)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	return &Trigger{
		spec:      reminder.Cron,
		message:   reminder.Message,
		schedule:  sched,
		notifier:  notifier,
		analytics: analytics,
		logger:    logger,
	}, nil
}

// Start launches the scheduling loop in a goroutine. Returns immediately;
// the goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next time this reminder fires.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(time.Now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		nextRun := t.schedule.Next(time.Now())
		waitDuration := time.Until(nextRun)

		t.logger.Debug("waiting for next reminder",
			"next_run", nextRun,
			"wait_duration", waitDuration,
		)

		select {
		case <-ctx.Done():
			t.logger.Info("reminder trigger shutting down")
			return
		case <-time.After(waitDuration):
			t.fire(ctx)
		}
	}
}

func (t *Trigger) fire(ctx context.Context) {
	t.logger.Info("reminder due", "message", t.message)

	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, "Reminder", t.message); err != nil {
			t.logger.Warn("reminder notification failed", "error", err)
		}
	}
	if t.analytics != nil {
		t.analytics.Capture("reminder_fired", map[string]any{"cron": t.spec})
	}
}
