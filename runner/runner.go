// Package runner drives the focus timer.
//
// The Runner composes the timer state machine with the session history and
// owns the one sequence the state machine never performs itself: when a
// running session reaches zero, record it in the history, reset the timer,
// and fan the completion out to the notifier, the chime, analytics, and
// metrics. HTTP handlers, the scheduler, and the storage watcher all go
// through the Runner, so every transition is observed uniformly.
//
// # Example
//
//	r := runner.New(logger, timerStore, historyLog,
//	    runner.WithNotifier(webhook),
//	    runner.WithAnalytics(sink),
//	)
//	go r.Run(ctx)           // poll loop, completes expired sessions
//	state, err := r.Start(ctx)
package runner

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pomodhq/pomod/history"
	"github.com/pomodhq/pomod/timer"
)

// DefaultPollInterval is how often Run re-checks the countdown. Sub-second
// polling keeps completion latency invisible next to the second-granular
// countdown.
const DefaultPollInterval = 250 * time.Millisecond

// Notifier delivers a user-facing notification. Implementations own the
// transport; the runner only decides when to fire.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Chime plays the session-complete sound.
type Chime interface {
	Play(ctx context.Context) error
}

// Analytics records product events. Implementations must not block.
type Analytics interface {
	Capture(event string, properties map[string]any)
}

// Runner coordinates the timer store and the history log.
type Runner struct {
	logger    *slog.Logger
	timer     *timer.Store
	history   *history.Log
	notifier  Notifier
	chime     Chime
	analytics Analytics
	metrics   *Metrics

	pollInterval time.Duration
	clock        func() time.Time

	mu sync.Mutex // serializes transitions and the completion sequence
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotifier sets the completion/reminder notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithChime sets the completion chime.
func WithChime(c Chime) Option {
	return func(r *Runner) {
		if c != nil {
			r.chime = c
		}
	}
}

// WithAnalytics sets the analytics sink.
func WithAnalytics(a Analytics) Option {
	return func(r *Runner) {
		if a != nil {
			r.analytics = a
		}
	}
}

// WithMetrics sets the runner's instruments.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithPollInterval overrides the Run loop interval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// New creates a Runner. Collaborators default to no-ops so the runner works
// with nothing but a timer store and a history log.
func New(logger *slog.Logger, ts *timer.Store, hl *history.Log, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		timer:        ts,
		history:      hl,
		notifier:     nopNotifier{},
		chime:        nopChime{},
		analytics:    nopAnalytics{},
		pollInterval: DefaultPollInterval,
		clock:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start begins a fresh full-length session. An in-progress session is
// discarded without a history record.
func (r *Runner) Start(ctx context.Context) (timer.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.timer.Start(ctx)
	if err != nil {
		return rs, err
	}

	r.fire("timer_started", rs)
	return rs, nil
}

// Pause freezes a running session. Pausing anything else is a no-op.
func (r *Runner) Pause(ctx context.Context) (timer.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.timer.Pause(ctx)
	if err != nil {
		return rs, err
	}

	if rs.Status == timer.StatusPaused {
		r.fire("timer_paused", rs)
	}
	return rs, nil
}

// Resume continues a paused session. A paused session with no time left
// collapses to idle instead.
func (r *Runner) Resume(ctx context.Context) (timer.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.timer.Resume(ctx)
	if err != nil {
		return rs, err
	}

	if rs.Status == timer.StatusRunning {
		r.fire("timer_resumed", rs)
	}
	return rs, nil
}

// Reset abandons the current session without recording it.
func (r *Runner) Reset(ctx context.Context) (timer.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.timer.Reset(ctx)
	if err != nil {
		return rs, err
	}

	r.fire("timer_reset", rs)
	return rs, nil
}

// State returns the clock-reconciled current state. It runs a full poll, so
// reading the state of an expired session completes it first; callers always
// see either a live countdown or the idle state that follows it.
func (r *Runner) State(ctx context.Context) (timer.RunState, error) {
	return r.Poll(ctx)
}

// History returns completed sessions, most recently completed first.
func (r *Runner) History(ctx context.Context) ([]history.Entry, error) {
	return r.history.All(ctx)
}

// Poll reconciles the countdown once: rehydrate the stored state, refresh
// the remaining-seconds gauge, and complete the session if the countdown
// has reached zero.
func (r *Runner) Poll(ctx context.Context) (timer.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poll(ctx)
}

// Run polls the countdown until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.Info("runner started", "poll_interval", r.pollInterval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner shutting down")
			return nil
		case <-ticker.C:
			if _, err := r.Poll(ctx); err != nil {
				r.logger.Warn("poll failed", "error", err)
			}
		}
	}
}

func (r *Runner) poll(ctx context.Context) (timer.RunState, error) {
	rs, err := r.timer.Hydrate(ctx)
	if err != nil {
		r.metrics.ObserveHydrateFailure()
		return rs, err
	}
	r.metrics.ObserveRemaining(rs)

	if rs.Status == timer.StatusRunning && rs.RemainingSec <= 0 {
		return r.complete(ctx, rs)
	}
	return rs, nil
}

// complete records the finished session and returns the timer to idle. The
// history append comes first: if the process dies between the two writes,
// the next poll records a duplicate rather than losing the session.
func (r *Runner) complete(ctx context.Context, rs timer.RunState) (timer.RunState, error) {
	completedAt := r.clock()
	startedAt := completedAt.Add(-timer.SessionSeconds * time.Second)
	if rs.StartedAt != nil {
		startedAt = *rs.StartedAt
	}

	entry := history.Entry{
		ID:          strconv.FormatInt(completedAt.UnixMilli(), 10),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		DurationSec: timer.SessionSeconds,
	}
	if err := r.history.Append(ctx, entry); err != nil {
		return rs, err
	}

	idle, err := r.timer.Reset(ctx)
	if err != nil {
		return idle, err
	}

	r.logger.Info("session completed", "id", entry.ID)
	r.metrics.ObserveCompletion()
	r.metrics.ObserveRemaining(idle)
	r.analytics.Capture("session_completed", map[string]any{
		"id":           entry.ID,
		"duration_sec": entry.DurationSec,
	})

	if err := r.notifier.Notify(ctx, "Focus session complete", "25 minutes are up. Time for a break."); err != nil {
		r.logger.Warn("completion notification failed", "error", err)
	}
	if err := r.chime.Play(ctx); err != nil {
		r.logger.Warn("completion chime failed", "error", err)
	}

	return idle, nil
}

// fire reports a transition to analytics and metrics.
func (r *Runner) fire(event string, rs timer.RunState) {
	r.metrics.ObserveTransition(rs.Status)
	r.metrics.ObserveRemaining(rs)
	r.analytics.Capture(event, map[string]any{
		"status":        rs.Status.String(),
		"remaining_sec": rs.RemainingSec,
	})
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }

type nopChime struct{}

func (nopChime) Play(context.Context) error { return nil }

type nopAnalytics struct{}

func (nopAnalytics) Capture(string, map[string]any) {}
