// Package timer implements the focus session state machine.
//
// A session is a fixed 25 minute countdown persisted as a single JSON
// document. While running, the document holds the absolute deadline of the
// session rather than a ticking counter; the remaining seconds are derived
// from the wall clock on every read, so the countdown stays correct across
// process restarts and machine sleep without any background timer.
//
// The Store owns the document's lifecycle. It deliberately knows nothing
// about session history: recording a completed session is the caller's
// responsibility, which keeps the state machine free of side effects.
package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pomodhq/pomod/storage"
)

// Store reads and writes the persisted run state.
type Store struct {
	storage storage.Store
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore creates a run state store backed by st.
func NewStore(st storage.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		storage: st,
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the persisted state and reconciles it with the wall clock.
// A missing or unparsable document yields the idle state without error.
// Running and paused states are written back after reconciliation, so the
// stored document converges on what callers observe; an expired session
// reads as running with zero remaining and is never completed here.
func (s *Store) Hydrate(ctx context.Context) (RunState, error) {
	rs, err := s.load(ctx)
	if err != nil {
		return IdleState(), err
	}

	rs = hydrated(rs, s.clock())
	if rs.Status == StatusIdle {
		return rs, nil
	}
	if err := s.save(ctx, rs); err != nil {
		return rs, err
	}
	return rs, nil
}

// Start begins a fresh full-length session, unconditionally replacing
// whatever was stored. An in-progress session is discarded without a
// history record.
func (s *Store) Start(ctx context.Context) (RunState, error) {
	rs := started(s.clock())
	if err := s.save(ctx, rs); err != nil {
		return rs, err
	}

	s.logger.Info("session started", "ends_at", time.UnixMilli(*rs.EndAt))
	return rs, nil
}

// Pause freezes a running session at its clock-derived remaining seconds.
// Pausing anything but a running session is a no-op that returns the
// current state untouched.
func (s *Store) Pause(ctx context.Context) (RunState, error) {
	rs, err := s.load(ctx)
	if err != nil {
		return rs, err
	}

	now := s.clock()
	if rs.Status != StatusRunning {
		return hydrated(rs, now), nil
	}

	next := paused(rs, now)
	if err := s.save(ctx, next); err != nil {
		return next, err
	}

	s.logger.Info("session paused", "remaining_sec", next.RemainingSec)
	return next, nil
}

// Resume converts a paused session back to running with a new deadline
// derived from the frozen remaining seconds. A paused session with nothing
// left is reset to idle instead. Resuming anything but a paused session is
// a no-op that returns the current state untouched.
func (s *Store) Resume(ctx context.Context) (RunState, error) {
	rs, err := s.load(ctx)
	if err != nil {
		return rs, err
	}

	now := s.clock()
	if rs.Status != StatusPaused {
		return hydrated(rs, now), nil
	}

	next := resumed(rs, now)
	if err := s.save(ctx, next); err != nil {
		return next, err
	}

	if next.Status == StatusIdle {
		s.logger.Info("session reset", "reason", "resumed with no time left")
	} else {
		s.logger.Info("session resumed", "remaining_sec", next.RemainingSec)
	}
	return next, nil
}

// Reset unconditionally returns the timer to idle. Safe to call repeatedly.
func (s *Store) Reset(ctx context.Context) (RunState, error) {
	rs := IdleState()
	if err := s.save(ctx, rs); err != nil {
		return rs, err
	}

	s.logger.Info("session reset")
	return rs, nil
}

// load reads and decodes the stored document. Corruption is not an error:
// the caller gets the idle state and a warning is logged. Only storage
// transport failures propagate.
func (s *Store) load(ctx context.Context) (RunState, error) {
	raw, err := s.storage.Get(ctx, StateKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return IdleState(), nil
		}
		return IdleState(), fmt.Errorf("failed to load run state: %w", err)
	}

	var rs RunState
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		s.logger.Warn("discarding unparsable run state", "error", err)
		return IdleState(), nil
	}
	return normalized(rs), nil
}

func (s *Store) save(ctx context.Context, rs RunState) error {
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	if err := s.storage.Set(ctx, StateKey, string(data)); err != nil {
		return fmt.Errorf("failed to save run state: %w", err)
	}
	return nil
}
