package timer

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// SessionSeconds is the fixed length of one focus session: 25 minutes.
	SessionSeconds = 1500

	// StateKey is the storage key holding the persisted run state document.
	StateKey = "run-state"
)

// Status is the lifecycle state of the current session.
type Status int

const (
	// StatusIdle indicates no session is active.
	StatusIdle Status = iota
	// StatusRunning indicates a session is counting down.
	StatusRunning
	// StatusPaused indicates a session is frozen mid-countdown.
	StatusPaused
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Unknown values are rejected so
// that a tampered document fails the parse as a whole instead of decoding
// into a half-valid state.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "idle":
		*s = StatusIdle
	case "running":
		*s = StatusRunning
	case "paused":
		*s = StatusPaused
	default:
		return fmt.Errorf("unknown status %q", raw)
	}
	return nil
}

// RunState is the persisted snapshot of the current session.
//
// While running, the document carries the absolute session deadline rather
// than a ticking counter; RemainingSec is recomputed from the wall clock on
// every read. The JSON field names are the store's wire format and must not
// change.
type RunState struct {
	// Status is the session lifecycle state.
	Status Status `json:"status"`

	// StartedAt is when the session was started. Nil while idle.
	StartedAt *time.Time `json:"startedAtISO"`

	// EndAt is the absolute session deadline in epoch milliseconds.
	// Non-nil only while running.
	EndAt *int64 `json:"endAtEpochMs"`

	// RemainingSec is the whole seconds left, in [0, SessionSeconds].
	RemainingSec int `json:"remainingSec"`
}

// IdleState returns the canonical idle state: no session, a full countdown
// ready to start. It is the fallback for every unreadable document.
func IdleState() RunState {
	return RunState{
		Status:       StatusIdle,
		RemainingSec: SessionSeconds,
	}
}
