package timer

import "time"

// The transition functions below are pure: (state, now) in, state out, no
// I/O. The Store wraps them in load/save calls, and the tests drive them
// directly with a fixed clock.

// clampRemaining bounds a remaining-seconds value to the session length.
func clampRemaining(sec int) int {
	if sec < 0 {
		return 0
	}
	if sec > SessionSeconds {
		return SessionSeconds
	}
	return sec
}

// remainingAt computes the whole seconds left before the deadline, clamped
// to the session bounds. The division rounds up, so the countdown only
// reports zero once the deadline has fully passed. Deadlines more than a
// full session out cap before the rounding math, so a corrupt stored value
// near MaxInt64 cannot overflow the addition.
func remainingAt(endAtMs int64, now time.Time) int {
	deltaMs := endAtMs - now.UnixMilli()
	if deltaMs <= 0 {
		return 0
	}
	if deltaMs >= SessionSeconds*1000 {
		return SessionSeconds
	}
	return clampRemaining(int((deltaMs + 999) / 1000))
}

// normalized repairs structural damage in a loaded state without consulting
// the clock. A running state without a deadline cannot count down, so it
// degrades to paused at its last known remaining value. Idle states collapse
// to the canonical IdleState regardless of leftover fields.
func normalized(rs RunState) RunState {
	switch rs.Status {
	case StatusRunning:
		if rs.EndAt == nil {
			return RunState{
				Status:       StatusPaused,
				StartedAt:    rs.StartedAt,
				RemainingSec: clampRemaining(rs.RemainingSec),
			}
		}
		rs.RemainingSec = clampRemaining(rs.RemainingSec)
		return rs
	case StatusPaused:
		rs.EndAt = nil
		rs.RemainingSec = clampRemaining(rs.RemainingSec)
		return rs
	default:
		return IdleState()
	}
}

// hydrated reconciles a state with the wall clock. For a running session
// the remaining seconds are recomputed from the stored deadline; an expired
// session reads as running with zero remaining, leaving the completion
// decision to the caller.
func hydrated(rs RunState, now time.Time) RunState {
	rs = normalized(rs)
	if rs.Status == StatusRunning {
		rs.RemainingSec = remainingAt(*rs.EndAt, now)
	}
	return rs
}

// started returns a fresh full-length running session.
func started(now time.Time) RunState {
	endAt := now.Add(SessionSeconds * time.Second).UnixMilli()
	return RunState{
		Status:       StatusRunning,
		StartedAt:    &now,
		EndAt:        &endAt,
		RemainingSec: SessionSeconds,
	}
}

// paused freezes a running session at its clock-derived remaining value.
// Any other state passes through unchanged.
func paused(rs RunState, now time.Time) RunState {
	if rs.Status != StatusRunning || rs.EndAt == nil {
		return rs
	}
	return RunState{
		Status:       StatusPaused,
		StartedAt:    rs.StartedAt,
		RemainingSec: remainingAt(*rs.EndAt, now),
	}
}

// resumed converts a paused session back to running by deriving a new
// deadline from the frozen remaining value. A paused session with nothing
// left falls back to idle rather than resuming a dead countdown. Any other
// state passes through unchanged.
func resumed(rs RunState, now time.Time) RunState {
	if rs.Status != StatusPaused {
		return rs
	}
	if rs.RemainingSec <= 0 {
		return IdleState()
	}

	startedAt := rs.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	endAt := now.Add(time.Duration(rs.RemainingSec) * time.Second).UnixMilli()
	return RunState{
		Status:       StatusRunning,
		StartedAt:    startedAt,
		EndAt:        &endAt,
		RemainingSec: clampRemaining(rs.RemainingSec),
	}
}
