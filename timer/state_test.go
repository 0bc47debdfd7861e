package timer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusRunning, "running"},
		{StatusPaused, "paused"},
		{Status(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestStatus_JSONRoundTrip(t *testing.T) {
	for _, status := range []Status{StatusIdle, StatusRunning, StatusPaused} {
		t.Run(status.String(), func(t *testing.T) {
			data, err := json.Marshal(status)
			require.NoError(t, err)
			assert.Equal(t, `"`+status.String()+`"`, string(data))

			var decoded Status
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, status, decoded)
		})
	}
}

func TestStatus_UnmarshalRejectsUnknown(t *testing.T) {
	var s Status
	assert.Error(t, json.Unmarshal([]byte(`"sprinting"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`7`), &s))
}

func TestIdleState(t *testing.T) {
	rs := IdleState()

	assert.Equal(t, StatusIdle, rs.Status)
	assert.Nil(t, rs.StartedAt)
	assert.Nil(t, rs.EndAt)
	assert.Equal(t, SessionSeconds, rs.RemainingSec)
}

func TestRunState_IdleWireFormat(t *testing.T) {
	data, err := json.Marshal(IdleState())
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"status":"idle","startedAtISO":null,"endAtEpochMs":null,"remainingSec":1500}`,
		string(data))
}

func TestRunState_RunningWireFormat(t *testing.T) {
	startedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	endAt := startedAt.Add(SessionSeconds * time.Second).UnixMilli()
	rs := RunState{
		Status:       StatusRunning,
		StartedAt:    &startedAt,
		EndAt:        &endAt,
		RemainingSec: SessionSeconds,
	}

	data, err := json.Marshal(rs)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"status":"running","startedAtISO":"2025-01-01T10:00:00Z","endAtEpochMs":1735727100000,"remainingSec":1500}`,
		string(data))
}

func TestRunState_UnmarshalPaused(t *testing.T) {
	raw := `{"status":"paused","startedAtISO":"2025-01-01T10:00:00Z","endAtEpochMs":null,"remainingSec":900}`

	var rs RunState
	require.NoError(t, json.Unmarshal([]byte(raw), &rs))

	assert.Equal(t, StatusPaused, rs.Status)
	require.NotNil(t, rs.StartedAt)
	assert.True(t, rs.StartedAt.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, rs.EndAt)
	assert.Equal(t, 900, rs.RemainingSec)
}

func TestRunState_UnmarshalRejectsWrongTypes(t *testing.T) {
	var rs RunState
	assert.Error(t, json.Unmarshal([]byte(`{"status":"running","endAtEpochMs":"soon"}`), &rs))
	assert.Error(t, json.Unmarshal([]byte(`{"status":"paused","remainingSec":"900"}`), &rs))
}
