package runner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pomodhq/pomod/metrics"
	"github.com/pomodhq/pomod/timer"
)

// Metrics holds the runner's instruments. A nil *Metrics is valid and
// records nothing, so the runner never branches on whether monitoring is
// configured.
type Metrics struct {
	sessionsCompleted metrics.Counter
	transitions       metrics.CounterVec
	hydrateFailures   metrics.Counter
	remainingSeconds  metrics.Gauge
}

// NewMetrics registers the runner's instruments with the given registry.
// Metric names are unprefixed; push mode applies the configured prefix.
func NewMetrics(registry metrics.Registry) (*Metrics, error) {
	sessionsCompleted, err := registry.NewCounter(prometheus.CounterOpts{
		Name: "sessions_completed_total",
		Help: "Number of focus sessions that ran to completion.",
	})
	if err != nil {
		return nil, err
	}

	transitions, err := registry.NewCounterVec(prometheus.CounterOpts{
		Name: "timer_transitions_total",
		Help: "Number of timer transitions, labelled by the resulting status.",
	}, []string{"to"})
	if err != nil {
		return nil, err
	}

	hydrateFailures, err := registry.NewCounter(prometheus.CounterOpts{
		Name: "hydrate_failures_total",
		Help: "Number of polls that could not load the run state.",
	})
	if err != nil {
		return nil, err
	}

	remainingSeconds, err := registry.NewGauge(prometheus.GaugeOpts{
		Name: "session_remaining_seconds",
		Help: "Seconds left in the current session (full length when idle).",
	})
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsCompleted: sessionsCompleted,
		transitions:       transitions,
		hydrateFailures:   hydrateFailures,
		remainingSeconds:  remainingSeconds,
	}, nil
}

// ObserveCompletion counts a finished session.
func (m *Metrics) ObserveCompletion() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}

// ObserveTransition counts a transition into the given status.
func (m *Metrics) ObserveTransition(to timer.Status) {
	if m == nil {
		return
	}
	m.transitions.With(prometheus.Labels{"to": to.String()}).Inc()
}

// ObserveHydrateFailure counts a poll that failed to load state.
func (m *Metrics) ObserveHydrateFailure() {
	if m == nil {
		return
	}
	m.hydrateFailures.Inc()
}

// ObserveRemaining publishes the current countdown value.
func (m *Metrics) ObserveRemaining(rs timer.RunState) {
	if m == nil {
		return
	}
	m.remainingSeconds.Set(float64(rs.RemainingSec))
}
