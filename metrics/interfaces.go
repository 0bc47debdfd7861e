// Package metrics instruments the daemon with Prometheus-compatible metrics.
//
// Two modes are supported:
//   - Scrape: instruments register with a local registry that the server
//     exposes on /metrics.
//   - Push: every observation is written to a VictoriaMetrics/Prometheus
//     remote-write endpoint, for hosts that cannot accept inbound scrapes.
//
// Instrument names are bare snake_case; push mode prepends the configured
// prefix.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a value that can move in both directions.
type Gauge interface {
	// Set replaces the current value.
	Set(float64)
}

// Counter is a monotonically increasing value.
type Counter interface {
	// Inc adds 1.
	Inc()
	// Add adds the given value. Negative values panic.
	Add(float64)
}

// CounterVec is a Counter partitioned by labels.
type CounterVec interface {
	// With returns the Counter for the given labels.
	With(prometheus.Labels) Counter
}

// Registry creates instruments. The two implementations hide the difference
// between scrape and push collection from instrumented code.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
