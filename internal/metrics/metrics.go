// Package metrics provides Prometheus metrics for the sampling loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	MetricTicksTotal            = "device_monitor_ticks_total"
	MetricTickDuration          = "device_monitor_tick_duration_seconds"
	MetricLogWriteFailuresTotal = "device_monitor_log_write_failures_total"
	MetricPublishDroppedTotal   = "device_monitor_publish_dropped_total"
)

// Tick outcomes
const (
	OutcomeLogged          = "logged"
	OutcomeNoPosition      = "no_position"
	OutcomeNoBattery       = "no_battery"
	OutcomeStoppedInFlight = "stopped"
)

// Metrics contains the collectors for the sampling loop. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ticksTotal       *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	logWriteFailures prometheus.Counter
	publishDropped   prometheus.Counter
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTicksTotal,
				Help: "Total number of sampling ticks by outcome",
			},
			[]string{"outcome"},
		),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricTickDuration,
			Help:    "Histogram of sampling tick duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		logWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricLogWriteFailuresTotal,
			Help: "Total number of log blocks that could not be written",
		}),
		publishDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPublishDroppedTotal,
			Help: "Total number of locationUpdate events dropped",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ticksTotal,
		m.tickDuration,
		m.logWriteFailures,
		m.publishDropped,
	}
}

// ObserveTick records one tick with its outcome and duration.
func (m *Metrics) ObserveTick(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ticksTotal.WithLabelValues(outcome).Inc()
	m.tickDuration.Observe(seconds)
}

// IncLogWriteFailures counts a failed log append.
func (m *Metrics) IncLogWriteFailures() {
	if m == nil {
		return
	}
	m.logWriteFailures.Inc()
}

// IncPublishDropped counts an event dropped by the publisher.
func (m *Metrics) IncPublishDropped() {
	if m == nil {
		return
	}
	m.publishDropped.Inc()
}
