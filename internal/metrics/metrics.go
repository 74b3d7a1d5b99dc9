package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by ObserveRun.
const (
	OutcomeOK               = "ok"
	OutcomeCalibrationError = "calibration_error"
	OutcomeTimingError      = "timing_error"
	OutcomeError            = "error"
)

// Metrics holds the analyzer counters on a private registry.
type Metrics struct {
	// Frame counters
	FramesProcessed atomic.Uint64
	SubjectMisses   atomic.Uint64
	SamplesEmitted  atomic.Uint64

	// Last observed background model foreground fraction, in per-mille.
	ForegroundPermille atomic.Uint64

	runs     *prometheus.CounterVec
	speeds   prometheus.Histogram
	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprint_runs_total",
			Help: "Completed analyzer runs by outcome",
		}, []string{"outcome"}),
		speeds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sprint_average_speed_mps",
			Help:    "Average speed of successful runs in metres per second",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.runs, m.speeds)

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "sprint_frames_processed_total",
			Help: "Total frames run through the analyzer",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "sprint_subject_misses_total",
			Help: "Frames on which no subject was located",
		},
		func() float64 { return float64(m.SubjectMisses.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "sprint_samples_emitted_total",
			Help: "Trajectory samples emitted by the timer",
		},
		func() float64 { return float64(m.SamplesEmitted.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sprint_foreground_ratio",
			Help: "Foreground pixel fraction of the last background-subtracted frame",
		},
		func() float64 { return float64(m.ForegroundPermille.Load()) / 1000 },
	))
}

// ObserveFrame counts one analysed frame.
func (m *Metrics) ObserveFrame(subjectFound, sampleEmitted bool) {
	m.FramesProcessed.Add(1)
	if !subjectFound {
		m.SubjectMisses.Add(1)
	}
	if sampleEmitted {
		m.SamplesEmitted.Add(1)
	}
}

// ObserveForeground records the foreground share of the latest frame.
func (m *Metrics) ObserveForeground(foreground, total int) {
	if total <= 0 {
		return
	}
	m.ForegroundPermille.Store(uint64(foreground * 1000 / total))
}

// ObserveRun counts a finished run. Speed is recorded for successful runs
// only.
func (m *Metrics) ObserveRun(outcome string, averageSpeedMPS float64) {
	m.runs.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.speeds.Observe(averageSpeedMPS)
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
