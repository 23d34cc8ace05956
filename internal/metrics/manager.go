// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector repsense records to.
type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterFrames        *prometheus.CounterVec
	CounterFramesMissing *prometheus.CounterVec
	CounterReps          *prometheus.CounterVec
	CounterRepsAborted   *prometheus.CounterVec
	CounterRepsDiscarded *prometheus.CounterVec
	CounterHookRuns      *prometheus.CounterVec

	// gauges
	GaugeSessions prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistFormScore       *prometheus.HistogramVec
	HistRepDuration     *prometheus.HistogramVec
}

// NewTestManager returns a Manager on a private registry under the "test" subsystem.
func NewTestManager() *Manager {
	return NewManager("repsense", "test", prometheus.NewRegistry())
}

// NewTestManagerAndRegistry is NewTestManager that also returns the registry for gathering.
func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repsense", "test", reg), reg
}

// NewManager creates and registers all collectors on reg. Registration panics
// if the same namespace and subsystem are registered twice on one registry.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)
	exerciseLabels := []string{"exercise"}

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "The total number of pose frames processed",
	}, exerciseLabels)
	counterFramesMissing := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_missing_landmarks",
		Help:      "Frames skipped because the tracked limb was not visible",
	}, exerciseLabels)
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of accepted repetitions",
	}, exerciseLabels)
	counterRepsAborted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps_aborted",
		Help:      "Descents that returned to the top without reaching depth",
	}, exerciseLabels)
	counterRepsDiscarded := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps_discarded",
		Help:      "Repetitions rejected for being faster than the minimum duration",
	}, exerciseLabels)
	counterHookRuns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "hook_runs",
		Help:      "Hook executions by outcome",
	}, []string{"hook", "result"})

	gaugeSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Current number of open sessions",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.00001, 0.00005, 0.0001, 0.0005, 0.001,
				0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)
	histFormScore := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
			Name:      "form_score",
			Help:      "Form score of accepted repetitions",
		},
		exerciseLabels,
	)
	histRepDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.3, 0.5, 0.75, 1, 1.5, 2, 3, 5, 8},
			Name:      "rep_duration_seconds",
			Help:      "Duration of accepted repetitions in seconds",
		},
		exerciseLabels,
	)

	return &Manager{
		CounterRequests:      counterRequests,
		CounterFrames:        counterFrames,
		CounterFramesMissing: counterFramesMissing,
		CounterReps:          counterReps,
		CounterRepsAborted:   counterRepsAborted,
		CounterRepsDiscarded: counterRepsDiscarded,
		CounterHookRuns:      counterHookRuns,
		GaugeSessions:        gaugeSessions,
		HistRequestDuration:  histReqDuration,
		HistFormScore:        histFormScore,
		HistRepDuration:      histRepDuration,
	}
}
