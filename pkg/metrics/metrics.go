package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Presence tracking
	ObservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_observations_total",
			Help: "Observations fed to the presence tracker",
		},
		[]string{"eyes_detected"},
	)

	WindowsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_windows_committed_total",
			Help: "Presence windows that reached the maturity threshold",
		},
	)

	AbandonedWindowsLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_abandoned_windows_logged_total",
			Help: "Windows closed by a negative observation after more than a minute",
		},
	)

	PersistRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_persist_retries_total",
			Help: "Failed session store attempts that were retried",
		},
		[]string{"operation"},
	)

	LostIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_lost_increments_total",
			Help: "Store writes abandoned after exhausting retries",
		},
		[]string{"kind"},
	)

	ActiveTrackers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_active_trackers",
			Help: "Users currently being tracked",
		},
	)

	DetectorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_requests_total",
			Help: "Frames sent to the face detection service",
		},
		[]string{"status"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_session_transitions_total",
			Help: "Work session lifecycle transitions",
		},
		[]string{"transition"},
	)
)

// TrackDBOperation times a store call; callers defer ObserveDuration.
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

func TrackObservation(eyesDetected bool) {
	label := "false"
	if eyesDetected {
		label = "true"
	}
	ObservationsTotal.WithLabelValues(label).Inc()
}

func TrackDetectorRequest(status string) {
	DetectorRequests.WithLabelValues(status).Inc()
}

func TrackSessionTransition(transition string) {
	SessionTransitions.WithLabelValues(transition).Inc()
}
