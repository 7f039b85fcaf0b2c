package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rigasset",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigasset",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rigasset",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method"},
	)

	transferTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigasset",
			Subsystem: "transfers",
			Name:      "transitions_total",
			Help:      "Transfer status transitions by stage and resulting status.",
		},
		[]string{"stage", "status"},
	)

	transferRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigasset",
			Subsystem: "transfers",
			Name:      "guard_failures_total",
			Help:      "Transfer operations refused by a guard, by error kind.",
		},
		[]string{"operation", "kind"},
	)

	commitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rigasset",
			Subsystem: "transfers",
			Name:      "commit_duration_seconds",
			Help:      "Duration of the completion commit unit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"result"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rigasset",
			Subsystem: "notifications",
			Name:      "failures_total",
			Help:      "Best-effort notifications that could not be written.",
		},
		[]string{"event"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		transferTransitions,
		transferRejections,
		commitDuration,
		notificationFailures,
	)
}

// Handler returns the Prometheus exposition handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns a function that
// decrements it.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordHTTPRequest records a finished HTTP request.
func RecordHTTPRequest(method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordTransition records a transfer entering a status.
func RecordTransition(stage, status string) {
	transferTransitions.WithLabelValues(stage, status).Inc()
}

// RecordGuardFailure records an operation refused before any state change.
func RecordGuardFailure(operation, kind string) {
	transferRejections.WithLabelValues(operation, kind).Inc()
}

// RecordCommit records the outcome and duration of a completion commit.
func RecordCommit(success bool, d time.Duration) {
	result := "committed"
	if !success {
		result = "rolled_back"
	}
	commitDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordNotificationFailure records a best-effort notification that failed.
func RecordNotificationFailure(event string) {
	notificationFailures.WithLabelValues(event).Inc()
}
