// metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduled job metrics
	JobRunsTotal   *prometheus.CounterVec
	JobFailures    *prometheus.CounterVec
	JobRunDuration *prometheus.HistogramVec

	// Replenishment metrics
	RequestsCreatedTotal *prometheus.CounterVec
	RequestsMergedTotal  prometheus.Counter
	TransitionsTotal     *prometheus.CounterVec

	// Forecast metrics
	ForecastsUpsertedTotal prometheus.Counter

	// Notification metrics
	NotificationFailures prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
)

// InitMetrics registers all agent metrics with the default registry.
func InitMetrics(prefix string) {
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"kind"},
	)

	JobFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_job_failures_total",
			Help: "Total number of failed scheduled job runs",
		},
		[]string{"kind"},
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_job_run_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RequestsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_requests_created_total",
			Help: "Total number of replenishment requests created",
		},
		[]string{"source"},
	)

	RequestsMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_requests_merged_total",
			Help: "Total number of merges into open replenishment requests",
		},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_request_transitions_total",
			Help: "Total number of request status transitions",
		},
		[]string{"to"},
	)

	ForecastsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_forecasts_upserted_total",
			Help: "Total number of forecast documents created or refreshed",
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_notification_failures_total",
			Help: "Total number of dropped notification dispatches",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
}

// TrackJobRun returns a function that records the duration of a job run.
func TrackJobRun(kind string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if JobRunDuration != nil {
			JobRunDuration.WithLabelValues(kind).Observe(time.Since(startTime).Seconds())
		}
	}
}

// RecordJobRun increments the run counter for a job kind.
func RecordJobRun(kind string) {
	if JobRunsTotal != nil {
		JobRunsTotal.WithLabelValues(kind).Inc()
	}
}

// RecordJobFailure increments the failure counter for a job kind.
func RecordJobFailure(kind string) {
	if JobFailures != nil {
		JobFailures.WithLabelValues(kind).Inc()
	}
}

// RecordRequestCreated increments the created counter for a request source.
func RecordRequestCreated(source string) {
	if RequestsCreatedTotal != nil {
		RequestsCreatedTotal.WithLabelValues(source).Inc()
	}
}

// RecordRequestMerged increments the merge counter.
func RecordRequestMerged() {
	if RequestsMergedTotal != nil {
		RequestsMergedTotal.Inc()
	}
}

// RecordTransition increments the transition counter for a target status.
func RecordTransition(to string) {
	if TransitionsTotal != nil {
		TransitionsTotal.WithLabelValues(to).Inc()
	}
}

// RecordForecastUpserted increments the forecast upsert counter.
func RecordForecastUpserted() {
	if ForecastsUpsertedTotal != nil {
		ForecastsUpsertedTotal.Inc()
	}
}

// RecordNotificationFailure increments the dropped-notification counter.
func RecordNotificationFailure() {
	if NotificationFailures != nil {
		NotificationFailures.Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, status string, duration time.Duration) {
	if HTTPRequestsTotal != nil {
		HTTPRequestsTotal.WithLabelValues(method, status).Inc()
	}
	if HTTPRequestDuration != nil {
		HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	}
}
