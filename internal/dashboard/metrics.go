package dashboard

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarmon_messages_ingested_total",
			Help: "Total number of MQTT messages ingested per category",
		},
		[]string{"category"},
	)

	ingestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarmon_ingest_errors_total",
			Help: "Total number of MQTT messages dropped during ingest",
		},
		[]string{"reason"},
	)

	snapshotWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solarmon_snapshot_writes_total",
			Help: "Total number of snapshot files written",
		},
	)

	snapshotsArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solarmon_snapshots_archived_total",
			Help: "Total number of snapshot files uploaded to object storage",
		},
	)

	totalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarmon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarmon_http_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(messagesIngested)
	prometheus.MustRegister(ingestErrors)
	prometheus.MustRegister(snapshotWrites)
	prometheus.MustRegister(snapshotsArchived)
	prometheus.MustRegister(totalRequests)
	prometheus.MustRegister(requestDuration)
}

// MetricsMiddleware records request counts and latencies per endpoint.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		totalRequests.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.status)).Inc()
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
