// Package observability provides metrics, tracing, and logging infrastructure.
package observability

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Sentinel Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	// NATS metrics
	NATSMessagesPublished *prometheus.CounterVec
	NATSConnectionStatus  prometheus.Gauge

	// Event bus metrics
	EventsProcessed *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	EventLatency    *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBErrors        *prometheus.CounterVec

	// Detection and mission metrics
	DetectionsIngested *prometheus.CounterVec
	MissionsSynthesized prometheus.Counter
	MissionsActive      prometheus.Gauge

	// Prediction engine metrics
	SpreadSimulationsRun   prometheus.Counter
	SpreadSimulationLatency prometheus.Histogram
	RiskScoresComputed     *prometheus.CounterVec
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = initializeMetrics()
	})
	return globalMetrics
}

// initializeMetrics creates all Prometheus metrics.
func initializeMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentinel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	m.HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentinel",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 12),
		},
		[]string{"endpoint"},
	)

	m.WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sentinel",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	m.WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	m.NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "nats",
			Name:      "messages_published_total",
			Help:      "Total NATS messages published",
		},
		[]string{"subject"},
	)

	m.NATSConnectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sentinel",
			Subsystem: "nats",
			Name:      "connection_status",
			Help:      "NATS connection status (1 = connected, 0 = disconnected)",
		},
	)

	m.EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Total events processed by subscriber handlers",
		},
		[]string{"topic"},
	)

	m.EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total events dropped because a subscriber queue was full",
		},
		[]string{"topic"},
	)

	m.EventLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentinel",
			Subsystem: "events",
			Name:      "latency_seconds",
			Help:      "Event handler processing latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"topic"},
	)

	m.DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentinel",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"database", "operation"},
	)

	m.DBErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "database",
			Name:      "errors_total",
			Help:      "Total database errors",
		},
		[]string{"database", "operation"},
	)

	m.DetectionsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "detections",
			Name:      "ingested_total",
			Help:      "Total detections ingested, by detection type",
		},
		[]string{"type"},
	)

	m.MissionsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "missions",
			Name:      "synthesized_total",
			Help:      "Total missions auto-synthesized from high-confidence detections",
		},
	)

	m.MissionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sentinel",
			Subsystem: "missions",
			Name:      "active",
			Help:      "Number of missions currently in the active state",
		},
	)

	m.SpreadSimulationsRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "spread",
			Name:      "simulations_total",
			Help:      "Total fire spread simulations run",
		},
	)

	m.SpreadSimulationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentinel",
			Subsystem: "spread",
			Name:      "simulation_duration_seconds",
			Help:      "Fire spread Monte-Carlo simulation wall time in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	m.RiskScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel",
			Subsystem: "risk",
			Name:      "scores_computed_total",
			Help:      "Total risk scores computed, by engine mode",
		},
		[]string{"mode"},
	)

	return m
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware wraps an HTTP handler with metrics collection.
func HTTPMiddleware(next http.Handler) http.Handler {
	m := GetMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		endpoint := normalizeEndpoint(r.URL.Path)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, statusToStr(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
		m.HTTPResponseSize.WithLabelValues(endpoint).Observe(float64(wrapped.size))
	})
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijacker not supported")
	}
	return hijacker.Hijack()
}

func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// normalizeEndpoint normalizes URL paths to prevent cardinality explosion.
func normalizeEndpoint(path string) string {
	switch {
	case len(path) > 26 && path[:26] == "/api/v1/telemetry/devices/":
		return "/api/v1/telemetry/devices/:id"
	case len(path) > 17 && path[:17] == "/api/v1/missions/":
		return "/api/v1/missions/:id"
	default:
		return path
	}
}

func statusToStr(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// RecordEventProcessed records an event being processed.
func RecordEventProcessed(topic string) {
	GetMetrics().EventsProcessed.WithLabelValues(topic).Inc()
}

// RecordEventDropped records an event dropped by a full subscriber queue.
func RecordEventDropped(topic string) {
	GetMetrics().EventsDropped.WithLabelValues(topic).Inc()
}

// RecordEventLatency records event processing latency.
func RecordEventLatency(topic string, duration time.Duration) {
	GetMetrics().EventLatency.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(database, operation string, duration time.Duration) {
	GetMetrics().DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordDBError records a database error.
func RecordDBError(database, operation string) {
	GetMetrics().DBErrors.WithLabelValues(database, operation).Inc()
}

// RecordDetectionIngested records a detection being ingested.
func RecordDetectionIngested(detectionType string) {
	GetMetrics().DetectionsIngested.WithLabelValues(detectionType).Inc()
}

// RecordMissionSynthesized records an auto-synthesized mission.
func RecordMissionSynthesized() {
	GetMetrics().MissionsSynthesized.Inc()
}

// UpdateActiveMissions updates the active-mission gauge.
func UpdateActiveMissions(count int) {
	GetMetrics().MissionsActive.Set(float64(count))
}

// RecordSpreadSimulation records a completed spread simulation run.
func RecordSpreadSimulation(duration time.Duration) {
	GetMetrics().SpreadSimulationsRun.Inc()
	GetMetrics().SpreadSimulationLatency.Observe(duration.Seconds())
}

// RecordRiskScore records a risk score computation, tagged by engine mode.
func RecordRiskScore(mode string) {
	GetMetrics().RiskScoresComputed.WithLabelValues(mode).Inc()
}

// UpdateWebSocketConnections updates the active WebSocket connection gauge.
func UpdateWebSocketConnections(count int) {
	GetMetrics().WebSocketConnections.Set(float64(count))
}

// UpdateNATSConnectionStatus updates the NATS connection status.
func UpdateNATSConnectionStatus(connected bool) {
	if connected {
		GetMetrics().NATSConnectionStatus.Set(1)
	} else {
		GetMetrics().NATSConnectionStatus.Set(0)
	}
}
