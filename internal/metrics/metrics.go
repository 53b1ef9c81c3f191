package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wirechat"

// Metrics holds the relay's collectors on a private registry so several
// servers (tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	roomsActive       prometheus.Gauge
	roomsCreated      prometheus.Counter
	sessionsActive    prometheus.Gauge
	linesBroadcast    prometheus.Counter
	linesDropped      prometheus.Counter
	linesThrottled    prometheus.Counter
	handshakeFailures *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New registers all collectors, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of rooms with at least one member",
		}),
		roomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions that completed the handshake and have not closed",
		}),
		linesBroadcast: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_broadcast_total",
			Help:      "Total number of lines published to room streams",
		}),
		linesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Lines skipped by subscribers that fell behind the room buffer",
		}),
		linesThrottled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_throttled_total",
			Help:      "Inbound chat lines discarded by the per-connection rate limit",
		}),
		handshakeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Rejected handshakes by reason",
		}, []string{"reason"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests received",
		}, []string{"method", "path", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// RoomCreated implements core.Observer.
func (m *Metrics) RoomCreated(string) {
	m.roomsActive.Inc()
	m.roomsCreated.Inc()
}

// RoomRemoved implements core.Observer.
func (m *Metrics) RoomRemoved(string) {
	m.roomsActive.Dec()
}

// SessionStarted implements session.Recorder.
func (m *Metrics) SessionStarted() { m.sessionsActive.Inc() }

// SessionEnded implements session.Recorder.
func (m *Metrics) SessionEnded() { m.sessionsActive.Dec() }

// LineBroadcast implements session.Recorder.
func (m *Metrics) LineBroadcast() { m.linesBroadcast.Inc() }

// LinesDropped implements session.Recorder; n is how many lines a lagging reader skipped.
func (m *Metrics) LinesDropped(n uint64) { m.linesDropped.Add(float64(n)) }

// LineThrottled implements session.Recorder.
func (m *Metrics) LineThrottled() { m.linesThrottled.Inc() }

// HandshakeFailed implements session.Recorder; reason is a core error code.
func (m *Metrics) HandshakeFailed(reason string) {
	m.handshakeFailures.WithLabelValues(reason).Inc()
}

// ObserveRequest records one finished HTTP request. path should be the
// route pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpLatency.With(labels).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
