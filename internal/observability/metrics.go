package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

const defaultNamespace = "focus_tracker"

type MetricsOption func(*Metrics)

func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors to the registry.
func WithRuntimeCollectors() MetricsOption {
	return func(m *Metrics) {
		m.runtime = true
	}
}

// Metrics owns a private Prometheus registry for the poll loop, the game API
// client and the HTTP surface.
type Metrics struct {
	namespace string
	runtime   bool
	registry  *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	cycleEntities    prometheus.Gauge
	newMatches       prometheus.Counter
	skippedMatches   prometheus.Counter
	entityFailures   prometheus.Counter
	groupsSaved      prometheus.Counter
	alerts           *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

var _ usecase.PollMetrics = (*Metrics)(nil)

func NewMetrics(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace: defaultNamespace,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(m.registry)
	m.cycles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "cycles_total",
		Help:      "Poll cycles by outcome.",
	}, []string{"outcome"})
	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one poll cycle.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	m.cycleEntities = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "tracked_entities",
		Help:      "Players visited by the last poll cycle.",
	})
	m.newMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "new_matches_total",
		Help:      "Completed matches recorded into player history.",
	})
	m.skippedMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "skipped_matches_total",
		Help:      "New match ids that could not be analyzed.",
	})
	m.entityFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "entity_failures_total",
		Help:      "Players abandoned for a cycle because the match list failed.",
	})
	m.groupsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "poll",
		Name:      "groups_saved_total",
		Help:      "Group writes caused by poll cycles.",
	})
	m.alerts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "streak",
		Name:      "alerts_total",
		Help:      "Streak alerts raised by kind.",
	}, []string{"kind"})
	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "notify",
		Name:      "messages_total",
		Help:      "Notifications sent by kind and result.",
	}, []string{"kind", "result"})
	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "riot",
		Name:      "requests_total",
		Help:      "Game data API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "riot",
		Name:      "request_duration_seconds",
		Help:      "Game data API call latency including retries and limiter waits.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})
	m.httpLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveCycle(report usecase.CycleReport, outcome string) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(report.Duration.Seconds())
	m.cycleEntities.Set(float64(report.Entities))
	m.newMatches.Add(float64(report.NewMatches))
	m.skippedMatches.Add(float64(report.Skipped))
	m.entityFailures.Add(float64(report.Failures))
	m.groupsSaved.Add(float64(report.Saved))
}

func (m *Metrics) IncAlert(kind string) {
	m.alerts.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotification(kind string, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// ObserveUpstreamRequest records one game data API call.
func (m *Metrics) ObserveUpstreamRequest(endpoint, outcome string, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
