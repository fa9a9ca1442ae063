package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API, dispatch and warmup flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	admissionTotal       *prometheus.CounterVec
	outcomesTotal        *prometheus.CounterVec
	autoPausesTotal      *prometheus.CounterVec
	warmupAdvancesTotal  *prometheus.CounterVec
	warmupFailuresTotal  *prometheus.CounterVec
	scorerFallbacksTotal *prometheus.CounterVec
	dispatchUnsentTotal  prometheus.Counter
	sendDuration         *prometheus.HistogramVec
	dispatchInflight     prometheus.Gauge
}

const namespace = "warmup_engine"

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		admissionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_decisions_total",
				Help:      "Admission decisions grouped by check and result.",
			},
			[]string{"check", "result"},
		),
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_outcomes_total",
				Help:      "Recorded send outcomes grouped by outcome tag.",
			},
			[]string{"outcome"},
		),
		autoPausesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auto_pauses_total",
				Help:      "Identities paused by the health engine grouped by kind and reason.",
			},
			[]string{"kind", "reason"},
		),
		warmupAdvancesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warmup_advances_total",
				Help:      "Warmup day advances grouped by identity kind.",
			},
			[]string{"kind"},
		),
		warmupFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warmup_cycle_failures_total",
				Help:      "Identities that failed a warmup cycle grouped by kind.",
			},
			[]string{"kind"},
		),
		scorerFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spam_scorer_fallbacks_total",
				Help:      "Content scoring requests answered by the heuristic, grouped by reason.",
			},
			[]string{"reason"},
		),
		dispatchUnsentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_unsent_recipients_total",
				Help:      "Recipients left unsent when a campaign dispatch stopped early.",
			},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "send_duration_seconds",
				Help:      "Sender call duration in seconds grouped by sender.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"sender"},
		),
		dispatchInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight campaign dispatches.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.admissionTotal,
		m.outcomesTotal,
		m.autoPausesTotal,
		m.warmupAdvancesTotal,
		m.warmupFailuresTotal,
		m.scorerFallbacksTotal,
		m.dispatchUnsentTotal,
		m.sendDuration,
		m.dispatchInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

// IncAdmission records one admission decision. result is "admitted" or the
// rejection kind.
func (m *Metrics) IncAdmission(check string, result string) {
	if m == nil {
		return
	}
	m.admissionTotal.WithLabelValues(normalizeLabel(check), normalizeLabel(result)).Inc()
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncAutoPause(kind string, reason string) {
	if m == nil {
		return
	}
	m.autoPausesTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncWarmupAdvance(kind string) {
	if m == nil {
		return
	}
	m.warmupAdvancesTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncWarmupFailure(kind string) {
	if m == nil {
		return
	}
	m.warmupFailuresTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncScorerFallback(reason string) {
	if m == nil {
		return
	}
	m.scorerFallbacksTotal.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) AddDispatchUnsent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dispatchUnsentTotal.Add(float64(n))
}

func (m *Metrics) ObserveSendDuration(sender string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(normalizeLabel(sender)).Observe(seconds)
}

func (m *Metrics) IncDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Inc()
}

func (m *Metrics) DecDispatchInFlight() {
	if m == nil {
		return
	}
	m.dispatchInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
