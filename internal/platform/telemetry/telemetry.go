// Package telemetry provides Prometheus metrics and OpenTelemetry spans for the
// HTTP host. The evaluators themselves stay free of instrumentation; handlers
// record around each call.
package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	namespace           = "healthai"
	instrumentationName = "github.com/healthai/healthai"
)

// Engine names used as metric labels.
const (
	EnginePrediction = "prediction"
	EngineTreatment  = "treatment"
	EngineChat       = "chat"
)

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// EngineMetrics exposes counters and histograms for evaluator calls and the
// HTTP requests that carry them. A nil *EngineMetrics is valid and records
// nothing.
type EngineMetrics struct {
	evaluations  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	candidates   prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpActive   prometheus.Gauge
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total evaluator calls by engine and outcome",
		}, []string{"engine", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_duration_seconds",
			Help:      "Latency of evaluator calls",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"engine"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "candidates",
			Help:      "Number of conditions returned per symptom match",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Number of in-flight HTTP requests",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.evaluations, m.latency, m.candidates, m.httpRequests, m.httpDuration, m.httpActive)
	return m
}

// ObserveEvaluation records one evaluator call.
func (m *EngineMetrics) ObserveEvaluation(engine, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(engine, outcome).Inc()
	m.latency.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// ObserveCandidates records the size of a prediction result.
func (m *EngineMetrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}

// Middleware returns an Echo middleware that records HTTP server metrics.
func (m *EngineMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			m.httpActive.Inc()
			defer m.httpActive.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				// Write the error now so the recorded status is final. The
				// default error handler skips committed responses.
				c.Error(err)
			}

			req := c.Request()
			m.httpRequests.WithLabelValues(req.Method, routeOf(c), strconv.Itoa(c.Response().Status)).Inc()
			m.httpDuration.WithLabelValues(req.Method, routeOf(c)).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the gathered metrics in Prometheus exposition format.
func Handler(g prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

var tracer = otel.Tracer(instrumentationName)

// StartSpan opens a span named after an evaluator call. Callers must End it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// TracingMiddleware opens a server span for every HTTP request and stores it
// on the request context so handlers can nest evaluator spans beneath it.
func TracingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method+" "+routeOf(c),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", routeOf(c)),
				),
			)
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, "server error")
			}
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
	}
}

// routeOf returns the route pattern, not the actual path.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
