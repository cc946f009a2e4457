package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/figclass/internal/http"

// Rejection reasons recorded on figclass.classify.rejected.
const (
	rejectTooLarge = "too_large"
	rejectInvalid  = "invalid"
)

// classifyMetrics records request traffic and what each classify request
// produced. Nil instruments are skipped.
type classifyMetrics struct {
	logger *logging.Logger

	requests metric.Int64Counter
	duration metric.Float64Histogram
	nodes    metric.Int64Histogram
	methods  metric.Int64Counter
	issues   metric.Int64Counter
	missing  metric.Int64Counter
	rejected metric.Int64Counter
}

func newClassifyMetrics(mp metric.MeterProvider, logger *logging.Logger) *classifyMetrics {
	meter := mp.Meter(httpInstrumentationName)
	m := &classifyMetrics{logger: logger}

	var err error
	warn := func(name string) {
		if err != nil {
			logger.Warn(context.Background(), "failed to create instrument",
				zap.String("instrument", name), zap.Error(err))
		}
	}

	m.requests, err = meter.Int64Counter("figclass.http.requests",
		metric.WithDescription("HTTP requests by route, method and status"),
		metric.WithUnit("{request}"))
	warn("figclass.http.requests")

	m.duration, err = meter.Float64Histogram("figclass.http.request_duration",
		metric.WithDescription("HTTP request latency by route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30))
	warn("figclass.http.request_duration")

	m.nodes, err = meter.Int64Histogram("figclass.classify.nodes",
		metric.WithDescription("Nodes classified per request"),
		metric.WithUnit("{node}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000))
	warn("figclass.classify.nodes")

	m.methods, err = meter.Int64Counter("figclass.classify.decisions",
		metric.WithDescription("Node decisions served over HTTP, by decision method"),
		metric.WithUnit("{node}"))
	warn("figclass.classify.decisions")

	m.issues, err = meter.Int64Counter("figclass.classify.issues",
		metric.WithDescription("Structural issues returned, by severity"),
		metric.WithUnit("{issue}"))
	warn("figclass.classify.issues")

	m.missing, err = meter.Int64Counter("figclass.classify.missing_nodes",
		metric.WithDescription("Visible source nodes absent from a returned schema"),
		metric.WithUnit("{node}"))
	warn("figclass.classify.missing_nodes")

	m.rejected, err = meter.Int64Counter("figclass.classify.rejected",
		metric.WithDescription("Classify requests rejected before a schema was built, by reason"),
		metric.WithUnit("{request}"))
	warn("figclass.classify.rejected")

	return m
}

// middleware counts every request and its latency.
func (m *classifyMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			attrs := metric.WithAttributes(
				attribute.String("route", route(c.Path())),
				attribute.String("method", c.Request().Method),
				attribute.Int("status", status),
			)
			ctx := c.Request().Context()
			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			return err
		}
	}
}

// recordOutput records what one successful classify request produced.
func (m *classifyMetrics) recordOutput(ctx context.Context, out *pipeline.Output) {
	if m.nodes != nil {
		m.nodes.Record(ctx, int64(len(out.Analyses)))
	}
	if m.methods != nil {
		counts := map[string]int64{}
		for _, a := range out.Analyses {
			counts[string(a.Method)]++
		}
		for method, n := range counts {
			m.methods.Add(ctx, n, metric.WithAttributes(attribute.String("method", method)))
		}
	}
	if m.issues != nil {
		counts := map[string]int64{}
		for _, is := range out.Issues {
			counts[string(is.Severity)]++
		}
		for sev, n := range counts {
			m.issues.Add(ctx, n, metric.WithAttributes(attribute.String("severity", sev)))
		}
	}
	if m.missing != nil && len(out.Missing) > 0 {
		m.missing.Add(ctx, int64(len(out.Missing)))
	}
}

func (m *classifyMetrics) recordRejected(ctx context.Context, reason string) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// route maps unmatched requests to a single label value. Registered routes
// are static.
func route(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
