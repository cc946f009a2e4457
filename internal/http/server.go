// Package http serves the classification pipeline over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
)

// DefaultMaxBodyBytes bounds a classify request body.
const DefaultMaxBodyBytes int64 = 32 << 20

// HeaderRunID carries the run id of a classify response. The id also tags
// the run's logs and spans.
const HeaderRunID = "X-Figclass-Run-Id"

// Server provides HTTP endpoints for figclass.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	logger   *logging.Logger
	config   *Config
	metrics  *classifyMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	MaxBodyBytes int64
	// Gatherer backs GET /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// MeterProvider receives request metrics. Nil uses the global provider.
	MeterProvider metric.MeterProvider
}

// NewServer creates a new HTTP server.
func NewServer(p *pipeline.Pipeline, logger *logging.Logger, cfg *Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	m := newClassifyMetrics(cfg.MeterProvider, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(m.middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), reqID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	})

	s := &Server{
		echo:     e,
		pipeline: p,
		logger:   logger,
		config:   cfg,
		metrics:  m,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/classify", s.handleClassify)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleClassify runs the pipeline over a design tree posted as the body.
func (s *Server) handleClassify(c echo.Context) error {
	ctx := c.Request().Context()
	body := http.MaxBytesReader(c.Response(), c.Request().Body, s.config.MaxBodyBytes)

	out, err := s.pipeline.RunReader(ctx, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.recordRejected(ctx, rejectTooLarge)
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("design document exceeds %d bytes", tooLarge.Limit))
		}
		s.metrics.recordRejected(ctx, rejectInvalid)
		s.logger.Warn(ctx, "invalid classify request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.metrics.recordOutput(ctx, out)
	c.Response().Header().Set(HeaderRunID, out.RunID)

	resp := ClassifyResponse{
		Schema: out.Schema,
		Issues: out.Issues,
	}
	if c.QueryParam("explain") == "true" {
		resp.Analyses = out.Analyses
	}
	return c.JSON(http.StatusOK, resp)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
