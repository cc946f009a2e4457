package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const pageDoc = `{
	"id": "1:1", "name": "Landing", "type": "FRAME",
	"x": 0, "y": 0, "width": 1440, "height": 900, "layoutMode": "VERTICAL",
	"children": [
		{"id": "1:2", "name": "w:heading", "type": "TEXT", "x": 0, "y": 0, "width": 400, "height": 40,
		 "characters": "Welcome", "fontSize": 40},
		{"id": "1:3", "name": "Rule", "type": "RECTANGLE", "x": 0, "y": 60, "width": 400, "height": 1,
		 "fills": [{"type": "SOLID", "color": {"r": 0.8, "g": 0.8, "b": 0.8}}]}
	]
}`

func setupTestServer(t *testing.T, cfg *Config) (*Server, *logging.TestLogger) {
	t.Helper()
	logger := logging.NewTestLogger()
	server, err := NewServer(pipeline.New(nil, nil), logger.Logger, cfg)
	require.NoError(t, err)
	return server, logger
}

func classify(server *Server, query, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify"+query, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 9090}

		server, err := NewServer(pipeline.New(nil, nil), logging.Nop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
		assert.Equal(t, DefaultMaxBodyBytes, server.config.MaxBodyBytes)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(pipeline.New(nil, nil), logging.Nop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 8080, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(pipeline.New(nil, nil), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when pipeline is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.Nop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleClassify(t *testing.T) {
	t.Run("returns schema", func(t *testing.T) {
		server, logger := setupTestServer(t, nil)

		rec := classify(server, "", pageDoc)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ClassifyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Landing", resp.Schema.Page.Title)
		assert.NotEmpty(t, rec.Header().Get(HeaderRunID))
		assert.NotContains(t, rec.Body.String(), "runId")
		require.Len(t, resp.Schema.Containers, 1)
		root := resp.Schema.Containers[0]
		require.NotEmpty(t, root.Widgets)
		assert.Equal(t, widget.KindHeading, root.Widgets[0].Kind)
		assert.Empty(t, resp.Analyses)

		logger.AssertLogged(t, zapcore.InfoLevel, "http request")
		logger.AssertField(t, "http request", "status", int64(http.StatusOK))
	})

	t.Run("explain includes analyses", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		rec := classify(server, "?explain=true", pageDoc)
		require.Equal(t, http.StatusOK, rec.Code)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		var analyses []map[string]any
		require.NoError(t, json.Unmarshal(raw["analyses"], &analyses))
		require.Len(t, analyses, 2)
		assert.Equal(t, "1:2", analyses[0]["nodeId"])
		assert.Equal(t, "explicit", analyses[0]["method"])
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		server, logger := setupTestServer(t, nil)

		rec := classify(server, "", "invalid json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		logger.AssertLogged(t, zapcore.WarnLevel, "invalid classify request")
	})

	t.Run("rejects empty body", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		rec := classify(server, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		doc := `{"id": "1", "name": "P", "type": "FRAME", "children": [
			{"id": "2", "name": "a", "type": "TEXT", "characters": "a"},
			{"id": "2", "name": "b", "type": "TEXT", "characters": "b"}]}`
		rec := classify(server, "", doc)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp["message"], "duplicate")
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		server, _ := setupTestServer(t, &Config{Host: "localhost", Port: 8080, MaxBodyBytes: 64})

		rec := classify(server, "", pageDoc)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.RecordClassification(string(widget.KindHeading), "explicit")

	server, _ := setupTestServer(t, &Config{Host: "localhost", Port: 8080, Gatherer: reg})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "figclass_classifications_total")
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
