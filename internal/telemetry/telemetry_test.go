package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/figclass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"disabled skips checks", func(c *Config) { c.Endpoint = "" }, ""},
		{"enabled local", func(c *Config) { c.Enabled = true }, ""},
		{"enabled loopback ip", func(c *Config) { c.Enabled = true; c.Endpoint = "http://127.0.0.1:4318" }, ""},
		{"no endpoint", func(c *Config) { c.Enabled = true; c.Endpoint = "" }, "endpoint is required"},
		{"insecure remote", func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4318" }, "not allowed"},
		{"secure remote", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "otel.example.com:4318"
			c.Insecure = false
		}, ""},
		{"bad sampling", func(c *Config) { c.Enabled = true; c.SamplingRate = 2 }, "sampling rate"},
		{"zero interval", func(c *Config) { c.Enabled = true; c.ExportInterval = 0 }, "export interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.TelemetryConfig{
		Enabled:      true,
		Endpoint:     "localhost:14318",
		SamplingRate: 0.5,
		Insecure:     true,
	})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "localhost:14318", cfg.Endpoint)
	assert.Equal(t, "figclass", cfg.ServiceName)
	assert.Equal(t, 0.5, cfg.SamplingRate)
	assert.NoError(t, cfg.Validate())
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	assert.False(t, tel.IsEnabled())
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = ""
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid telemetry config")
}

func TestNew_EnabledShutsDown(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tel.Shutdown(ctx)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.IsEnabled())
	degraded, err := tel.Degraded()
	assert.False(t, degraded)
	assert.NoError(t, err)
}

func TestTestTelemetry_RecordsSpansAndMetrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("figclass/test").Start(ctx, "builder.Build")
	span.SetAttributes(attribute.Int("nodes", 4), attribute.String("run.id", "r1"))
	span.End()

	tt.AssertSpanExists(t, "builder.Build")
	tt.AssertSpanAttribute(t, "builder.Build", "nodes", int64(4))
	tt.AssertSpanAttribute(t, "builder.Build", "run.id", "r1")
	assert.Nil(t, tt.SpanByName("missing"))

	counter, err := tt.Meter("figclass/test").Int64Counter("figclass.test.count")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, tt.MetricReader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	assert.Equal(t, "figclass.test.count", rm.ScopeMetrics[0].Metrics[0].Name)
}
