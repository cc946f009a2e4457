package logging

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fyrsmithlabs/figclass/internal/config"
	"go.uber.org/zap/zapcore"
)

// Output streams.
const (
	StreamStderr = "stderr"
	StreamStdout = "stdout"
	StreamNone   = "none"
)

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level
	Format    string
	Output    OutputConfig
	Sampling  SamplingConfig
	Caller    bool
	Fields    map[string]string
	Redaction RedactionConfig
}

// OutputConfig selects the sinks.
type OutputConfig struct {
	Stream string
	OTEL   bool
}

// SamplingConfig limits log volume per level within each tick.
type SamplingConfig struct {
	Enabled bool
	Tick    config.Duration
	Levels  map[zapcore.Level]LevelSampling
}

// LevelSampling keeps the first Initial entries with the same message per
// tick, then every Thereafter-th. Thereafter zero drops the rest.
type LevelSampling struct {
	Initial    int
	Thereafter int
}

// RedactionConfig lists field names and value patterns to mask.
type RedactionConfig struct {
	Enabled  bool
	Fields   []string
	Patterns []string
}

// NewDefaultConfig returns the configuration used by the CLI and server.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{Stream: StreamStderr},
		Sampling: SamplingConfig{
			Enabled: true,
			Tick:    config.Duration(time.Second),
			Levels:  DefaultLevelSampling(),
		},
		Caller: true,
		Fields: map[string]string{"service": "figclass"},
		Redaction: RedactionConfig{
			Enabled:  true,
			Fields:   []string{"api_key", "apikey", "authorization", "x-api-key", "token", "secret"},
			Patterns: []string{`(?i)bearer\s+\S+`, `sk-[A-Za-z0-9_-]{8,}`},
		},
	}
}

// DefaultLevelSampling keeps per-node trace and debug output from flooding
// large documents.
func DefaultLevelSampling() map[zapcore.Level]LevelSampling {
	return map[zapcore.Level]LevelSampling{
		TraceLevel:         {Initial: 50, Thereafter: 0},
		zapcore.DebugLevel: {Initial: 200, Thereafter: 50},
		zapcore.InfoLevel:  {Initial: 100, Thereafter: 10},
		zapcore.WarnLevel:  {Initial: 100, Thereafter: 100},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	switch c.Output.Stream {
	case StreamStderr, StreamStdout, StreamNone, "":
	default:
		return fmt.Errorf("output stream must be stderr, stdout or none, got %q", c.Output.Stream)
	}
	if !c.hasStream() && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stream or otel)")
	}
	if c.Sampling.Enabled && c.Sampling.Tick.Duration() <= 0 {
		return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
	}
	for lvl, s := range c.Sampling.Levels {
		if s.Initial < 0 || s.Thereafter < 0 {
			return fmt.Errorf("sampling for %s must not be negative", lvl)
		}
	}
	if c.Redaction.Enabled {
		for _, p := range c.Redaction.Patterns {
			if len(p) > maxPatternLen {
				return fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
			}
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", p, err)
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}

func (c *Config) hasStream() bool {
	return c.Output.Stream != StreamNone && c.Output.Stream != ""
}
