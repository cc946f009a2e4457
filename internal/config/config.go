// Package config loads figclass configuration.
//
// Values start from Default, are overlaid by an optional YAML file, then by
// FIGCLASS_* environment variables, and are finally validated.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete figclass configuration.
type Config struct {
	Engine     EngineConfig     `koanf:"engine"`
	Escalation EscalationConfig `koanf:"escalation"`
	Verifier   VerifierConfig   `koanf:"verifier"`
	Render     RenderConfig     `koanf:"render"`
	Composite  CompositeConfig  `koanf:"composite"`
	Layout     LayoutConfig     `koanf:"layout"`
	Prefixes   PrefixConfig     `koanf:"prefixes"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// EngineConfig holds decision thresholds.
type EngineConfig struct {
	MinConfidence   float64 `koanf:"min_confidence"`
	FallbackScore   float64 `koanf:"fallback_score"`
	CompareBaseline bool    `koanf:"compare_baseline"`
}

// EscalationConfig controls consultation of the visual verifier.
type EscalationConfig struct {
	Enabled        bool     `koanf:"enabled"`
	HighConfidence float64  `koanf:"high_confidence"`
	CandidateLimit int      `koanf:"candidate_limit"`
	Timeout        Duration `koanf:"timeout"`
}

// VerifierConfig configures the HTTP verifier client.
type VerifierConfig struct {
	Provider          string   `koanf:"provider"`
	Model             string   `koanf:"model"`
	APIKey            Secret   `koanf:"api_key"`
	BaseURL           string   `koanf:"base_url"`
	MaxTokens         int      `koanf:"max_tokens"`
	RequestsPerSecond float64  `koanf:"requests_per_second"`
	Burst             int      `koanf:"burst"`
	MaxRetries        int      `koanf:"max_retries"`
	HTTPTimeout       Duration `koanf:"http_timeout"`
}

// RenderConfig locates rendered node images and sizes their cache.
type RenderConfig struct {
	Dir             string   `koanf:"dir"`
	CacheTTL        Duration `koanf:"cache_ttl"`
	CacheMaxEntries int      `koanf:"cache_max_entries"`
}

// CompositeConfig holds the motif detection thresholds.
type CompositeConfig struct {
	Enabled            bool    `koanf:"enabled"`
	CardImageAreaRatio float64 `koanf:"card_image_area_ratio"`
	MinCardChildren    int     `koanf:"min_card_children"`
	ListMinItems       int     `koanf:"list_min_items"`
	ListIconMaxSide    float64 `koanf:"list_icon_max_side"`
	GridMinCards       int     `koanf:"grid_min_cards"`
	HeroMinWidth       float64 `koanf:"hero_min_width"`
	HeroMinHeight      float64 `koanf:"hero_min_height"`
}

// LayoutConfig tunes tree building.
type LayoutConfig struct {
	RowTolerance float64 `koanf:"row_tolerance"`
	Unwrap       bool    `koanf:"unwrap"`
}

// PrefixConfig points at an optional TOML file of extra prefix rules.
type PrefixConfig struct {
	File string `koanf:"file"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64    `koanf:"max_body_bytes"`
}

// LoggingConfig is mapped onto logging.Config by the command layer.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// TelemetryConfig is mapped onto telemetry.Config by the command layer.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	ServiceName  string  `koanf:"service_name"`
	Insecure     bool    `koanf:"insecure"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MinConfidence: 0.70,
			FallbackScore: 0.30,
		},
		Escalation: EscalationConfig{
			Enabled:        false,
			HighConfidence: 0.80,
			CandidateLimit: 3,
			Timeout:        Duration(20 * time.Second),
		},
		Verifier: VerifierConfig{
			Provider:          "anthropic",
			MaxTokens:         1024,
			RequestsPerSecond: 1,
			Burst:             5,
			MaxRetries:        3,
			HTTPTimeout:       Duration(60 * time.Second),
		},
		Render: RenderConfig{
			CacheTTL:        Duration(10 * time.Minute),
			CacheMaxEntries: 256,
		},
		Composite: CompositeConfig{
			Enabled:            true,
			CardImageAreaRatio: 0.25,
			MinCardChildren:    2,
			ListMinItems:       2,
			ListIconMaxSide:    64,
			GridMinCards:       2,
			HeroMinWidth:       900,
			HeroMinHeight:      400,
		},
		Layout: LayoutConfig{
			RowTolerance: 5,
			Unwrap:       true,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Telemetry: TelemetryConfig{
			Endpoint:     "localhost:4318",
			ServiceName:  "figclass",
			Insecure:     true,
			SamplingRate: 1.0,
		},
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if !unit(c.Engine.MinConfidence) {
		errs = append(errs, fmt.Errorf("engine.min_confidence must be in [0,1], got %v", c.Engine.MinConfidence))
	}
	if !unit(c.Engine.FallbackScore) {
		errs = append(errs, fmt.Errorf("engine.fallback_score must be in [0,1], got %v", c.Engine.FallbackScore))
	}
	if c.Engine.FallbackScore >= c.Engine.MinConfidence {
		errs = append(errs, errors.New("engine.fallback_score must be below engine.min_confidence"))
	}
	if !unit(c.Escalation.HighConfidence) {
		errs = append(errs, fmt.Errorf("escalation.high_confidence must be in [0,1], got %v", c.Escalation.HighConfidence))
	}
	if c.Escalation.CandidateLimit < 1 {
		errs = append(errs, errors.New("escalation.candidate_limit must be at least 1"))
	}
	if c.Escalation.Enabled {
		if c.Escalation.Timeout.Duration() <= 0 {
			errs = append(errs, errors.New("escalation.timeout must be positive"))
		}
		switch c.Verifier.Provider {
		case "anthropic", "openai":
		default:
			errs = append(errs, fmt.Errorf("verifier.provider must be anthropic or openai, got %q", c.Verifier.Provider))
		}
		if !c.Verifier.APIKey.IsSet() {
			errs = append(errs, errors.New("verifier.api_key is required when escalation is enabled"))
		}
		if c.Render.Dir == "" {
			errs = append(errs, errors.New("render.dir is required when escalation is enabled"))
		}
	}
	if c.Render.CacheMaxEntries < 0 {
		errs = append(errs, errors.New("render.cache_max_entries must not be negative"))
	}
	if !unit(c.Composite.CardImageAreaRatio) {
		errs = append(errs, fmt.Errorf("composite.card_image_area_ratio must be in [0,1], got %v", c.Composite.CardImageAreaRatio))
	}
	if c.Layout.RowTolerance < 0 {
		errs = append(errs, errors.New("layout.row_tolerance must not be negative"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name required when telemetry is enabled"))
	}
	return errors.Join(errs...)
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
