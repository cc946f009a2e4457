package verifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/figclass/internal/config"
)

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Default configuration values.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultMaxTokens        = 1024
	defaultTimeout          = 60 * time.Second
	defaultMaxRetries       = 3
	defaultBaseBackoff      = 1 * time.Second
	defaultRateLimit        = 50.0 / 60.0
	defaultBurst            = 5
)

// ErrAPIKeyRequired is returned when a client is built without credentials.
var ErrAPIKeyRequired = errors.New("verifier API key required")

// Config configures a verifier client.
type Config struct {
	Provider          string
	Model             string
	APIKey            config.Secret
	BaseURL           string
	MaxTokens         int
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	HTTPTimeout       time.Duration
}

// FromAppConfig maps the application config section.
func FromAppConfig(c config.VerifierConfig) Config {
	return Config{
		Provider:          c.Provider,
		Model:             c.Model,
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		MaxTokens:         c.MaxTokens,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		MaxRetries:        c.MaxRetries,
		HTTPTimeout:       c.HTTPTimeout.Duration(),
	}
}

// withDefaults fills zero fields for the given provider.
func (c Config) withDefaults() Config {
	switch c.Provider {
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = defaultOpenAIModel
		}
		if c.BaseURL == "" {
			c.BaseURL = defaultOpenAIBaseURL
		}
	default:
		if c.Model == "" {
			c.Model = defaultAnthropicModel
		}
		if c.BaseURL == "" {
			c.BaseURL = defaultAnthropicBaseURL
		}
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	return c
}

func (c Config) validate() error {
	if !c.APIKey.IsSet() {
		return fmt.Errorf("%s: %w", c.Provider, ErrAPIKeyRequired)
	}
	return nil
}
