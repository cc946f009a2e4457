// Package verifier implements decision.Verifier over hosted vision models.
//
// Each request carries the rendered node as a base64 image, the node's
// metadata, the heuristic candidates and the closed widget vocabulary. The
// model answers with a JSON verdict whose schema is embedded in the system
// prompt. Requests are rate limited and retried with exponential backoff
// on 429 and 5xx responses.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/logging"
)

// Option configures a client.
type Option func(*base)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) { b.httpClient = c }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *logging.Logger) Option {
	return func(b *base) { b.logger = l }
}

// withBackoff overrides the retry base delay. Tests use it.
func withBackoff(d time.Duration) Option {
	return func(b *base) { b.backoff = d }
}

// New returns a verifier for cfg.Provider.
func New(cfg Config, opts ...Option) (decision.Verifier, error) {
	switch cfg.Provider {
	case ProviderAnthropic, "":
		cfg.Provider = ProviderAnthropic
		v, err := newAnthropicVerifier(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return v, nil
	case ProviderOpenAI:
		v, err := newOpenAIVerifier(cfg, opts...)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported verifier provider: %s", cfg.Provider)
	}
}

// base holds what both providers share.
type base struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
	backoff    time.Duration
}

func newBase(cfg Config, opts []Option) (*base, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &base{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:     logging.Nop(),
		backoff:    defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// do waits for the limiter and runs attempt with retries.
func (b *base) do(ctx context.Context, nodeID string, attempt func(context.Context) (decision.Verdict, error)) (decision.Verdict, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return decision.Verdict{}, fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for i := 0; i <= b.cfg.MaxRetries; i++ {
		if i > 0 {
			delay := b.backoff * time.Duration(1<<(i-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return decision.Verdict{}, ctx.Err()
			}
		}

		v, err := attempt(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return decision.Verdict{}, err
		}
		b.logger.Warn(ctx, "verifier request failed, retrying",
			zap.String("provider", b.cfg.Provider),
			zap.String("node.id", nodeID),
			zap.Int("attempt", i+1),
			zap.Error(err))
	}
	return decision.Verdict{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// statusError classifies a non-200 response.
func statusError(code int, msg string) error {
	switch {
	case code == http.StatusTooManyRequests:
		return &retryableError{err: fmt.Errorf("rate limited (429)")}
	case code >= 500:
		return &retryableError{err: fmt.Errorf("server error (%d): %s", code, msg)}
	default:
		return fmt.Errorf("API error (%d): %s", code, msg)
	}
}
