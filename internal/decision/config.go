package decision

import (
	"time"

	"github.com/fyrsmithlabs/figclass/internal/config"
)

// Config holds decision thresholds.
type Config struct {
	// MinConfidence is the lowest heuristic score accepted without help.
	MinConfidence float64
	// HighConfidence marks a score as confident in the combination table.
	HighConfidence float64
	// FallbackScore is assigned to shape-only fallbacks.
	FallbackScore float64

	Escalation EscalationConfig

	// CompareAgainstBaseline runs the injected Baseline on every node and
	// reports disagreements without changing the outcome.
	CompareAgainstBaseline bool
}

// EscalationConfig bounds verifier consultation.
type EscalationConfig struct {
	Enabled        bool
	CandidateLimit int
	Timeout        time.Duration
}

// DefaultConfig returns the built-in thresholds with escalation off.
func DefaultConfig() Config {
	return Config{
		MinConfidence:  0.70,
		HighConfidence: 0.80,
		FallbackScore:  0.30,
		Escalation: EscalationConfig{
			CandidateLimit: 3,
			Timeout:        20 * time.Second,
		},
	}
}

// ConfigFrom maps application configuration onto engine thresholds.
func ConfigFrom(c *config.Config) Config {
	return Config{
		MinConfidence:  c.Engine.MinConfidence,
		HighConfidence: c.Escalation.HighConfidence,
		FallbackScore:  c.Engine.FallbackScore,
		Escalation: EscalationConfig{
			Enabled:        c.Escalation.Enabled,
			CandidateLimit: c.Escalation.CandidateLimit,
			Timeout:        c.Escalation.Timeout.Duration(),
		},
		CompareAgainstBaseline: c.Engine.CompareBaseline,
	}
}
