// Package heuristics scores NodeFeatures against an ordered set of rules.
//
// Each rule is a pure function of the features. A rule either abstains or
// proposes one widget kind with a score in [0,1]. The registry runs every
// rule, isolates rules that panic, and returns candidates sorted by score
// with registration order breaking ties.
package heuristics

import (
	"fmt"
	"math"
	"sort"

	"github.com/fyrsmithlabs/figclass/internal/features"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Candidate is one rule's proposal for a node.
type Candidate struct {
	Kind    widget.Kind `json:"kind" yaml:"kind"`
	Score   float64     `json:"score" yaml:"score"`
	RuleID  string      `json:"ruleId" yaml:"ruleId"`
	Reasons []string    `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Rule proposes at most one candidate for a feature record.
type Rule interface {
	ID() string
	Evaluate(f features.Features) (Candidate, bool)
}

// RuleFailure records a rule that could not be evaluated.
type RuleFailure struct {
	RuleID string
	Err    error
}

func (f RuleFailure) Error() string {
	return fmt.Sprintf("rule %s: %v", f.RuleID, f.Err)
}

// Registry holds rules in evaluation order.
type Registry struct {
	rules []Rule
}

// Option configures a Registry.
type Option func(*Registry)

// WithRules appends rules after the current set.
func WithRules(rules ...Rule) Option {
	return func(r *Registry) {
		r.rules = append(r.rules, rules...)
	}
}

// WithOnlyRules replaces the rule set.
func WithOnlyRules(rules ...Rule) Option {
	return func(r *Registry) {
		r.rules = append([]Rule(nil), rules...)
	}
}

// WithoutRule removes the rule with the given id.
func WithoutRule(id string) Option {
	return func(r *Registry) {
		kept := r.rules[:0]
		for _, rule := range r.rules {
			if rule.ID() != id {
				kept = append(kept, rule)
			}
		}
		r.rules = kept
	}
}

// NewRegistry returns a registry seeded with DefaultRules, then applies opts.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{rules: DefaultRules()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns the rules in evaluation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Evaluate runs every rule against f. Candidates are sorted by descending
// score; equal scores keep registration order. A failing rule is reported
// and skipped without affecting the others.
func (r *Registry) Evaluate(f features.Features) ([]Candidate, []RuleFailure) {
	var (
		candidates []Candidate
		failures   []RuleFailure
	)
	for _, rule := range r.rules {
		c, ok, err := evaluateRule(rule, f)
		if err != nil {
			failures = append(failures, RuleFailure{RuleID: rule.ID(), Err: err})
			continue
		}
		if !ok || c.Score <= 0 {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, failures
}

func evaluateRule(rule Rule, f features.Features) (c Candidate, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c, ok, err = Candidate{}, false, fmt.Errorf("panic: %v", rec)
		}
	}()

	c, ok = rule.Evaluate(f)
	if !ok {
		return Candidate{}, false, nil
	}
	if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
		return Candidate{}, false, fmt.Errorf("non-finite score %v", c.Score)
	}
	if !widget.Known(c.Kind) {
		return Candidate{}, false, fmt.Errorf("unknown kind %q", c.Kind)
	}
	c.Score = clamp(c.Score)
	if c.RuleID == "" {
		c.RuleID = rule.ID()
	}
	return c, true, nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type funcRule struct {
	id string
	fn func(features.Features) (Candidate, bool)
}

// NewRuleFunc adapts a function to the Rule interface.
func NewRuleFunc(id string, fn func(features.Features) (Candidate, bool)) Rule {
	return &funcRule{id: id, fn: fn}
}

func (r *funcRule) ID() string { return r.id }

func (r *funcRule) Evaluate(f features.Features) (Candidate, bool) {
	return r.fn(f)
}

var _ Rule = (*funcRule)(nil)
var _ Rule = (*scoredRule)(nil)
