// Package decision resolves one classification per design node.
//
// The Engine applies, in order: an explicit name-prefix override, a
// minimum-confidence gate over heuristic candidates, optional escalation
// to a visual Verifier, and a shape-only fallback. Every node receives a
// result; failures are recorded as issues on the result and never
// returned as errors.
package decision

import (
	"context"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/features"
	"github.com/fyrsmithlabs/figclass/internal/heuristics"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Method records which stage produced the winning candidate.
type Method string

const (
	MethodExplicit  Method = "explicit"
	MethodHeuristic Method = "heuristic"
	MethodCombined  Method = "combined"
	MethodVerifier  Method = "verifier"
	MethodFallback  Method = "fallback"
)

// Severity grades a StructuralIssue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// StructuralIssue is a non-blocking advisory attached to a node.
type StructuralIssue struct {
	NodeID       string   `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	Rule         string   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Severity     Severity `json:"severity" yaml:"severity"`
	Message      string   `json:"message" yaml:"message"`
	FixAvailable bool     `json:"fixAvailable" yaml:"fixAvailable"`
}

// AnalysisResult is the outcome of classifying one node.
type AnalysisResult struct {
	NodeID       string                 `json:"nodeId" yaml:"nodeId"`
	NodeName     string                 `json:"nodeName" yaml:"nodeName"`
	Best         *heuristics.Candidate  `json:"bestMatch" yaml:"bestMatch"`
	Alternatives []heuristics.Candidate `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Issues       []StructuralIssue      `json:"structuralIssues,omitempty" yaml:"structuralIssues,omitempty"`
	Method       Method                 `json:"method" yaml:"method"`
	Features     features.Features      `json:"-" yaml:"-"`
}

// Kind returns the winning kind, or "" when there is none.
func (r AnalysisResult) Kind() widget.Kind {
	if r.Best == nil {
		return ""
	}
	return r.Best.Kind
}

// Score returns the winning score, or 0.
func (r AnalysisResult) Score() float64 {
	if r.Best == nil {
		return 0
	}
	return r.Best.Score
}

// Structural reports whether the node should be recursed into as a
// container rather than emitted as a widget.
func (r AnalysisResult) Structural() bool {
	return r.Best == nil || r.Best.Kind.IsStructural()
}

func (r *AnalysisResult) addIssue(sev Severity, msg string) {
	r.Issues = append(r.Issues, StructuralIssue{NodeID: r.NodeID, Severity: sev, Message: msg})
}

// Image is the rendered appearance of one node.
type Image struct {
	NodeID   string
	MIMEType string
	Data     []byte
}

// Renderer produces a node's rendered appearance.
type Renderer interface {
	Render(ctx context.Context, nodeID string) (Image, error)
}

// NodeMeta describes the node sent for verification.
type NodeMeta struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	ChildCount int     `json:"childCount"`
}

// VerifyRequest is sent to a Verifier for one low-confidence node.
type VerifyRequest struct {
	Image      Image
	Candidates []heuristics.Candidate
	Node       NodeMeta
	Vocabulary []widget.Kind
}

// Alternative is a ranked runner-up in a Verdict.
type Alternative struct {
	Kind       widget.Kind `json:"kind"`
	Confidence float64     `json:"confidence"`
}

// Verdict is a Verifier's answer. Confidence is on a 0-100 scale.
type Verdict struct {
	Kind         widget.Kind   `json:"kind"`
	Confidence   float64       `json:"confidence"`
	Rationale    string        `json:"rationale,omitempty"`
	Features     []string      `json:"features,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

// Verifier classifies a rendered node.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (Verdict, error)
}

// Baseline is a legacy classifier run alongside the engine for comparison.
type Baseline interface {
	Classify(n *design.Node) (kind widget.Kind, score float64, ok bool)
}
