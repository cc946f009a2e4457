package decision

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/features"
)

// LintRule is an advisory check run on every decided node. Check returns
// the message and whether the rule fired. Lint rules never change the
// decision.
type LintRule struct {
	ID       string
	Severity Severity
	// Fixable marks issues with a mechanical fix in the design tool.
	Fixable bool
	Check   func(n *design.Node, f features.Features, res AnalysisResult) (string, bool)
}

// Lint rule ids.
const (
	LintAutoLayout  = "auto-layout-missing"
	LintSpacer      = "spacer-detected"
	LintGenericName = "generic-name"
)

var (
	spacerName  = regexp.MustCompile(`(?i)^(rectangle|spacer|space|gap)\s*\d*$`)
	genericName = regexp.MustCompile(`^(Frame|Rectangle|Group|Vector|Ellipse|Line|Component|Instance)\s+\d+$`)
)

// DefaultLintRules returns the built-in advisories in evaluation order.
func DefaultLintRules() []LintRule {
	return []LintRule{
		{ID: LintAutoLayout, Severity: SeverityWarning, Fixable: true, Check: checkAutoLayout},
		{ID: LintSpacer, Severity: SeverityWarning, Fixable: true, Check: checkSpacer},
		{ID: LintGenericName, Severity: SeverityWarning, Check: checkGenericName},
	}
}

func checkAutoLayout(n *design.Node, f features.Features, _ AnalysisResult) (string, bool) {
	if f.ChildCount == 0 || f.LayoutMode != design.LayoutNone || n.Type.Class() != design.ClassContainer {
		return "", false
	}
	return "container has children but no auto layout; responsive output may differ", true
}

// checkSpacer flags empty rectangles standing in for a gap.
func checkSpacer(n *design.Node, _ features.Features, _ AnalysisResult) (string, bool) {
	if n.Type != design.TypeRectangle || !spacerName.MatchString(n.Name) {
		return "", false
	}
	if len(n.ActiveFills()) > 0 || len(n.ActiveStrokes()) > 0 {
		return "", false
	}
	return fmt.Sprintf("empty rectangle %q used as a spacer; use the parent's item spacing instead", n.Name), true
}

func checkGenericName(n *design.Node, _ features.Features, res AnalysisResult) (string, bool) {
	if !genericName.MatchString(n.Name) {
		return "", false
	}
	kind := res.Kind()
	if kind == "" || kind.IsStructural() {
		return fmt.Sprintf("generic layer name %q; name it by its role", n.Name), true
	}
	return fmt.Sprintf("generic layer name %q; naming it \"w:%s\" pins the classification", n.Name, kind), true
}

// lint appends the issues of every rule that fires.
func (e *Engine) lint(n *design.Node, f features.Features, res *AnalysisResult) {
	for _, r := range e.lintRules {
		msg, ok := r.Check(n, f, *res)
		if !ok {
			continue
		}
		res.Issues = append(res.Issues, StructuralIssue{
			NodeID:       n.ID,
			Rule:         r.ID,
			Severity:     r.Severity,
			Message:      msg,
			FixAvailable: r.Fixable,
		})
	}
}
