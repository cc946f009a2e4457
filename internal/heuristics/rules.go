package heuristics

import (
	"fmt"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/features"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Rule identifiers, also used as metric labels.
const (
	RuleCountdown  = "countdown"
	RuleIcon       = "icon"
	RuleDivider    = "divider"
	RuleButton     = "button"
	RuleHeading    = "heading"
	RuleTextEditor = "text-editor"
	RuleImage      = "image"
	RuleImageBox   = "image-box"
	RuleGallery    = "gallery"
	RuleNavMenu    = "nav-menu"
	RuleSection    = "section"
	RuleForm       = "form"
	RuleContainer  = "container"
)

// Geometry limits shared by rules.
const (
	iconMaxSide       = 40
	iconMediumSide    = 60
	dividerMaxThick   = 5
	dividerMinLength  = 100
	buttonMaxHeight   = 120
	buttonMaxArea     = 150000
	cardMaxArea       = 300000
	sectionWideWidth  = 1200
	sectionMinWidth   = 900
	formMaxWidth      = 600
	containerCapScore = 0.5
)

// scorecard accumulates weighted signals for one rule evaluation.
type scorecard struct {
	total   float64
	reasons []string
	vetoed  bool
}

func (s *scorecard) add(cond bool, weight float64, reason string) {
	if cond && !s.vetoed {
		s.total += weight
		s.reasons = append(s.reasons, reason)
	}
}

func (s *scorecard) penalize(cond bool, weight float64, reason string) {
	if cond && !s.vetoed {
		s.total -= weight
		s.reasons = append(s.reasons, "penalty: "+reason)
	}
}

// veto forces the rule to abstain.
func (s *scorecard) veto(cond bool) {
	if cond {
		s.vetoed = true
	}
}

// scoredRule is a rule expressed as signal/weight pairs with a floor.
type scoredRule struct {
	id    string
	kind  widget.Kind
	min   float64
	cap   float64
	score func(f features.Features, s *scorecard)
}

func (r *scoredRule) ID() string { return r.id }

func (r *scoredRule) Evaluate(f features.Features) (Candidate, bool) {
	s := &scorecard{}
	r.score(f, s)
	if s.vetoed || s.total < r.min || s.total <= 0 {
		return Candidate{}, false
	}
	score := s.total
	limit := r.cap
	if limit == 0 {
		limit = 1
	}
	if score > limit {
		score = limit
	}
	return Candidate{Kind: r.kind, Score: score, RuleID: r.id, Reasons: s.reasons}, true
}

// DefaultRules returns the built-in rules in registration order. Order is
// the tie-break between equal scores.
func DefaultRules() []Rule {
	return []Rule{
		countdownRule(),
		iconRule(),
		dividerRule(),
		buttonRule(),
		headingRule(),
		textEditorRule(),
		imageRule(),
		imageBoxRule(),
		galleryRule(),
		navMenuRule(),
		sectionRule(),
		formRule(),
		containerRule(),
	}
}

func countdownRule() *scoredRule {
	return &scoredRule{id: RuleCountdown, kind: widget.KindCountdown, min: 0.85,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.LayoutMode != design.LayoutHorizontal)
			s.veto(f.ChildCount < 2 || f.ChildCount > 8)
			s.veto(f.TextCount < 2)
			s.add(f.TextCount >= 4, 0.50, fmt.Sprintf("%d text runs", f.TextCount))
			s.add(f.TextCount >= 2 && f.TextCount < 4, 0.25, fmt.Sprintf("%d text runs", f.TextCount))
			s.add(f.Height >= 40 && f.Height <= 200, 0.20, "compact height")
			s.add(f.AspectRatio > 2, 0.15, "horizontal proportion")
			s.add(f.HasNestedFrames, 0.10, "unit frames")
			s.penalize(f.HasImage, 0.40, "contains image")
		}}
}

func iconRule() *scoredRule {
	return &scoredRule{id: RuleIcon, kind: widget.KindIcon, min: 0.70,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.IsVector)
			small := f.VectorWidth > 0 && f.VectorWidth <= iconMaxSide &&
				f.VectorHeight > 0 && f.VectorHeight <= iconMaxSide
			medium := !small && f.VectorWidth <= iconMediumSide && f.VectorHeight <= iconMediumSide
			s.veto(!small && !medium)
			s.add(small, 0.70, "small vector")
			s.add(medium, 0.50, "medium vector")
			s.add(f.AspectRatio >= 0.8 && f.AspectRatio <= 1.2, 0.15, "square")
			s.add(f.HasFill || f.HasStroke, 0.10, "visible paint")
		}}
}

func dividerRule() *scoredRule {
	return &scoredRule{id: RuleDivider, kind: widget.KindDivider, min: 0.70,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.Type != design.TypeRectangle && f.Type != design.TypeLine)
			s.add(f.Height <= dividerMaxThick && f.Width >= dividerMinLength, 0.70, "thin horizontal bar")
			s.add(f.Width <= dividerMaxThick && f.Height >= dividerMinLength, 0.65, "thin vertical bar")
			s.add(f.HasFill || f.HasStroke, 0.15, "visible paint")
			s.add(f.ChildCount == 0, 0.10, "no children")
		}}
}

// buttonRule requires a clickable affordance: without fill or stroke the
// node cannot be a button regardless of its other signals.
func buttonRule() *scoredRule {
	return &scoredRule{id: RuleButton, kind: widget.KindButton, min: 0.70,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.HasText)
			s.veto(!f.HasFill && !f.HasStroke)
			s.add(f.TextCount == 1, 0.35, "single label")
			s.add(true, 0.20, "fill or stroke")
			s.add(f.AspectRatio > 1.5 && f.AspectRatio < 8, 0.20, "button proportion")
			s.add(f.TextLength > 0 && f.TextLength < 40, 0.15, "short label")
			s.penalize(f.ChildCount > 2, 0.40, fmt.Sprintf("%d children", f.ChildCount))
			s.penalize(f.Height > buttonMaxHeight, 0.40, "too tall")
			s.penalize(f.HasNestedFrames, 0.30, "nested frames")
			s.penalize(f.Area > buttonMaxArea, 0.35, "too large")
			s.penalize((f.Zone == features.ZoneHeader || f.Zone == features.ZoneFooter) && f.Area > 50000,
				0.20, "large box in "+string(f.Zone))
		}}
}

func headingRule() *scoredRule {
	return &scoredRule{id: RuleHeading, kind: widget.KindHeading, min: 0.75,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.HasText && f.Type != design.TypeText)
			s.add(f.FontSize >= 22, 0.40, fmt.Sprintf("large type (%.0fpx)", f.FontSize))
			s.add(f.FontSize >= 18 && f.FontSize < 22, 0.25, fmt.Sprintf("moderate type (%.0fpx)", f.FontSize))
			s.add(f.FontWeight >= 600, 0.25, "bold weight")
			s.add(f.TextLength > 0 && f.TextLength < 80, 0.20, "short text")
			s.add(f.Zone == features.ZoneHero || f.Zone == features.ZoneHeader, 0.15, "top of page")
			s.penalize(f.TextLength > 150, 0.50, "paragraph length")
			s.penalize(f.FontSize > 0 && f.FontSize <= 16, 0.40, "small type")
			s.penalize(f.FontWeight <= 400 && f.FontSize < 18, 0.30, "light small type")
			s.penalize(f.Zone == features.ZoneFooter, 0.15, "footer")
			s.penalize(f.ChildCount > 1, 0.40, "several children")
		}}
}

func textEditorRule() *scoredRule {
	return &scoredRule{id: RuleTextEditor, kind: widget.KindTextEditor, min: 0.60,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.HasText && f.Type != design.TypeText)
			s.add(f.FontSize > 0 && f.FontSize < 20, 0.35, "body type size")
			s.add(f.TextLength > 80, 0.35, "paragraph length")
			s.add(f.FontWeight <= 500, 0.20, "regular weight")
			s.add(f.Zone == features.ZoneBody, 0.10, "body zone")
			s.penalize(f.ChildCount > 1, 0.40, "several children")
		}}
}

func imageRule() *scoredRule {
	return &scoredRule{id: RuleImage, kind: widget.KindImage, min: 0.50,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.HasImage && f.Type != design.TypeImage)
			s.add(f.Type == design.TypeImage, 0.80, "image node")
			s.add(f.Type != design.TypeImage && f.TextCount == 0, 0.70, "image without text")
			s.penalize(f.TextCount > 0, 0.40, "has text")
			s.penalize(f.ImageCount > 2, 0.30, "several images")
		}}
}

func imageBoxRule() *scoredRule {
	return &scoredRule{id: RuleImageBox, kind: widget.KindImageBox, min: 0.65,
		score: func(f features.Features, s *scorecard) {
			s.veto(!f.HasImage)
			s.veto(f.ChildCount == 0)
			s.add(true, 0.30, "has image")
			s.add(f.TextCount >= 1 && f.TextCount <= 3, 0.30, "card text count")
			s.add(f.ChildCount >= 2 && f.ChildCount <= 5, 0.20, "card child count")
			s.add(f.AspectRatio > 0.5 && f.AspectRatio < 2.5, 0.15, "card proportion")
			s.penalize(f.TextCount > 4, 0.50, "too much text")
			s.penalize(f.AspectRatio > 3, 0.35, "banner proportion")
			s.penalize(f.Area > cardMaxArea, 0.40, "too large")
			s.penalize(f.ImageCount > 1, 0.25, "several images")
		}}
}

func galleryRule() *scoredRule {
	return &scoredRule{id: RuleGallery, kind: widget.KindGallery, min: 0.75,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.ImageCount < 3)
			s.add(float64(f.ImageCount) >= 0.75*float64(f.ChildCount), 0.50, "mostly images")
			s.add(f.TextCount == 0, 0.20, "no captions")
			s.add(f.LayoutMode != design.LayoutNone, 0.10, "auto layout")
			s.add(f.ChildCount >= 4, 0.10, "grid sized")
		}}
}

func navMenuRule() *scoredRule {
	return &scoredRule{id: RuleNavMenu, kind: widget.KindNavMenu, min: 0.80,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.LayoutMode != design.LayoutHorizontal)
			s.veto(f.Zone != features.ZoneHeader)
			s.veto(f.TextCount < 3 || f.HasImage)
			s.add(true, 0.35, "horizontal text run in header")
			s.add(f.TextCount == f.ChildCount, 0.25, "only text links")
			s.add(f.Height <= 80, 0.20, "bar height")
			s.add(f.TextCount > 0 && f.TextLength/f.TextCount <= 15, 0.10, "short labels")
		}}
}

func sectionRule() *scoredRule {
	return &scoredRule{id: RuleSection, kind: widget.KindSection, min: 0.80,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.Type != design.TypeFrame && f.Type != design.TypeSection && f.Type != design.TypeGroup)
			s.veto(f.Width < sectionMinWidth)
			s.add(f.Width >= sectionWideWidth, 0.20, "page width")
			s.add(f.Width < sectionWideWidth, 0.10, "wide")
			s.add(f.Height >= 400, 0.20, "tall")
			s.add(f.Height >= 200 && f.Height < 400, 0.10, "medium height")
			s.add(f.ChildCount >= 3, 0.15, "several children")
			s.add(f.LayoutMode != design.LayoutNone, 0.15, "auto layout")
			s.add(f.ParentLayout == design.LayoutVertical, 0.10, "stacked in page")
			s.penalize(f.Width < 500 && f.HasImage && f.HasText, 0.50, "card shaped")
			s.penalize(f.ChildCount < 2, 0.40, "too few children")
			s.penalize(f.SiblingCount > 5, 0.30, "not top level")
		}}
}

func formRule() *scoredRule {
	return &scoredRule{id: RuleForm, kind: widget.KindForm, min: 0.80,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.LayoutMode != design.LayoutVertical)
			s.veto(f.ChildCount < 3)
			s.add(true, 0.30, "vertical stack")
			s.add(f.Height >= 200, 0.20, "form height")
			s.add(f.HasNestedFrames, 0.15, "field frames")
			s.add(f.HasText && f.TextCount >= 2, 0.15, "labels")
			s.penalize(f.HasImage, 0.50, "contains image")
			s.penalize(f.Width > formMaxWidth, 0.30, "too wide")
			s.penalize(f.TextCount > 6, 0.40, "content block")
		}}
}

// containerRule always proposes a low-scoring container so the candidate
// list is never empty for frames. It is capped below any threshold.
func containerRule() *scoredRule {
	return &scoredRule{id: RuleContainer, kind: widget.KindContainer, cap: containerCapScore,
		score: func(f features.Features, s *scorecard) {
			s.veto(f.Type.Class() != design.ClassContainer)
			s.add(true, 0.30, "generic structure")
			s.add(f.LayoutMode != design.LayoutNone, 0.10, "auto layout")
			s.add(f.ChildCount > 0, 0.10, "has children")
		}}
}
