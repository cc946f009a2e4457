package heuristics

import (
	"regexp"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// keywordRule pairs a compiled name pattern with the kind it implies.
// Rules are evaluated in order; the first match wins.
type keywordRule struct {
	regex      *regexp.Regexp
	kind       widget.Kind
	confidence float64
}

// NameKeywordBaseline is the legacy name-driven classifier. It reads only
// layer names and node types, and exists so new scoring can be compared
// against it in shadow mode.
// Thread-safe: all patterns are compiled at construction time.
type NameKeywordBaseline struct {
	rules []*keywordRule
}

// NewNameKeywordBaseline creates the baseline with its built-in rules.
func NewNameKeywordBaseline() *NameKeywordBaseline {
	return &NameKeywordBaseline{rules: buildKeywordRules()}
}

// buildKeywordRules lists more specific patterns first to avoid shadowing.
func buildKeywordRules() []*keywordRule {
	return []*keywordRule{
		{regexp.MustCompile(`(?i)\bproduct\b.*\btitle\b`), widget.KindProductTitle, 0.9},
		{regexp.MustCompile(`(?i)\bproduct\b.*\bprice\b`), widget.KindProductPrice, 0.9},
		{regexp.MustCompile(`(?i)add\s+to\s+cart|\bproduct\b.*\bbutton\b`), widget.KindProductAddToCart, 0.9},
		{regexp.MustCompile(`(?i)\bproduct\b.*\bimage\b`), widget.KindProductImage, 0.9},
		{regexp.MustCompile(`(?i)image[\s_-]*box`), widget.KindImageBox, 0.8},
		{regexp.MustCompile(`(?i)icon[\s_-]*box`), widget.KindIconBox, 0.8},
		{regexp.MustCompile(`(?i)icon[\s_-]*list`), widget.KindIconList, 0.8},
		{regexp.MustCompile(`(?i)price[\s_-]*table|\bpricing\b`), widget.KindPriceTable, 0.8},
		{regexp.MustCompile(`(?i)flip[\s_-]*box`), widget.KindFlipBox, 0.8},
		{regexp.MustCompile(`(?i)\bcountdown\b|\btimer\b`), widget.KindCountdown, 0.8},
		{regexp.MustCompile(`(?i)\b(?:login|sign[\s_-]*in)\b`), widget.KindLogin, 0.75},
		{regexp.MustCompile(`(?i)\bform\b`), widget.KindForm, 0.6},
		{regexp.MustCompile(`(?i)\b(?:star|rating)s?\b`), widget.KindStarRating, 0.7},
		{regexp.MustCompile(`(?i)\bsocial\b`), widget.KindSocialIcons, 0.7},
		{regexp.MustCompile(`(?i)\b(?:testimonial|review)s?\b`), widget.KindTestimonial, 0.7},
		{regexp.MustCompile(`(?i)\b(?:carousel|slider)\b`), widget.KindImageCarousel, 0.7},
		{regexp.MustCompile(`(?i)\bgallery\b`), widget.KindGallery, 0.6},
		{regexp.MustCompile(`(?i)\b(?:video|player)\b`), widget.KindVideo, 0.6},
		{regexp.MustCompile(`(?i)\b(?:map|location)\b`), widget.KindGoogleMaps, 0.7},
		{regexp.MustCompile(`(?i)\bcta\b|call\s+to\s+action`), widget.KindCallToAction, 0.7},
		{regexp.MustCompile(`(?i)\b(?:btn|button|link)\b`), widget.KindButton, 0.7},
		{regexp.MustCompile(`(?i)\b(?:divider|separator)\b`), widget.KindDivider, 0.6},
		{regexp.MustCompile(`(?i)\b(?:spacer|gap)\b`), widget.KindSpacer, 0.7},
		{regexp.MustCompile(`(?i)\b(?:heading|title)\b`), widget.KindHeading, 0.6},
		{regexp.MustCompile(`(?i)\b(?:paragraph|desc(?:ription)?|text)\b`), widget.KindTextEditor, 0.5},
	}
}

// Classify returns the kind implied by the node's name, falling back to
// its primitive type. ok is false when the baseline has no opinion.
func (b *NameKeywordBaseline) Classify(n *design.Node) (widget.Kind, float64, bool) {
	if n == nil {
		return "", 0, false
	}
	for _, r := range b.rules {
		if r.regex.MatchString(n.Name) {
			return r.kind, r.confidence, true
		}
	}

	switch n.Type.Class() {
	case design.ClassText:
		if n.Text != nil && n.Text.FontSize >= 24 {
			return widget.KindHeading, 0.5, true
		}
		return widget.KindTextEditor, 0.5, true
	case design.ClassImage:
		return widget.KindImage, 0.5, true
	}
	if n.IsImageLike() && len(n.Children) == 0 {
		return widget.KindImage, 0.5, true
	}
	return "", 0, false
}
