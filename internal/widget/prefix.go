package widget

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ExplicitScore is the score assigned to explicit-name classifications.
const ExplicitScore = 1.0

// PrefixRule maps a designer-authored name prefix to a widget kind.
type PrefixRule struct {
	Prefix string `toml:"prefix" json:"prefix"`
	Kind   Kind   `toml:"kind" json:"kind"`
}

// PrefixTable is the ordered explicit-name lookup consulted before any
// heuristic runs. Longer prefixes are tried first, so "w:image-box" wins
// over "w:image". A prefix only matches at a token boundary.
type PrefixTable struct {
	rules []PrefixRule
}

// ErrInvalidPrefixRule is returned for empty prefixes or unknown kinds.
var ErrInvalidPrefixRule = errors.New("invalid prefix rule")

// NewPrefixTable returns a table holding the given rules.
func NewPrefixTable(rules ...PrefixRule) (*PrefixTable, error) {
	t := &PrefixTable{}
	if err := t.Add(rules...); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultPrefixTable returns the built-in table covering the w:, e:, wp:,
// woo:, loop: and c: namespaces.
func DefaultPrefixTable() *PrefixTable {
	var rules []PrefixRule
	for _, k := range Vocabulary() {
		switch {
		case strings.Contains(string(k), ":"):
			rules = append(rules, PrefixRule{Prefix: string(k), Kind: k})
		case k.IsStructural():
			rules = append(rules,
				PrefixRule{Prefix: "c:" + string(k), Kind: k},
				PrefixRule{Prefix: "w:" + string(k), Kind: k},
			)
		default:
			rules = append(rules,
				PrefixRule{Prefix: "w:" + string(k), Kind: k},
				PrefixRule{Prefix: "e:" + string(k), Kind: k},
			)
		}
	}
	rules = append(rules, defaultAliases...)

	t := &PrefixTable{}
	if err := t.Add(rules...); err != nil {
		panic(fmt.Sprintf("widget: default prefix table: %v", err))
	}
	return t
}

var defaultAliases = []PrefixRule{
	{Prefix: "w:btn", Kind: KindButton},
	{Prefix: "w:title", Kind: KindHeading},
	{Prefix: "w:text", Kind: KindTextEditor},
	{Prefix: "w:paragraph", Kind: KindTextEditor},
	{Prefix: "w:gallery", Kind: KindGallery},
	{Prefix: "w:carousel", Kind: KindImageCarousel},
	{Prefix: "w:slider", Kind: KindImageCarousel},
	{Prefix: "w:map", Kind: KindGoogleMaps},
	{Prefix: "w:cta", Kind: KindCallToAction},
	{Prefix: "w:rating", Kind: KindStarRating},
	{Prefix: "w:menu", Kind: KindNavMenu},
	{Prefix: "wp:heading", Kind: KindHeading},
	{Prefix: "wp:paragraph", Kind: KindTextEditor},
	{Prefix: "wp:image", Kind: KindImage},
	{Prefix: "wp:button", Kind: KindButton},
	{Prefix: "wp:gallery", Kind: KindGallery},
	{Prefix: "wp:separator", Kind: KindDivider},
	{Prefix: "wp:spacer", Kind: KindSpacer},
	{Prefix: "wp:video", Kind: KindVideo},
	{Prefix: "wp:group", Kind: KindContainer},
	{Prefix: "loop:item", Kind: KindContainer},
	{Prefix: "woo:add-to-cart", Kind: KindProductAddToCart},
}

// Add appends rules. A rule whose prefix already exists replaces it.
func (t *PrefixTable) Add(rules ...PrefixRule) error {
	for _, r := range rules {
		r.Prefix = strings.ToLower(strings.TrimSpace(r.Prefix))
		if r.Prefix == "" {
			return fmt.Errorf("%w: empty prefix", ErrInvalidPrefixRule)
		}
		if !Known(r.Kind) {
			return fmt.Errorf("%w: prefix %q maps to unknown kind %q", ErrInvalidPrefixRule, r.Prefix, r.Kind)
		}
		replaced := false
		for i := range t.rules {
			if t.rules[i].Prefix == r.Prefix {
				t.rules[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			t.rules = append(t.rules, r)
		}
	}
	sort.SliceStable(t.rules, func(i, j int) bool {
		return len(t.rules[i].Prefix) > len(t.rules[j].Prefix)
	})
	return nil
}

// Match returns the rule whose prefix starts name, if any.
func (t *PrefixTable) Match(name string) (PrefixRule, bool) {
	if t == nil {
		return PrefixRule{}, false
	}
	n := strings.ToLower(strings.TrimSpace(name))
	for _, r := range t.rules {
		if strings.HasPrefix(n, r.Prefix) && atBoundary(n, len(r.Prefix)) {
			return r, true
		}
	}
	return PrefixRule{}, false
}

// Rules returns a copy of the rules in match order.
func (t *PrefixTable) Rules() []PrefixRule {
	out := make([]PrefixRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *PrefixTable) Len() int {
	return len(t.rules)
}

func atBoundary(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_')
}

type prefixFile struct {
	Prefix []PrefixRule `toml:"prefix"`
}

// LoadPrefixFile reads extra prefix rules from a TOML file of the form
//
//	[[prefix]]
//	prefix = "ui:cta"
//	kind = "button"
func LoadPrefixFile(path string) ([]PrefixRule, error) {
	var f prefixFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decoding prefix file %s: %w", path, err)
	}
	return f.Prefix, nil
}
