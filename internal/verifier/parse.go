package verifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

var (
	// ErrMalformedVerdict is returned when the model answer cannot be read.
	ErrMalformedVerdict = errors.New("malformed verdict")
	// ErrMalformedRequest is returned for requests that cannot be sent.
	ErrMalformedRequest = errors.New("malformed verify request")
)

// Word confidences some models answer with instead of numbers.
var wordConfidence = map[string]float64{
	"very high": 95,
	"high":      85,
	"medium":    60,
	"moderate":  60,
	"low":       30,
	"very low":  10,
}

// parseVerdict reads a model answer. It tolerates markdown fences, prose
// around the object, string confidences, 0-1 fractions and prefixed kinds.
// The kind is not checked against the vocabulary here; the engine does
// that.
func parseVerdict(content string) (decision.Verdict, error) {
	obj, ok := extractObject(content)
	if !ok {
		return decision.Verdict{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedVerdict, truncate(content, 120))
	}

	var resp verdictResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return decision.Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if strings.TrimSpace(resp.Kind) == "" {
		return decision.Verdict{}, fmt.Errorf("%w: missing kind", ErrMalformedVerdict)
	}

	v := decision.Verdict{
		Kind:       normalizeKind(resp.Kind),
		Confidence: parseConfidence(resp.Confidence),
		Rationale:  strings.TrimSpace(resp.Rationale),
		Features:   resp.Features,
	}
	for _, alt := range resp.Alternatives {
		if strings.TrimSpace(alt.Kind) == "" {
			continue
		}
		v.Alternatives = append(v.Alternatives, decision.Alternative{
			Kind:       normalizeKind(alt.Kind),
			Confidence: parseConfidence(alt.Confidence),
		})
	}
	return v, nil
}

// extractObject returns the outermost {...} in s after stripping fences.
func extractObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseConfidence maps numbers, numeric strings and words onto 0-100.
// Values in (0,1] are read as fractions. Unreadable input yields 0.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")))
		if w, ok := wordConfidence[s]; ok {
			return w
		}
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0
		}
	}
	if f > 0 && f <= 1 {
		f *= 100
	}
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

// normalizeKind lowercases and strips designer prefixes such as "w:".
// Namespaced kinds ("woo:product-price") are kept.
func normalizeKind(s string) widget.Kind {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.Trim(k, `"'`)
	for _, p := range []string{"w:", "e:", "c:"} {
		if strings.HasPrefix(k, p) {
			k = strings.TrimPrefix(k, p)
			break
		}
	}
	k = strings.ReplaceAll(k, "_", "-")
	k = strings.ReplaceAll(k, " ", "-")
	return widget.Kind(k)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
