package decision

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/features"
	"github.com/fyrsmithlabs/figclass/internal/heuristics"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const instrumentationName = "github.com/fyrsmithlabs/figclass/internal/decision"

// Escalation outcomes, used as metric labels.
const (
	outcomeAgreed     = "agreed"
	outcomeOverridden = "overridden"
	outcomeKept       = "kept"
	outcomeFailed     = "failed"
)

// ErrInvalidVerdict is returned by ValidateVerdict.
var ErrInvalidVerdict = errors.New("invalid verdict")

// Engine decides one classification per node. It is safe for concurrent
// use once built; options must not be changed afterwards.
type Engine struct {
	cfg       Config
	prefixes  *widget.PrefixTable
	registry  *heuristics.Registry
	verifier  Verifier
	renderer  Renderer
	baseline  Baseline
	lintRules []LintRule
	logger    *logging.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the thresholds.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithPrefixTable replaces the explicit-name table.
func WithPrefixTable(t *widget.PrefixTable) Option {
	return func(e *Engine) { e.prefixes = t }
}

// WithRegistry replaces the heuristic registry used by Classify.
func WithRegistry(r *heuristics.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithVerifier enables escalation through v using images from r. Both are
// required; escalation also needs Config.Escalation.Enabled.
func WithVerifier(v Verifier, r Renderer) Option {
	return func(e *Engine) {
		e.verifier = v
		e.renderer = r
	}
}

// WithBaseline injects the legacy classifier for comparison mode.
func WithBaseline(b Baseline) Option {
	return func(e *Engine) { e.baseline = b }
}

// WithLintRules replaces the advisory checks. No rules disables linting.
func WithLintRules(rules ...LintRule) Option {
	return func(e *Engine) { e.lintRules = rules }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer for escalation spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New builds an Engine with default thresholds, the default prefix table
// and the default rule registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:       DefaultConfig(),
		prefixes:  widget.DefaultPrefixTable(),
		registry:  heuristics.NewRegistry(),
		lintRules: DefaultLintRules(),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(instrumentationName)
	}
	if e.cfg.Escalation.CandidateLimit <= 0 {
		e.cfg.Escalation.CandidateLimit = DefaultConfig().Escalation.CandidateLimit
	}
	return e
}

// Config returns the engine thresholds.
func (e *Engine) Config() Config {
	return e.cfg
}

// escalationReady reports whether a verifier may be consulted at all.
func (e *Engine) escalationReady() bool {
	return e.cfg.Escalation.Enabled && e.verifier != nil && e.renderer != nil
}

// Classify extracts features for n, scores them and decides. Rule
// failures become warning issues on the result.
func (e *Engine) Classify(ctx context.Context, n *design.Node, fctx features.Context) AnalysisResult {
	if n == nil {
		return e.Decide(ctx, nil, features.Features{}, nil)
	}
	f := features.Extract(n, fctx)
	candidates, failures := e.registry.Evaluate(f)

	res := e.Decide(ctx, n, f, candidates)
	for _, fail := range failures {
		res.Issues = append(res.Issues, StructuralIssue{
			NodeID:   n.ID,
			Severity: SeverityWarning,
			Message:  fail.Error(),
		})
		e.metrics.RecordRuleFailure(fail.RuleID)
		e.logger.Warn(ctx, "heuristic rule failed",
			zap.String("node.id", n.ID), zap.String("rule", fail.RuleID), zap.Error(fail.Err))
	}
	return res
}

// Decide resolves candidates for n into one result. It never panics: an
// internal failure degrades to the fallback classification.
func (e *Engine) Decide(ctx context.Context, n *design.Node, f features.Features, candidates []heuristics.Candidate) (res AnalysisResult) {
	if n == nil {
		n = &design.Node{Type: design.TypeUnknown}
	}
	defer func() {
		if rec := recover(); rec != nil {
			res = e.fallbackResult(n, f, candidates)
			res.addIssue(SeverityWarning, fmt.Sprintf("decision failed: %v", rec))
			e.logger.Error(ctx, "decision panicked", zap.String("node.id", n.ID), zap.Any("panic", rec))
		}
	}()

	candidates = sortedCopy(candidates)
	res = e.decide(ctx, n, f, candidates)

	e.lint(n, f, &res)
	if e.cfg.CompareAgainstBaseline && e.baseline != nil {
		e.compareBaseline(ctx, n, &res)
	}

	e.metrics.RecordClassification(string(res.Kind()), string(res.Method))
	e.explain(ctx, res, candidates)
	return res
}

func (e *Engine) decide(ctx context.Context, n *design.Node, f features.Features, candidates []heuristics.Candidate) AnalysisResult {
	res := AnalysisResult{NodeID: n.ID, NodeName: n.Name, Features: f}

	if rule, ok := e.prefixes.Match(n.Name); ok {
		res.Best = &heuristics.Candidate{
			Kind:    rule.Kind,
			Score:   widget.ExplicitScore,
			RuleID:  "prefix:" + rule.Prefix,
			Reasons: []string{fmt.Sprintf("name prefix %q", rule.Prefix)},
		}
		res.Alternatives = candidates
		res.Method = MethodExplicit
		return res
	}

	if len(candidates) > 0 && candidates[0].Score >= e.cfg.MinConfidence {
		best := candidates[0]
		res.Best = &best
		res.Alternatives = candidates[1:]
		res.Method = MethodHeuristic
		return res
	}

	if e.escalationReady() && (len(candidates) == 0 || candidates[0].Score < e.cfg.HighConfidence) {
		if best, method, ok := e.escalate(ctx, n, f, candidates, &res); ok {
			res.Best = &best
			res.Alternatives = without(candidates, best.Kind)
			res.Method = method
			return res
		}
	}

	fb := e.fallbackResult(n, f, candidates)
	fb.Issues = append(res.Issues, fb.Issues...)
	return fb
}

// escalate consults the verifier. ok is false when the heuristic-only
// result should stand.
func (e *Engine) escalate(ctx context.Context, n *design.Node, f features.Features, candidates []heuristics.Candidate, res *AnalysisResult) (heuristics.Candidate, Method, bool) {
	ctx, span := e.tracer.Start(ctx, "decision.escalate", trace.WithAttributes(
		attribute.String("node.id", n.ID),
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()

	if e.cfg.Escalation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Escalation.Timeout)
		defer cancel()
	}

	verdict, err := e.consult(ctx, n, f, candidates)
	if err == nil {
		err = ValidateVerdict(verdict)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "escalation failed")
		res.addIssue(SeverityWarning, "escalation failed: "+err.Error())
		e.metrics.RecordEscalation(outcomeFailed)
		e.logger.Warn(ctx, "escalation failed, using heuristic result",
			zap.String("node.id", n.ID), zap.Error(err))
		return heuristics.Candidate{}, "", false
	}

	var leader heuristics.Candidate
	if len(candidates) > 0 {
		leader = candidates[0]
	}
	best, method := Combine(leader, verdict, e.cfg)
	span.SetAttributes(
		attribute.String("verdict.kind", string(verdict.Kind)),
		attribute.Float64("verdict.confidence", verdict.Confidence),
		attribute.String("method", string(method)),
	)

	switch {
	case method == MethodCombined:
		e.metrics.RecordEscalation(outcomeAgreed)
	case best.Kind == leader.Kind:
		e.metrics.RecordEscalation(outcomeKept)
	default:
		e.metrics.RecordEscalation(outcomeOverridden)
	}

	if best.Score < e.cfg.FallbackScore {
		res.addIssue(SeverityInfo, fmt.Sprintf("escalation inconclusive (%.2f)", best.Score))
		return heuristics.Candidate{}, "", false
	}
	return best, method, true
}

// consult renders the node and calls the verifier, converting panics in
// either collaborator into errors.
func (e *Engine) consult(ctx context.Context, n *design.Node, f features.Features, candidates []heuristics.Candidate) (v Verdict, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("verifier panic: %v", rec)
		}
	}()

	img, err := e.renderer.Render(ctx, n.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("render %s: %w", n.ID, err)
	}

	limit := e.cfg.Escalation.CandidateLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}
	req := VerifyRequest{
		Image:      img,
		Candidates: append([]heuristics.Candidate(nil), candidates[:limit]...),
		Node: NodeMeta{
			ID:         n.ID,
			Name:       n.Name,
			Type:       string(n.Type),
			Width:      f.Width,
			Height:     f.Height,
			ChildCount: f.ChildCount,
		},
		Vocabulary: widget.Vocabulary(),
	}
	return e.verifier.Verify(ctx, req)
}

// ValidateVerdict rejects verdicts the engine cannot act on.
func ValidateVerdict(v Verdict) error {
	if v.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidVerdict)
	}
	if !widget.Known(v.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidVerdict, v.Kind)
	}
	if math.IsNaN(v.Confidence) || v.Confidence < 0 || v.Confidence > 100 {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidVerdict, v.Confidence)
	}
	return nil
}

// Combine merges the heuristic leader with a validated verdict:
//
//	same kind                    -> max of both scores, combined
//	verifier above HighConfidence -> verifier
//	heuristic above HighConfidence -> heuristic, verifier noted as a reason
//	otherwise                     -> verifier at the average of both scores
func Combine(h heuristics.Candidate, v Verdict, cfg Config) (heuristics.Candidate, Method) {
	vScore := clamp01(v.Confidence / 100)
	verifierReason := fmt.Sprintf("verifier: %s (%.0f%%)", v.Kind, v.Confidence)
	if v.Rationale != "" {
		verifierReason += ": " + v.Rationale
	}

	if h.Kind == v.Kind {
		out := h
		out.Score = math.Max(h.Score, vScore)
		out.Reasons = appendReason(h.Reasons, verifierReason)
		return out, MethodCombined
	}

	verifierWins := func(score float64) heuristics.Candidate {
		reasons := []string{verifierReason}
		if h.Kind != "" {
			reasons = append(reasons, fmt.Sprintf("heuristic: %s (%.2f)", h.Kind, h.Score))
		}
		return heuristics.Candidate{Kind: v.Kind, Score: score, RuleID: "verifier", Reasons: reasons}
	}

	switch {
	case vScore > cfg.HighConfidence:
		return verifierWins(vScore), MethodVerifier
	case h.Score > cfg.HighConfidence:
		out := h
		out.Reasons = appendReason(h.Reasons, "overruled "+verifierReason)
		return out, MethodHeuristic
	default:
		return verifierWins((h.Score + vScore) / 2), MethodVerifier
	}
}

// fallbackResult builds the shape-only result.
func (e *Engine) fallbackResult(n *design.Node, f features.Features, candidates []heuristics.Candidate) AnalysisResult {
	kind, reason := FallbackKind(n)
	return AnalysisResult{
		NodeID:   n.ID,
		NodeName: n.Name,
		Best: &heuristics.Candidate{
			Kind:    kind,
			Score:   e.cfg.FallbackScore,
			RuleID:  "fallback",
			Reasons: []string{reason},
		},
		Alternatives: candidates,
		Method:       MethodFallback,
		Features:     f,
	}
}

// Shapes thinner than this, and at least thinRatio times longer than
// thick, fall back to divider.
const (
	thinMaxThickness = 5
	thinRatio        = 4
)

// FallbackKind maps a node's primitive shape to a kind. It never returns
// an empty kind.
func FallbackKind(n *design.Node) (widget.Kind, string) {
	switch n.Type.Class() {
	case design.ClassText:
		return widget.KindTextEditor, "text fallback"
	case design.ClassImage:
		return widget.KindImage, "image fallback"
	case design.ClassShape:
		if n.IsImageLike() {
			return widget.KindImage, "image fill fallback"
		}
		thick, long := math.Min(n.Width, n.Height), math.Max(n.Width, n.Height)
		if thick <= thinMaxThickness && long >= thinRatio*math.Max(thick, 1) {
			return widget.KindDivider, "thin shape fallback"
		}
		return widget.KindIcon, "shape fallback"
	case design.ClassContainer:
		if len(n.VisibleChildren()) == 0 {
			return widget.KindSpacer, "empty container fallback"
		}
		return widget.KindContainer, "container fallback"
	default:
		return widget.KindCustom, "unknown type fallback"
	}
}

func (e *Engine) compareBaseline(ctx context.Context, n *design.Node, res *AnalysisResult) {
	kind, score, ok, err := safeBaseline(e.baseline, n)
	if err != nil {
		res.addIssue(SeverityInfo, "baseline failed: "+err.Error())
		return
	}
	if !ok || kind == res.Kind() {
		return
	}
	res.addIssue(SeverityInfo, fmt.Sprintf("baseline suggested %s (%.2f)", kind, score))
	e.metrics.RecordShadowDisagreement()
	e.logger.Info(ctx, "baseline disagreement",
		zap.String("node.id", n.ID),
		zap.String("node.name", n.Name),
		zap.String("kind", string(res.Kind())),
		zap.String("method", string(res.Method)),
		zap.String("baseline.kind", string(kind)),
		zap.Float64("baseline.score", score),
	)
}

func safeBaseline(b Baseline, n *design.Node) (kind widget.Kind, score float64, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	kind, score, ok = b.Classify(n)
	return kind, score, ok, nil
}

// explain logs the decision with its top candidates at debug level.
func (e *Engine) explain(ctx context.Context, res AnalysisResult, candidates []heuristics.Candidate) {
	if !e.logger.Enabled(zapcore.DebugLevel) {
		return
	}
	top := make([]string, 0, 3)
	for i, c := range candidates {
		if i == 3 {
			break
		}
		top = append(top, fmt.Sprintf("%s(%.2f)", c.Kind, c.Score))
	}
	var reasons []string
	if res.Best != nil {
		reasons = res.Best.Reasons
	}
	f := res.Features
	e.logger.Debug(ctx, "decision explained",
		zap.String("node.id", res.NodeID),
		zap.String("node.name", res.NodeName),
		zap.String("kind", string(res.Kind())),
		zap.Float64("score", res.Score()),
		zap.String("method", string(res.Method)),
		zap.String("reasons", strings.Join(reasons, "; ")),
		zap.Strings("candidates", top),
		zap.String("type", string(f.Type)),
		zap.Float64("width", f.Width),
		zap.Float64("height", f.Height),
		zap.Int("children", f.ChildCount),
		zap.String("zone", string(f.Zone)),
	)
}

func sortedCopy(cs []heuristics.Candidate) []heuristics.Candidate {
	out := make([]heuristics.Candidate, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func without(cs []heuristics.Candidate, kind widget.Kind) []heuristics.Candidate {
	var out []heuristics.Candidate
	for _, c := range cs {
		if c.Kind != kind {
			out = append(out, c)
		}
	}
	return out
}

func appendReason(reasons []string, r string) []string {
	out := make([]string, 0, len(reasons)+1)
	out = append(out, reasons...)
	return append(out, r)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
