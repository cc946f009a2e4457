// Package builder turns a validated design tree into the typed container
// and widget tree.
//
// Build walks the tree top-down. Each visible child is classified by the
// decision engine: widget kinds become leaves filled by a per-kind
// Extractor, structural kinds become containers built recursively. Boxed
// inner wrappers are unwrapped first, layout-less containers are put in
// reading order, and a rescue pass appends any visible child that was not
// represented so no content is lost.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/features"
	"github.com/fyrsmithlabs/figclass/internal/heuristics"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const instrumentationName = "github.com/fyrsmithlabs/figclass/internal/builder"

// DefaultRowTolerance is the vertical distance within which nodes share a
// reading-order row.
const DefaultRowTolerance = 5.0

// ErrNilRoot is returned by Build for a nil tree.
var ErrNilRoot = errors.New("nil root node")

// Result is the outcome of one build.
type Result struct {
	Root     widget.Container
	Analyses []decision.AnalysisResult
	Issues   []decision.StructuralIssue
	// Consumed holds every visible source id represented in Root.
	Consumed map[string]bool
}

// Missing returns the visible ids of root absent from Consumed, sorted.
func (r *Result) Missing(root *design.Node) []string {
	var out []string
	for _, id := range VisibleIDs(root) {
		if !r.Consumed[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Builder assembles output trees. It holds no per-build state and may be
// shared.
type Builder struct {
	engine       *decision.Engine
	extractors   map[widget.Kind]Extractor
	rowTolerance float64
	unwrap       bool
	logger       *logging.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// Option configures a Builder.
type Option func(*Builder)

// WithExtractor replaces the extractor for kind.
func WithExtractor(kind widget.Kind, fn Extractor) Option {
	return func(b *Builder) { b.extractors[kind] = fn }
}

// WithRowTolerance sets the reading-order row band.
func WithRowTolerance(px float64) Option {
	return func(b *Builder) { b.rowTolerance = px }
}

// WithUnwrap toggles structural unwrapping.
func WithUnwrap(enabled bool) Option {
	return func(b *Builder) { b.unwrap = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *Builder) { b.tracer = t }
}

// New returns a Builder classifying with engine. A nil engine uses
// decision.New().
func New(engine *decision.Engine, opts ...Option) *Builder {
	if engine == nil {
		engine = decision.New()
	}
	b := &Builder{
		engine:       engine,
		extractors:   DefaultExtractors(),
		rowTolerance: DefaultRowTolerance,
		unwrap:       true,
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer(instrumentationName)
	}
	return b
}

// Build validates root and builds its output tree. Only validation errors
// are returned; classification problems are reported as Result.Issues.
func (b *Builder) Build(ctx context.Context, root *design.Node) (*Result, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	ctx, span := b.tracer.Start(ctx, "builder.Build", trace.WithAttributes(
		attribute.String("root.id", root.ID),
		attribute.String("root.name", root.Name),
	))
	defer span.End()

	if err := design.Validate(root); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid tree")
		return nil, fmt.Errorf("validate design tree: %w", err)
	}

	start := time.Now()
	r := &run{
		Builder:    b,
		ctx:        ctx,
		rootHeight: root.Height,
		consumed:   make(map[string]bool),
	}
	top := *root
	top.X, top.Y = 0, 0
	c := r.container(&top, 0, 0)
	c.Order = 0

	res := &Result{Root: c, Analyses: r.analyses, Issues: r.issues, Consumed: r.consumed}
	b.metrics.ObserveBuild(time.Since(start))
	if r.rescued > 0 {
		b.metrics.RecordRescued(r.rescued)
	}

	span.SetAttributes(
		attribute.Int("nodes.classified", len(r.analyses)),
		attribute.Int("nodes.rescued", r.rescued),
		attribute.Int("issues", len(r.issues)),
	)
	b.logger.Debug(ctx, "tree built",
		zap.String("root.id", root.ID),
		zap.Int("classified", len(r.analyses)),
		zap.Int("rescued", r.rescued),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// run is the state of one Build call.
type run struct {
	*Builder
	ctx        context.Context
	rootHeight float64
	analyses   []decision.AnalysisResult
	issues     []decision.StructuralIssue
	consumed   map[string]bool
	rescued    int
}

// container builds n as a container. absX, absY is n's page position.
func (r *run) container(n *design.Node, absX, absY float64) widget.Container {
	r.consumed[n.ID] = true

	src := n
	var wrappers []string
	if r.unwrap {
		src, wrappers = Unwrap(n)
	}

	c := widget.Container{
		ID:        n.ID,
		Direction: direction(src.Layout),
		Width:     widget.WidthFull,
		Bounds:    widget.Rect{X: absX, Y: absY, Width: n.Width, Height: n.Height},
		Styles:    containerStyles(n, src.Layout),
		Widgets:   []widget.Widget{},
		Children:  []widget.Container{},
	}
	if len(wrappers) > 0 {
		c.Width = widget.WidthBoxed
		c.Styles[widget.StyleBoxedInnerSourceID] = wrappers[0]
		if inner := innerWrapper(n, wrappers[len(wrappers)-1]); inner != nil {
			c.Styles["boxedWidth"] = inner.Width
		}
		for _, id := range wrappers {
			r.consumed[id] = true
		}
	}

	children := src.VisibleChildren()
	if src.Layout.Axis() == design.LayoutNone {
		children = ReadingOrder(children, r.rowTolerance)
	}

	fctx := features.Context{
		RootHeight:   r.rootHeight,
		OriginY:      absY,
		ParentLayout: src.Layout.Axis(),
		SiblingCount: len(children),
	}
	for i, child := range children {
		r.child(&c, child, i, fctx, absX, absY)
	}
	r.rescue(&c, children, absX, absY)
	return c
}

// child classifies one child of c and appends it as a widget or container.
func (r *run) child(c *widget.Container, n *design.Node, order int, fctx features.Context, absX, absY float64) {
	res := r.engine.Classify(r.ctx, n, fctx)
	r.analyses = append(r.analyses, res)
	r.issues = append(r.issues, res.Issues...)

	x, y := absX+n.X, absY+n.Y
	if res.Structural() {
		if n.Type.Class() == design.ClassContainer {
			cc := r.container(n, x, y)
			cc.Order = order
			switch res.Kind() {
			case widget.KindSection:
				cc.Role = widget.RoleSection
			case widget.KindInnerContainer:
				cc.Width = widget.WidthBoxed
			}
			c.Children = append(c.Children, cc)
			return
		}
		kind, reason := decision.FallbackKind(n)
		r.issues = append(r.issues, decision.StructuralIssue{
			NodeID:   n.ID,
			Severity: decision.SeverityInfo,
			Message:  fmt.Sprintf("structural kind %s on a leaf; emitted as %s (%s)", res.Kind(), kind, reason),
		})
		res.Best = &heuristics.Candidate{Kind: kind, Score: res.Score(), RuleID: "leaf", Reasons: []string{reason}}
	}

	w, ok := r.widget(n, res, order, x, y)
	if !ok {
		return
	}
	c.Widgets = append(c.Widgets, w)
}

// widget runs the extractor for res's kind. ok is false when the extractor
// panicked; the node then stays unconsumed for the rescue pass.
func (r *run) widget(n *design.Node, res decision.AnalysisResult, order int, x, y float64) (w widget.Widget, ok bool) {
	kind := res.Kind()
	w = widget.Widget{
		Kind:   kind,
		Order:  order,
		Bounds: widget.Rect{X: x, Y: y, Width: n.Width, Height: n.Height},
		Styles: sourceStyles(n),
		Meta: map[string]any{
			"method":     string(res.Method),
			"confidence": res.Score(),
		},
	}

	extract, found := r.extractors[kind]
	if !found {
		extract = GenericExtractor
	}
	if err := safeExtract(extract, n, &w); err != nil {
		r.issues = append(r.issues, decision.StructuralIssue{
			NodeID:   n.ID,
			Severity: decision.SeverityWarning,
			Message:  fmt.Sprintf("extract %s: %v", kind, err),
		})
		r.logger.Warn(r.ctx, "widget extractor failed",
			zap.String("node.id", n.ID), zap.String("kind", string(kind)), zap.Error(err))
		return widget.Widget{}, false
	}

	walkVisible(n, 0, 0, func(d *design.Node, _, _ float64) bool {
		r.consumed[d.ID] = true
		return true
	})
	return w, true
}

func safeExtract(fn Extractor, n *design.Node, w *widget.Widget) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	fn(n, w)
	return nil
}

// rescue appends every visible child of the processed list that is not yet
// consumed. Text becomes text-editor, containers are rebuilt, anything
// else takes its shape fallback.
func (r *run) rescue(c *widget.Container, children []*design.Node, absX, absY float64) {
	for i, n := range children {
		if r.consumed[n.ID] {
			continue
		}
		r.rescued++
		x, y := absX+n.X, absY+n.Y
		r.issues = append(r.issues, decision.StructuralIssue{
			NodeID:   n.ID,
			Severity: decision.SeverityInfo,
			Message:  "node was not represented and has been rescued",
		})
		r.logger.Info(r.ctx, "rescued unconsumed node", zap.String("node.id", n.ID), zap.String("node.name", n.Name))

		if n.Type.Class() == design.ClassContainer {
			cc := r.container(n, x, y)
			cc.Order = i
			cc.Role = widget.RoleRescued
			c.Children = append(c.Children, cc)
			continue
		}
		w := leafWidget(n, i, widget.Rect{X: x, Y: y, Width: n.Width, Height: n.Height})
		w.Meta = map[string]any{"method": string(decision.MethodFallback), "rescued": true}
		c.Widgets = append(c.Widgets, w)
		r.consumed[n.ID] = true
	}
	sort.SliceStable(c.Widgets, func(i, j int) bool { return c.Widgets[i].Order < c.Widgets[j].Order })
	sort.SliceStable(c.Children, func(i, j int) bool { return c.Children[i].Order < c.Children[j].Order })
}

func direction(l design.Layout) widget.Direction {
	if l.Axis() == design.LayoutHorizontal {
		return widget.DirectionRow
	}
	return widget.DirectionColumn
}

func containerStyles(n *design.Node, l design.Layout) widget.Style {
	s := sourceStyles(n)
	if l.ItemSpacing > 0 {
		s[widget.StyleGap] = l.ItemSpacing
	}
	if l.HasPadding() {
		s[widget.StylePadding] = []float64{l.PaddingTop, l.PaddingRight, l.PaddingBottom, l.PaddingLeft}
	}
	if l.PrimaryAlign != "" {
		s[widget.StyleJustify] = l.PrimaryAlign
	}
	if l.CounterAlign != "" {
		s[widget.StyleAlign] = l.CounterAlign
	}
	paint(n, s)
	return s
}

// innerWrapper finds the wrapper with id below n.
func innerWrapper(n *design.Node, id string) *design.Node {
	var found *design.Node
	design.Walk(n, func(d *design.Node, _ int) bool {
		if found != nil {
			return false
		}
		if d.ID == id {
			found = d
			return false
		}
		return true
	})
	return found
}

// VisibleIDs returns the ids of n and every descendant not hidden by
// itself or an ancestor, in depth-first order.
func VisibleIDs(n *design.Node) []string {
	var ids []string
	if n == nil {
		return nil
	}
	walkVisible(n, 0, 0, func(d *design.Node, _, _ float64) bool {
		ids = append(ids, d.ID)
		return true
	})
	return ids
}
