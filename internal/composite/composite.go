// Package composite collapses multi-node motifs in a built tree into
// single composite widgets.
//
// Apply runs bottom-up. At each container the matchers run in order (card,
// hero, list, card-grid) and the first match wins. A matched container is
// replaced in its parent by one widget whose Children hold every widget it
// absorbed. The input tree is never modified.
package composite

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Pattern names, also used as metric labels and in widget Meta.
const (
	PatternCard     = "card"
	PatternHero     = "hero"
	PatternList     = "list"
	PatternCardGrid = "card-grid"
)

// MetaPattern is the Meta key naming the pattern that produced a widget.
const MetaPattern = "pattern"

// Processor applies the composite patterns.
type Processor struct {
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// New returns a Processor.
func New(cfg Config, opts ...Option) *Processor {
	p := &Processor{cfg: cfg, logger: logging.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply returns a rewritten copy of root.
func (p *Processor) Apply(root widget.Container) widget.Container {
	out := root.Clone()
	if !p.cfg.Enabled {
		return out
	}
	p.rewriteChildren(&out)
	if w, name, ok := p.match(out); ok {
		// The root container already carries the source id.
		delete(w.Styles, widget.StyleSourceID)
		delete(w.Styles, widget.StyleSourceName)
		w.Order = 0
		out.Widgets = []widget.Widget{w}
		out.Children = []widget.Container{}
		p.record(out.ID, name)
		return out
	}
	if p.cardGrid(&out) {
		p.record(out.ID, PatternCardGrid)
	}
	return out
}

// rewriteChildren processes c's children bottom-up, moving collapsed ones
// into c.Widgets at their original order. c is an owned copy.
func (p *Processor) rewriteChildren(c *widget.Container) {
	kept := c.Children[:0:0]
	for i := range c.Children {
		child := c.Children[i]
		if w, ok := p.rewrite(&child); ok {
			c.Widgets = append(c.Widgets, w)
			continue
		}
		kept = append(kept, child)
	}
	c.Children = kept
	sort.SliceStable(c.Widgets, func(i, j int) bool { return c.Widgets[i].Order < c.Widgets[j].Order })
}

// rewrite processes c and reports the widget replacing it, if any.
func (p *Processor) rewrite(c *widget.Container) (widget.Widget, bool) {
	p.rewriteChildren(c)
	if w, name, ok := p.match(*c); ok {
		p.record(c.ID, name)
		return w, true
	}
	if p.cardGrid(c) {
		p.record(c.ID, PatternCardGrid)
	}
	return widget.Widget{}, false
}

// match runs the collapsing matchers in order and returns the first hit
// with its pattern name recorded in Meta.
func (p *Processor) match(c widget.Container) (widget.Widget, string, bool) {
	matchers := []struct {
		name  string
		match func(widget.Container) (widget.Widget, bool)
	}{
		{PatternCard, p.card},
		{PatternHero, p.hero},
		{PatternList, p.list},
	}
	for _, m := range matchers {
		if w, ok := m.match(c); ok {
			if w.Meta == nil {
				w.Meta = map[string]any{}
			}
			w.Meta[MetaPattern] = m.name
			return w, m.name, true
		}
	}
	return widget.Widget{}, "", false
}

func (p *Processor) record(id, pattern string) {
	p.metrics.RecordCompositeRewrite(pattern)
	p.logger.Debug(context.Background(), "composite pattern applied",
		zap.String("container.id", id), zap.String("pattern", pattern))
}

// collapsed returns the widget standing in for container c.
func collapsed(c widget.Container, kind widget.Kind, children []widget.Widget) widget.Widget {
	return widget.Widget{
		Kind:     kind,
		Order:    c.Order,
		Bounds:   c.Bounds,
		Styles:   c.Styles.Clone(),
		Children: children,
	}
}

// reorder returns ws with Order reassigned to their position.
func reorder(ws []widget.Widget) []widget.Widget {
	out := make([]widget.Widget, len(ws))
	copy(out, ws)
	for i := range out {
		out[i].Order = i
	}
	return out
}
