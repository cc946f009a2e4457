// Package pipeline runs a complete classification: decode, build, collapse
// composites and wrap the result in a Schema.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/builder"
	"github.com/fyrsmithlabs/figclass/internal/composite"
	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

const instrumentationName = "github.com/fyrsmithlabs/figclass/internal/pipeline"

// Output is the result of one run.
type Output struct {
	// RunID tags logs and spans of the run. It is not serialised so that
	// identical input yields identical output.
	RunID    string                     `json:"-" yaml:"-"`
	Schema   widget.Schema              `json:"schema" yaml:"schema"`
	Analyses []decision.AnalysisResult  `json:"analyses,omitempty" yaml:"analyses,omitempty"`
	Issues   []decision.StructuralIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
	// Missing lists visible source ids absent from the schema. It is
	// empty for every successful build.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Pipeline wires a Builder and a composite Processor together. It is safe
// for concurrent use.
type Pipeline struct {
	builder   *builder.Builder
	composite *composite.Processor
	logger    *logging.Logger
	tracer    trace.Tracer
	newRunID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// New returns a Pipeline. A nil builder uses builder.New(nil) and a nil
// processor uses the default composite thresholds.
func New(b *builder.Builder, c *composite.Processor, opts ...Option) *Pipeline {
	if b == nil {
		b = builder.New(nil)
	}
	if c == nil {
		c = composite.New(composite.DefaultConfig())
	}
	p := &Pipeline{
		builder:   b,
		composite: c,
		logger:    logging.Nop(),
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(instrumentationName)
	}
	return p
}

// RunReader decodes a design tree from r and runs it.
func (p *Pipeline) RunReader(ctx context.Context, r io.Reader) (*Output, error) {
	root, err := design.Decode(r)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, root)
}

// Run classifies root. Only decode and validation errors are returned.
func (p *Pipeline) Run(ctx context.Context, root *design.Node) (*Output, error) {
	runID := p.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	ctx, span := p.tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	res, err := p.builder.Build(ctx, root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build: %w", err)
	}

	tree := p.composite.Apply(res.Root)
	out := &Output{
		Schema: widget.Schema{
			Page:       widget.Page{Title: root.Name},
			Containers: []widget.Container{tree},
		},
		RunID:    runID,
		Analyses: res.Analyses,
		Issues:   res.Issues,
		Missing:  res.Missing(root),
	}

	if len(out.Missing) > 0 {
		p.logger.Error(ctx, "nodes missing from output", zap.Strings("node.ids", out.Missing))
	}
	p.logger.Info(ctx, "page classified",
		zap.String("page.title", root.Name),
		zap.Int("nodes", len(res.Analyses)),
		zap.Int("issues", len(res.Issues)),
	)
	span.SetAttributes(attribute.Int("issues", len(res.Issues)))
	return out, nil
}
