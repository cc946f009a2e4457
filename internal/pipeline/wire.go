package pipeline

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/figclass/internal/builder"
	"github.com/fyrsmithlabs/figclass/internal/composite"
	"github.com/fyrsmithlabs/figclass/internal/config"
	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/heuristics"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/render"
	"github.com/fyrsmithlabs/figclass/internal/verifier"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Deps carries the process-wide collaborators shared by every component.
type Deps struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
	// Verifier overrides the HTTP verifier built from configuration.
	Verifier decision.Verifier
}

// FromConfig assembles a Pipeline from application configuration.
func FromConfig(cfg *config.Config, deps Deps) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	prefixes := widget.DefaultPrefixTable()
	if cfg.Prefixes.File != "" {
		rules, err := widget.LoadPrefixFile(cfg.Prefixes.File)
		if err != nil {
			return nil, err
		}
		if err := prefixes.Add(rules...); err != nil {
			return nil, fmt.Errorf("prefix file %s: %w", cfg.Prefixes.File, err)
		}
	}

	engineOpts := []decision.Option{
		decision.WithConfig(decision.ConfigFrom(cfg)),
		decision.WithPrefixTable(prefixes),
		decision.WithRegistry(heuristics.NewRegistry()),
		decision.WithLogger(logger.Named("decision")),
		decision.WithMetrics(deps.Metrics),
	}
	if deps.Tracer != nil {
		engineOpts = append(engineOpts, decision.WithTracer(deps.Tracer))
	}
	if cfg.Engine.CompareBaseline {
		engineOpts = append(engineOpts, decision.WithBaseline(heuristics.NewNameKeywordBaseline()))
	}
	if cfg.Escalation.Enabled {
		v := deps.Verifier
		if v == nil {
			var err error
			v, err = verifier.New(verifier.FromAppConfig(cfg.Verifier),
				verifier.WithLogger(logger.Named("verifier")))
			if err != nil {
				return nil, fmt.Errorf("verifier: %w", err)
			}
		}
		cache := render.NewCache(cfg.Render.CacheTTL.Duration(), cfg.Render.CacheMaxEntries)
		cache.SetMetrics(deps.Metrics)
		renderer := render.NewCachedRenderer(render.NewDirRenderer(cfg.Render.Dir), cache)
		engineOpts = append(engineOpts, decision.WithVerifier(v, renderer))
	}
	engine := decision.New(engineOpts...)

	builderOpts := []builder.Option{
		builder.WithRowTolerance(cfg.Layout.RowTolerance),
		builder.WithUnwrap(cfg.Layout.Unwrap),
		builder.WithLogger(logger.Named("builder")),
		builder.WithMetrics(deps.Metrics),
	}
	if deps.Tracer != nil {
		builderOpts = append(builderOpts, builder.WithTracer(deps.Tracer))
	}

	processor := composite.New(composite.ConfigFrom(cfg.Composite),
		composite.WithLogger(logger.Named("composite")),
		composite.WithMetrics(deps.Metrics),
	)

	opts := []Option{WithLogger(logger)}
	if deps.Tracer != nil {
		opts = append(opts, WithTracer(deps.Tracer))
	}
	return New(builder.New(engine, builderOpts...), processor, opts...), nil
}
