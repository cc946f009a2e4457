// Figclass classifies design trees into page-builder widget schemas.
//
// Usage:
//
//	# Classify a document, JSON to stdout
//	figclass classify page.json
//
//	# Read stdin, write YAML
//	cat page.json | figclass classify - --output yaml
//
//	# Human-readable decision report
//	figclass explain page.json
//
//	# HTTP API
//	figclass serve --config figclass.yaml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/config"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
	"github.com/fyrsmithlabs/figclass/internal/telemetry"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "figclass",
		Short: "Classify design trees into page-builder widgets",
		Long: `figclass reads a design document (a Figma-shaped node tree as JSON),
decides a widget kind for every visible node and emits a container/widget
schema ready for a page-builder import.

Configuration is read from --config (YAML) and FIGCLASS_* environment
variables, e.g. FIGCLASS_ENGINE_MIN_CONFIDENCE=0.75.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	root.AddCommand(
		newClassifyCmd(flags),
		newExplainCmd(flags),
		newServeCmd(flags),
		newWatchCmd(flags),
		newPrefixesCmd(flags),
	)
	return root
}

// app holds the process-wide components a command needs.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	tel      *telemetry.Telemetry
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
}

func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry))
	if err != nil {
		return nil, err
	}

	logCfg, err := loggingConfig(cfg.Logging, tel)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if degraded, derr := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Error(derr))
	}

	m := metrics.New()
	p, err := pipeline.FromConfig(cfg, pipeline.Deps{
		Logger:  logger,
		Metrics: m,
		Tracer:  tel.Tracer("github.com/fyrsmithlabs/figclass"),
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, tel: tel, metrics: m, pipeline: p}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// loggingConfig maps the application logging section onto the logger
// defaults.
func loggingConfig(c config.LoggingConfig, tel *telemetry.Telemetry) (*logging.Config, error) {
	out := logging.NewDefaultConfig()
	if c.Level != "" {
		lvl, err := logging.LevelFromString(c.Level)
		if err != nil {
			return nil, err
		}
		out.Level = lvl
	}
	if c.Format != "" {
		out.Format = c.Format
	}
	if c.Output != "" {
		out.Output.Stream = c.Output
	}
	out.Output.OTEL = tel.LoggerProvider() != nil
	return out, nil
}
