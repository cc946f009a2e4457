package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/report"
	"github.com/fyrsmithlabs/figclass/internal/watch"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var (
		format  string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-classify a design document every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatYAML && format != "report" {
				return fmt.Errorf("unknown output format %q (want json, yaml or report)", format)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			path := args[0]
			w := cmd.OutOrStdout()
			run := func(ctx context.Context) error {
				root, err := design.DecodeFile(path)
				if err != nil {
					return err
				}
				out, err := a.pipeline.Run(ctx, root)
				if err != nil {
					return err
				}
				if format == "report" {
					return report.Render(w, out, report.Options{Alternatives: 2})
				}
				return writeOutput(w, out, format, explain)
			}
			classify := func(ctx context.Context) {
				if err := run(ctx); err != nil {
					a.logger.Error(ctx, "classification failed", zap.String("path", path), zap.Error(err))
				}
			}

			classify(ctx)
			return watch.New(path, classify, watch.WithLogger(a.logger)).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "report", "output format: report, json or yaml")
	cmd.Flags().BoolVar(&explain, "explain", false, "include per-node decisions in json/yaml output")
	return cmd
}
