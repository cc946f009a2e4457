package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/figclass/internal/report"
)

func newExplainCmd(flags *globalFlags) *cobra.Command {
	var alternatives int
	cmd := &cobra.Command{
		Use:   "explain [file|-]",
		Short: "Print a readable report of every classification decision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			out, err := runInput(cmd, a.pipeline, args)
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), out, report.Options{Alternatives: alternatives})
		},
	}
	cmd.Flags().IntVar(&alternatives, "alternatives", 2, "runner-up candidates to show per node")
	return cmd
}
