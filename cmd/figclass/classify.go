package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/figclass/internal/pipeline"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newClassifyCmd(flags *globalFlags) *cobra.Command {
	var (
		format  string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "classify [file|-]",
		Short: "Classify a design document and print the widget schema",
		Long: `Classify a design document and print the widget schema.

Examples:
  # Classify a file
  figclass classify page.json

  # Classify from stdin as YAML
  cat page.json | figclass classify - --output yaml

  # Include per-node decisions
  figclass classify page.json --explain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("unknown output format %q (want json or yaml)", format)
			}
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
			return writeOutput(cmd.OutOrStdout(), out, format, explain)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&explain, "explain", false, "include per-node decisions and issues")
	return cmd
}

// runInput classifies the file named by args, or stdin for none or "-".
func runInput(cmd *cobra.Command, p *pipeline.Pipeline, args []string) (*pipeline.Output, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}
	return p.RunReader(cmd.Context(), r)
}

// writeOutput encodes the schema, or the whole run with explain.
func writeOutput(w io.Writer, out *pipeline.Output, format string, explain bool) error {
	var v any = out.Schema
	if explain {
		v = out
	}
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
