package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/figclass/internal/widget"
)

var (
	prefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Width(32)
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231"))
)

func newPrefixesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prefixes",
		Short: "List the explicit name prefixes and the widget kind each selects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			table := widget.DefaultPrefixTable()
			if a.cfg.Prefixes.File != "" {
				rules, err := widget.LoadPrefixFile(a.cfg.Prefixes.File)
				if err != nil {
					return err
				}
				if err := table.Add(rules...); err != nil {
					return err
				}
			}
			for _, r := range table.Rules() {
				fmt.Fprintln(cmd.OutOrStdout(), prefixStyle.Render(r.Prefix)+kindStyle.Render(string(r.Kind)))
			}
			return nil
		},
	}
}
