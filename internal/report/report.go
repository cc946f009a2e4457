// Package report renders a classification run as a terminal report.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// Options tunes the report.
type Options struct {
	// Alternatives is how many runner-up candidates to list per node.
	Alternatives int
}

// Render writes the report for out to w.
func Render(w io.Writer, out *pipeline.Output, opts Options) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render("figclass: " + out.Schema.Page.Title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("run " + out.RunID))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(containerStyle.Render(summary(out)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Decisions"))
	b.WriteString("\n")
	for _, a := range out.Analyses {
		b.WriteString(decisionLine(a, opts.Alternatives))
		b.WriteString("\n")
	}

	if len(out.Issues) > 0 {
		b.WriteString(sectionStyle.Render("Issues"))
		b.WriteString("\n")
		for _, is := range out.Issues {
			b.WriteString(issueLine(is))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func summary(out *pipeline.Output) string {
	methods := map[decision.Method]int{}
	for _, a := range out.Analyses {
		methods[a.Method]++
	}
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, string(m))
	}
	sort.Strings(names)

	widgets := 0
	for _, c := range out.Schema.Containers {
		c.Walk(nil, func(widget.Widget) { widgets++ })
	}

	lines := []string{
		field("nodes", fmt.Sprintf("%d", len(out.Analyses))),
		field("widgets", fmt.Sprintf("%d", widgets)),
		field("issues", fmt.Sprintf("%d", len(out.Issues))),
	}
	for _, m := range names {
		lines = append(lines, field("  "+m, fmt.Sprintf("%d", methods[decision.Method(m)])))
	}
	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + valueStyle.Render(value)
}

func decisionLine(a decision.AnalysisResult, alternatives int) string {
	line := fmt.Sprintf("%s %s %s %s",
		dimStyle.Render(a.NodeID),
		a.NodeName,
		valueStyle.Render(string(a.Kind())),
		dimStyle.Render(fmt.Sprintf("%.2f %s", a.Score(), a.Method)),
	)
	if a.Best != nil && len(a.Best.Reasons) > 0 {
		line += "\n    " + dimStyle.Render(strings.Join(a.Best.Reasons, "; "))
	}
	for i, alt := range a.Alternatives {
		if i >= alternatives {
			break
		}
		line += "\n    " + dimStyle.Render(fmt.Sprintf("or %s %.2f", alt.Kind, alt.Score))
	}
	return line
}

func issueLine(is decision.StructuralIssue) string {
	style := infoStyle
	switch is.Severity {
	case decision.SeverityWarning:
		style = warningStyle
	case decision.SeverityCritical:
		style = criticalStyle
	}
	return style.Render(fmt.Sprintf("[%s]", is.Severity)) + " " + dimStyle.Render(is.NodeID) + " " + is.Message
}
