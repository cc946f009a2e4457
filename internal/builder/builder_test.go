package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/design"
	dt "github.com/fyrsmithlabs/figclass/internal/design/designtest"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/telemetry"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

func build(t *testing.T, root *design.Node, opts ...Option) *Result {
	t.Helper()
	res, err := New(nil, opts...).Build(context.Background(), root)
	require.NoError(t, err)
	return res
}

func mixedPage() *design.Node {
	hidden := dt.Text("hidden", "Draft note", 14, 400, 0, 0)
	hidden.Hidden = true
	loose := dt.Frame("loose", "Loose", design.LayoutNone, 0, 2000, 600, 300,
		dt.Text("loose/b", "Second", 16, 400, 0, 100),
		dt.Text("loose/a", "First", 16, 400, 0, 0),
	)
	return dt.Page(
		dt.Hero("hero"),
		dt.Divider("div"),
		dt.ImageCard("card", 0, 700),
		dt.IconList("list", 4),
		dt.CardGrid("grid", 3),
		loose,
		hidden,
	)
}

func TestBuild_Totality(t *testing.T) {
	root := mixedPage()
	res := build(t, root)

	assert.Empty(t, res.Missing(root), "every visible node is represented")
	assert.False(t, res.Consumed["hidden"])

	seen := map[string]int{}
	for _, id := range res.Root.SourceIDs() {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "source id %s emitted more than once", id)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := json.Marshal(build(t, mixedPage()).Root)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(build(t, mixedPage()).Root)
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
	}
}

func TestBuild_RootIsNeverAWidget(t *testing.T) {
	root := dt.Page(dt.Text("t", "Hello", 16, 400, 0, 0))
	root.Name = "w:button"

	res := build(t, root)
	assert.Equal(t, "0:1", res.Root.ID)
	require.Len(t, res.Root.Widgets, 1)
	assert.Equal(t, "t", res.Root.Widgets[0].Styles.SourceID())
}

func TestBuild_DividerScenario(t *testing.T) {
	res := build(t, dt.Page(dt.Divider("d")))

	require.Len(t, res.Root.Widgets, 1)
	w := res.Root.Widgets[0]
	assert.Equal(t, widget.KindDivider, w.Kind)
	assert.Equal(t, 2.0, w.Styles["weight"])
}

func TestBuild_ImageCardExtractsContent(t *testing.T) {
	res := build(t, dt.Page(dt.ImageCard("c", 0, 0)))

	require.Len(t, res.Root.Widgets, 1)
	w := res.Root.Widgets[0]
	assert.Equal(t, widget.KindImageBox, w.Kind)
	assert.Equal(t, "Fast Delivery", w.Content)
	assert.Equal(t, "Ships same day", w.Description)
	assert.Equal(t, "img-c", w.ImageRef)
	assert.Equal(t, "c", w.Styles.SourceID())
	for _, id := range []string{"c", "c/img", "c/title", "c/body"} {
		assert.True(t, res.Consumed[id], id)
	}

	require.Len(t, w.Children, 3)
	tests := []struct {
		source string
		kind   widget.Kind
	}{
		{"c/img", widget.KindImage},
		{"c/title", widget.KindHeading},
		{"c/body", widget.KindTextEditor},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.source, w.Children[i].Styles.SourceID())
		assert.Equal(t, tt.kind, w.Children[i].Kind, tt.source)
	}
	assert.Equal(t, "img-c", w.Children[0].ImageRef)
	assert.Equal(t, "Fast Delivery", w.Children[1].Content)
}

func TestListExtractor_ItemsCarryLeaves(t *testing.T) {
	list := dt.IconList("l", 2)
	w := widget.Widget{Kind: widget.KindIconList, Styles: widget.Style{}}
	ListExtractor(list, &w)

	require.Len(t, w.Children, 2)
	for i, item := range w.Children {
		assert.Equal(t, widget.KindListItem, item.Kind)
		require.Len(t, item.Children, 2)
		assert.Equal(t, widget.KindIcon, item.Children[0].Kind)
		assert.Equal(t, widget.KindTextEditor, item.Children[1].Kind)
		assert.Equal(t, fmt.Sprintf("Perk number %d", i+1), item.Children[1].Content)
		assert.Equal(t, item.IconRef, item.Children[0].IconRef)
	}
}

func TestBuild_StructuralChildrenRecurse(t *testing.T) {
	res := build(t, dt.Page(dt.IconList("l", 2)))

	require.Len(t, res.Root.Children, 1)
	list := res.Root.Children[0]
	assert.Equal(t, "l", list.ID)
	assert.Equal(t, widget.DirectionColumn, list.Direction)
	require.Len(t, list.Children, 2)

	item := list.Children[0]
	assert.Equal(t, widget.DirectionRow, item.Direction)
	require.Len(t, item.Widgets, 2)
	assert.Equal(t, widget.KindIcon, item.Widgets[0].Kind)
	assert.Equal(t, widget.KindTextEditor, item.Widgets[1].Kind)
	assert.Equal(t, "Perk number 1", item.Widgets[1].Content)
}

func TestBuild_ButtonExtractor(t *testing.T) {
	hero := dt.Hero("h")
	res := build(t, dt.Page(hero))

	var button *widget.Widget
	res.Root.Walk(nil, func(w widget.Widget) {
		if w.Kind == widget.KindButton {
			cp := w
			button = &cp
		}
	})
	require.NotNil(t, button)
	assert.Equal(t, "Get started", button.Content)
	assert.Equal(t, "#0066ff", button.Styles[widget.StyleBackground])
	assert.Equal(t, 8.0, button.Styles["borderRadius"])
}

func TestBuild_ReadingOrderWithoutLayout(t *testing.T) {
	root := dt.Frame("root", "Page", design.LayoutNone, 0, 0, 800, 0,
		dt.Text("c", "Below", 16, 400, 0, 100),
		dt.Text("b", "Right", 16, 400, 300, 2),
		dt.Text("a", "Left", 16, 400, 0, 0),
	)
	res := build(t, root)

	var ids []string
	for _, w := range res.Root.Widgets {
		ids = append(ids, w.Styles.SourceID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	for i, w := range res.Root.Widgets {
		assert.Equal(t, i, w.Order)
	}
}

func TestBuild_AutoLayoutKeepsSourceOrder(t *testing.T) {
	root := dt.Frame("root", "Page", design.LayoutVertical, 0, 0, 800, 0,
		dt.Text("c", "Below", 16, 400, 0, 100),
		dt.Text("a", "Left", 16, 400, 0, 0),
	)
	res := build(t, root)
	require.Len(t, res.Root.Widgets, 2)
	assert.Equal(t, "c", res.Root.Widgets[0].Styles.SourceID())
}

func TestBuild_UnwrapsBoxedWrapper(t *testing.T) {
	inner := dt.Frame("inner", "c:inner-container", design.LayoutVertical, 120, 0, 1200, 400,
		dt.Text("t", "Hello", 16, 400, 0, 0),
	)
	inner.Layout.ItemSpacing = 24
	root := dt.Frame("root", "Page", design.LayoutNone, 0, 0, 1440, 400, inner)

	res := build(t, root)
	c := res.Root
	assert.Equal(t, widget.WidthBoxed, c.Width)
	assert.Equal(t, "inner", c.Styles[widget.StyleBoxedInnerSourceID])
	assert.Equal(t, 1200.0, c.Styles["boxedWidth"])
	assert.Equal(t, 24.0, c.Styles[widget.StyleGap])
	require.Len(t, c.Widgets, 1)
	assert.Equal(t, 120.0, c.Widgets[0].Bounds.X, "spliced children keep page position")
	assert.True(t, res.Consumed["inner"])
	assert.Empty(t, res.Missing(root))

	res = build(t, root, WithUnwrap(false))
	assert.Equal(t, widget.WidthFull, res.Root.Width)
}

func TestBuild_ExtractorPanicIsRescued(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	root := dt.Page(dt.Divider("d"), dt.ImageCard("c", 0, 100))

	res := build(t, root,
		WithMetrics(m),
		WithExtractor(widget.KindDivider, func(*design.Node, *widget.Widget) { panic("boom") }),
		WithExtractor(widget.KindImageBox, func(*design.Node, *widget.Widget) { panic("boom") }),
	)

	assert.Empty(t, res.Missing(root))
	require.Len(t, res.Root.Widgets, 1)
	assert.Equal(t, widget.KindDivider, res.Root.Widgets[0].Kind)
	assert.Equal(t, true, res.Root.Widgets[0].Meta["rescued"])

	require.Len(t, res.Root.Children, 1)
	rescued := res.Root.Children[0]
	assert.Equal(t, widget.RoleRescued, rescued.Role)
	assert.Equal(t, "c", rescued.ID)
	assert.Len(t, rescued.Widgets, 3)

	var warnings, infos int
	for _, is := range res.Issues {
		switch is.Severity {
		case decision.SeverityWarning:
			warnings++
		case decision.SeverityInfo:
			infos++
		}
	}
	assert.Equal(t, 2, warnings)
	assert.GreaterOrEqual(t, infos, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RescuedNodesTotal))
}

func TestBuild_CustomExtractor(t *testing.T) {
	res := build(t, dt.Page(dt.Divider("d")),
		WithExtractor(widget.KindDivider, func(n *design.Node, w *widget.Widget) {
			w.Content = "rule:" + n.ID
		}))
	require.Len(t, res.Root.Widgets, 1)
	assert.Equal(t, "rule:d", res.Root.Widgets[0].Content)
}

func TestBuild_Errors(t *testing.T) {
	_, err := New(nil).Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRoot)

	dup := dt.Page(dt.Divider("same"), dt.Divider("same"))
	_, err = New(nil).Build(context.Background(), dup)
	assert.ErrorIs(t, err, design.ErrDuplicateID)

	anon := dt.Page(dt.Divider("d"), &design.Node{Type: design.TypeText, Text: &design.TextStyle{Characters: "x"}})
	_, err = New(nil).Build(context.Background(), anon)
	assert.ErrorIs(t, err, design.ErrMissingID)
}

func TestBuild_RecordsAnalyses(t *testing.T) {
	res := build(t, dt.Page(dt.Divider("d"), dt.Text("t", "Hello", 16, 400, 0, 10)))
	require.Len(t, res.Analyses, 2)
	assert.Equal(t, "d", res.Analyses[0].NodeID)
	assert.Equal(t, decision.MethodHeuristic, res.Analyses[0].Method)
	assert.Equal(t, decision.MethodFallback, res.Analyses[1].Method)
}

func TestBuild_Span(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	build(t, dt.Page(dt.Divider("d")), WithTracer(tel.Tracer("test")))

	tel.AssertSpanExists(t, "builder.Build")
	tel.AssertSpanAttribute(t, "builder.Build", "nodes.classified", int64(1))
}
