package composite

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/figclass/internal/builder"
	dt "github.com/fyrsmithlabs/figclass/internal/design/designtest"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

func leaf(kind widget.Kind, id, content string, order int, r widget.Rect) widget.Widget {
	return widget.Widget{
		Kind:    kind,
		Content: content,
		Order:   order,
		Bounds:  r,
		Styles:  widget.Style{widget.StyleSourceID: id},
	}
}

func box(id string, dir widget.Direction, order int, r widget.Rect, widgets ...widget.Widget) widget.Container {
	return widget.Container{
		ID:        id,
		Direction: dir,
		Width:     widget.WidthFull,
		Order:     order,
		Bounds:    r,
		Styles:    widget.Style{widget.StyleSourceID: id},
		Widgets:   widgets,
	}
}

func iconCard(id string, order int) widget.Container {
	return box(id, widget.DirectionColumn, order, widget.Rect{Width: 300, Height: 260},
		leaf(widget.KindIcon, id+"/icon", "", 0, widget.Rect{Width: 40, Height: 40}),
		leaf(widget.KindHeading, id+"/title", "Secure checkout", 1, widget.Rect{Y: 60, Width: 200, Height: 30}),
		leaf(widget.KindTextEditor, id+"/body", "Encrypted end to end", 2, widget.Rect{Y: 100, Width: 200, Height: 20}),
	)
}

func imageCard(id string, order int) widget.Container {
	img := leaf(widget.KindImage, id+"/img", "", 0, widget.Rect{Width: 300, Height: 180})
	img.ImageRef = "img-" + id
	return box(id, widget.DirectionColumn, order, widget.Rect{Width: 300, Height: 320},
		img,
		leaf(widget.KindHeading, id+"/title", "Fast Delivery", 1, widget.Rect{Y: 196, Width: 200, Height: 30}),
		leaf(widget.KindTextEditor, id+"/body", "Ships same day", 2, widget.Rect{Y: 240, Width: 200, Height: 20}),
		leaf(widget.KindButton, id+"/cta", "Order now", 3, widget.Rect{Y: 270, Width: 120, Height: 40}),
	)
}

func iconList(id string, n int) widget.Container {
	list := box(id, widget.DirectionColumn, 0, widget.Rect{Width: 400, Height: float64(n) * 40})
	for i := 0; i < n; i++ {
		item := fmt.Sprintf("%s/item%d", id, i)
		icon := leaf(widget.KindIcon, item+"/icon", "", 0, widget.Rect{Width: 24, Height: 24})
		icon.IconRef = "check"
		list.Children = append(list.Children, box(item, widget.DirectionRow, i, widget.Rect{Y: float64(i) * 40, Width: 400, Height: 32},
			icon,
			leaf(widget.KindTextEditor, item+"/label", fmt.Sprintf("Perk number %d", i+1), 1, widget.Rect{X: 36, Width: 120, Height: 22}),
		))
	}
	return list
}

func heroRow(id string, imageLeft bool) widget.Container {
	text := box(id+"/text", widget.DirectionColumn, 0, widget.Rect{Width: 640, Height: 600},
		leaf(widget.KindHeading, id+"/title", "Build pages faster", 0, widget.Rect{Width: 500, Height: 67}),
		leaf(widget.KindTextEditor, id+"/body", "Turn any design into a page.", 1, widget.Rect{Y: 140, Width: 500, Height: 50}),
		leaf(widget.KindButton, id+"/cta", "Get started", 2, widget.Rect{Y: 420, Width: 160, Height: 48}),
	)
	img := leaf(widget.KindImage, id+"/media", "", 1, widget.Rect{X: 640, Width: 640, Height: 600})
	img.ImageRef = "hero-shot"
	if imageLeft {
		text.Order = 1
		img.Order = 0
	}
	row := box(id, widget.DirectionRow, 0, widget.Rect{Width: 1280, Height: 600}, img)
	row.Children = []widget.Container{text}
	return row
}

func page(children ...widget.Container) widget.Container {
	root := box("0:1", widget.DirectionColumn, 0, widget.Rect{Width: 1440})
	for i := range children {
		children[i].Order = i
	}
	root.Children = children
	return root
}

func sourceIDs(c widget.Container) map[string]bool {
	out := map[string]bool{}
	for _, id := range c.SourceIDs() {
		out[id] = true
	}
	return out
}

func TestApply_IconCard(t *testing.T) {
	out := New(DefaultConfig()).Apply(page(iconCard("c", 0)))

	assert.Empty(t, out.Children)
	require.Len(t, out.Widgets, 1)
	w := out.Widgets[0]
	assert.Equal(t, widget.KindIconBox, w.Kind)
	assert.Equal(t, "Secure checkout", w.Content)
	assert.Equal(t, "Encrypted end to end", w.Description)
	assert.Equal(t, PatternCard, w.Meta[MetaPattern])
	assert.Equal(t, "c", w.Styles.SourceID())
	require.Len(t, w.Children, 3)
	assert.Equal(t, widget.KindIcon, w.Children[0].Kind)
}

func TestApply_ImageCard(t *testing.T) {
	out := New(DefaultConfig()).Apply(page(imageCard("c", 0)))

	require.Len(t, out.Widgets, 1)
	w := out.Widgets[0]
	assert.Equal(t, widget.KindImageBox, w.Kind)
	assert.Equal(t, "img-c", w.ImageRef)
	assert.Equal(t, "Order now", w.Meta["buttonText"])
	assert.Len(t, w.Children, 4)
}

func TestApply_CardRejected(t *testing.T) {
	tests := []struct {
		name string
		c    widget.Container
	}{
		{
			name: "no visual",
			c: box("c", widget.DirectionColumn, 0, widget.Rect{Width: 300, Height: 200},
				leaf(widget.KindHeading, "h", "Title", 0, widget.Rect{}),
				leaf(widget.KindTextEditor, "t", "Body", 1, widget.Rect{}),
			),
		},
		{
			name: "two headings",
			c: box("c", widget.DirectionColumn, 0, widget.Rect{Width: 300, Height: 200},
				leaf(widget.KindIcon, "i", "", 0, widget.Rect{}),
				leaf(widget.KindHeading, "h1", "One", 1, widget.Rect{}),
				leaf(widget.KindHeading, "h2", "Two", 2, widget.Rect{}),
			),
		},
		{
			name: "row direction",
			c: box("c", widget.DirectionRow, 0, widget.Rect{Width: 300, Height: 200},
				leaf(widget.KindIcon, "i", "", 0, widget.Rect{}),
				leaf(widget.KindHeading, "h", "Title", 1, widget.Rect{}),
			),
		},
		{
			name: "foreign widget",
			c: box("c", widget.DirectionColumn, 0, widget.Rect{Width: 300, Height: 200},
				leaf(widget.KindIcon, "i", "", 0, widget.Rect{}),
				leaf(widget.KindHeading, "h", "Title", 1, widget.Rect{}),
				leaf(widget.KindDivider, "d", "", 2, widget.Rect{}),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(DefaultConfig()).Apply(page(tt.c))
			require.Len(t, out.Children, 1)
			assert.Empty(t, out.Widgets)
		})
	}
}

func TestApply_IconList(t *testing.T) {
	out := New(DefaultConfig()).Apply(page(iconList("l", 4)))

	require.Len(t, out.Widgets, 1)
	w := out.Widgets[0]
	assert.Equal(t, widget.KindIconList, w.Kind)
	assert.Equal(t, PatternList, w.Meta[MetaPattern])
	require.Len(t, w.Children, 4)
	for i, item := range w.Children {
		assert.Equal(t, widget.KindListItem, item.Kind)
		assert.Equal(t, i, item.Order)
		assert.Equal(t, fmt.Sprintf("Perk number %d", i+1), item.Content)
		assert.Equal(t, "check", item.IconRef)
		assert.Len(t, item.Children, 2)
	}
}

func TestApply_ListBelowMinimum(t *testing.T) {
	out := New(DefaultConfig()).Apply(page(iconList("l", 1)))

	require.Len(t, out.Children, 1)
	assert.Empty(t, out.Widgets)
}

func TestApply_Hero(t *testing.T) {
	tests := []struct {
		name      string
		imageLeft bool
		textSide  string
	}{
		{"text left", false, "left"},
		{"text right", true, "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(DefaultConfig()).Apply(page(heroRow("h", tt.imageLeft)))

			require.Len(t, out.Widgets, 1)
			w := out.Widgets[0]
			assert.Equal(t, widget.KindHero, w.Kind)
			assert.Equal(t, tt.textSide, w.Meta["textSide"])
			assert.Equal(t, "Build pages faster", w.Content)
			require.Len(t, w.Children, 2)
			for i, col := range w.Children {
				assert.Equal(t, widget.KindColumn, col.Kind)
				assert.Equal(t, i, col.Order)
			}
		})
	}
}

func TestApply_HeroTooSmall(t *testing.T) {
	row := heroRow("h", false)
	row.Bounds.Width = 800

	out := New(DefaultConfig()).Apply(page(row))

	require.Len(t, out.Children, 1)
	assert.Empty(t, out.Widgets)
}

func TestApply_CardGrid(t *testing.T) {
	grid := box("g", widget.DirectionRow, 0, widget.Rect{Width: 960, Height: 260})
	for i := 0; i < 3; i++ {
		grid.Children = append(grid.Children, iconCard(fmt.Sprintf("g/card%d", i), i))
	}

	out := New(DefaultConfig()).Apply(page(grid))

	require.Len(t, out.Children, 1)
	g := out.Children[0]
	assert.Equal(t, "g", g.ID)
	assert.Equal(t, widget.RoleCardGrid, g.Role)
	assert.Equal(t, 3, g.Styles[widget.StyleColumns])
	assert.Empty(t, g.Children)
	require.Len(t, g.Widgets, 3)
	for i, w := range g.Widgets {
		assert.Equal(t, widget.KindIconBox, w.Kind)
		assert.Equal(t, i, w.Order)
	}
}

func TestApply_CollapsedWidgetKeepsOrder(t *testing.T) {
	divider := leaf(widget.KindDivider, "d", "", 0, widget.Rect{})
	heading := leaf(widget.KindHeading, "h", "Title", 2, widget.Rect{})
	root := page()
	root.Widgets = []widget.Widget{divider, heading}
	root.Children = []widget.Container{iconCard("c", 1)}

	out := New(DefaultConfig()).Apply(root)

	require.Len(t, out.Widgets, 3)
	assert.Equal(t, widget.KindDivider, out.Widgets[0].Kind)
	assert.Equal(t, widget.KindIconBox, out.Widgets[1].Kind)
	assert.Equal(t, widget.KindHeading, out.Widgets[2].Kind)
}

func TestApply_Containment(t *testing.T) {
	grid := box("g", widget.DirectionRow, 0, widget.Rect{Width: 960, Height: 260},
		leaf(widget.KindDivider, "g/d", "", 3, widget.Rect{}))
	for i := 0; i < 3; i++ {
		grid.Children = append(grid.Children, iconCard(fmt.Sprintf("g/card%d", i), i))
	}
	in := page(imageCard("a", 0), iconList("l", 3), heroRow("h", false), grid)

	out := New(DefaultConfig()).Apply(in)

	assert.Equal(t, sourceIDs(in), sourceIDs(out))
}

func TestApply_Pure(t *testing.T) {
	in := page(iconCard("c", 0), iconList("l", 3))
	before := in.Clone()

	_ = New(DefaultConfig()).Apply(in)

	assert.Equal(t, before, in)
}

func TestApply_RootKeepsIdentity(t *testing.T) {
	root := iconCard("root", 0)

	out := New(DefaultConfig()).Apply(root)

	assert.Equal(t, "root", out.ID)
	assert.Empty(t, out.Children)
	require.Len(t, out.Widgets, 1)
	w := out.Widgets[0]
	assert.Equal(t, widget.KindIconBox, w.Kind)
	assert.Empty(t, w.Styles.SourceID())
	assert.Len(t, w.Children, 3)
	assert.ElementsMatch(t, root.SourceIDs(), out.SourceIDs())
}

func TestApply_MotifDirectlyUnderRoot(t *testing.T) {
	tests := []struct {
		name    string
		root    widget.Container
		kind    widget.Kind
		pattern string
		items   int
	}{
		{
			name:    "rows of a list",
			root:    page(iconList("l", 4).Children...),
			kind:    widget.KindIconList,
			pattern: PatternList,
			items:   4,
		},
		{
			name:    "hero page",
			root:    heroRow("h", false),
			kind:    widget.KindHero,
			pattern: PatternHero,
			items:   2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New(DefaultConfig()).Apply(tt.root)

			assert.Equal(t, tt.root.ID, out.ID)
			assert.Empty(t, out.Children)
			require.Len(t, out.Widgets, 1)
			w := out.Widgets[0]
			assert.Equal(t, tt.kind, w.Kind)
			assert.Equal(t, tt.pattern, w.Meta[MetaPattern])
			assert.Len(t, w.Children, tt.items)
			assert.ElementsMatch(t, tt.root.SourceIDs(), out.SourceIDs())
		})
	}
}

func TestApply_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	in := page(iconCard("c", 0))

	out := New(cfg).Apply(in)

	assert.Equal(t, in, out)
}

func TestApply_Metrics(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	grid := box("g", widget.DirectionRow, 0, widget.Rect{Width: 640, Height: 260})
	grid.Children = []widget.Container{iconCard("g/a", 0), iconCard("g/b", 1)}

	New(DefaultConfig(), WithMetrics(m)).Apply(page(grid))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompositeRewrites.WithLabelValues(PatternCard)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompositeRewrites.WithLabelValues(PatternCardGrid)))
}

func TestApply_BuiltCardGrid(t *testing.T) {
	res, err := builder.New(nil).Build(context.Background(), dt.Page(dt.CardGrid("grid", 3)))
	require.NoError(t, err)

	out := New(DefaultConfig()).Apply(res.Root)

	require.Len(t, out.Children, 1)
	g := out.Children[0]
	assert.Equal(t, widget.RoleCardGrid, g.Role)
	require.Len(t, g.Widgets, 3)
	for _, w := range g.Widgets {
		assert.Equal(t, widget.KindIconBox, w.Kind)
		assert.Equal(t, "Secure checkout", w.Content)
	}
	assert.Equal(t, sourceIDs(res.Root), sourceIDs(out))
}
