// Package designtest builds design trees for tests.
package designtest

import (
	"fmt"

	"github.com/fyrsmithlabs/figclass/internal/design"
)

var (
	// White is an opaque white fill.
	White = design.Paint{Type: design.PaintSolid, Opacity: 1, Color: design.Color{R: 1, G: 1, B: 1, A: 1}}
	// Blue is an opaque blue fill.
	Blue = design.Paint{Type: design.PaintSolid, Opacity: 1, Color: design.Color{R: 0, G: 0.4, B: 1, A: 1}}
)

// Frame returns a frame with the given auto-layout mode.
func Frame(id, name string, mode design.LayoutMode, x, y, w, h float64, children ...*design.Node) *design.Node {
	return &design.Node{
		ID: id, Name: name, Type: design.TypeFrame,
		X: x, Y: y, Width: w, Height: h,
		Layout:   design.Layout{Mode: mode},
		Children: children,
	}
}

// Text returns a text node.
func Text(id, chars string, size, weight float64, x, y float64) *design.Node {
	return &design.Node{
		ID: id, Name: chars, Type: design.TypeText,
		X: x, Y: y, Width: float64(len(chars)) * size * 0.5, Height: size * 1.4,
		Text: &design.TextStyle{Characters: chars, FontFamily: "Inter", FontSize: size, FontWeight: weight},
	}
}

// Rect returns a rectangle with a solid fill.
func Rect(id string, x, y, w, h float64) *design.Node {
	return &design.Node{
		ID: id, Name: "Rectangle", Type: design.TypeRectangle,
		X: x, Y: y, Width: w, Height: h,
		Fills: []design.Paint{Blue},
	}
}

// ImageRect returns a rectangle with an image fill referencing ref.
func ImageRect(id, ref string, x, y, w, h float64) *design.Node {
	return &design.Node{
		ID: id, Name: "Photo", Type: design.TypeRectangle,
		X: x, Y: y, Width: w, Height: h,
		Fills: []design.Paint{{Type: design.PaintImage, Opacity: 1, ImageRef: ref}},
	}
}

// Vector returns a square filled vector.
func Vector(id string, x, y, side float64) *design.Node {
	return &design.Node{
		ID: id, Name: "Icon", Type: design.TypeVector,
		X: x, Y: y, Width: side, Height: side,
		Fills: []design.Paint{Blue},
	}
}

// Page wraps children in a vertical page frame. Height 0 keeps every node
// in the BODY zone.
func Page(children ...*design.Node) *design.Node {
	return Frame("0:1", "Page", design.LayoutVertical, 0, 0, 1440, 0, children...)
}

// ImageCard is a vertical card: image, 24px bold title, 14px body.
func ImageCard(id string, x, y float64) *design.Node {
	return Frame(id, "Feature", design.LayoutVertical, x, y, 300, 320,
		ImageRect(id+"/img", "img-"+id, 0, 0, 300, 180),
		Text(id+"/title", "Fast Delivery", 24, 700, 0, 196),
		Text(id+"/body", "Ships same day", 14, 400, 0, 240),
	)
}

// IconCard is a vertical card: 40px icon, 22px bold title, 14px body.
func IconCard(id string, x, y float64) *design.Node {
	return Frame(id, "Benefit", design.LayoutVertical, x, y, 300, 260,
		Vector(id+"/icon", 0, 0, 40),
		Text(id+"/title", "Secure checkout", 22, 700, 0, 60),
		Text(id+"/body", "Encrypted end to end", 14, 400, 0, 100),
	)
}

// CardGrid is a horizontal row of n icon cards.
func CardGrid(id string, n int) *design.Node {
	row := Frame(id, "Benefits", design.LayoutHorizontal, 0, 0, float64(n)*320, 260)
	for i := 0; i < n; i++ {
		row.Children = append(row.Children, IconCard(fmt.Sprintf("%s/card%d", id, i), float64(i)*320, 0))
	}
	return row
}

// IconList is a vertical stack of n rows, each a 24px icon and a label.
func IconList(id string, n int) *design.Node {
	list := Frame(id, "Perks", design.LayoutVertical, 0, 0, 400, float64(n)*40)
	for i := 0; i < n; i++ {
		item := Frame(fmt.Sprintf("%s/item%d", id, i), "Item", design.LayoutHorizontal, 0, float64(i)*40, 400, 32,
			Vector(fmt.Sprintf("%s/item%d/icon", id, i), 0, 4, 24),
			Text(fmt.Sprintf("%s/item%d/label", id, i), fmt.Sprintf("Perk number %d", i+1), 16, 400, 36, 6),
		)
		list.Children = append(list.Children, item)
	}
	return list
}

// Hero is a 1280x600 row: a text column (heading, paragraph, button) on
// the left and an image column on the right.
func Hero(id string) *design.Node {
	button := Frame(id+"/text/cta", "Button", design.LayoutHorizontal, 0, 420, 160, 48,
		Text(id+"/text/cta/label", "Get started", 16, 600, 24, 12),
	)
	button.Fills = []design.Paint{Blue}
	button.CornerRadius = 8

	text := Frame(id+"/text", "Copy", design.LayoutVertical, 0, 0, 640, 600,
		Text(id+"/text/title", "Build pages faster", 48, 700, 0, 120),
		Text(id+"/text/body", "Turn any design into a structured page in seconds, with every section mapped to the right widget.", 18, 400, 0, 260),
		button,
	)
	media := Frame(id+"/media", "Media", design.LayoutVertical, 640, 0, 640, 600,
		ImageRect(id+"/media/img", "hero-shot", 0, 0, 640, 600),
		ImageRect(id+"/media/img2", "hero-shot-2", 0, 300, 640, 300),
	)
	return Frame(id, "Hero", design.LayoutHorizontal, 0, 0, 1280, 600, text, media)
}

// Divider is a 200x2 bar with a misleading name.
func Divider(id string) *design.Node {
	d := Rect(id, 0, 0, 200, 2)
	d.Name = "Hero Banner"
	return d
}
