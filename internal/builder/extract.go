package builder

import (
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/design"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// Extractor fills a widget's content from its source node. w arrives with
// Kind, Order, Bounds and the source styles already set. An extractor must
// not modify n.
type Extractor func(n *design.Node, w *widget.Widget)

// DefaultExtractors returns the built-in extractor per kind. Kinds without
// an entry use GenericExtractor.
func DefaultExtractors() map[widget.Kind]Extractor {
	return map[widget.Kind]Extractor{
		widget.KindHeading:          TextExtractor,
		widget.KindTextEditor:       TextExtractor,
		widget.KindProductTitle:     TextExtractor,
		widget.KindProductPrice:     TextExtractor,
		widget.KindButton:           ButtonExtractor,
		widget.KindCallToAction:     ButtonExtractor,
		widget.KindProductAddToCart: ButtonExtractor,
		widget.KindImage:            ImageExtractor,
		widget.KindProductImage:     ImageExtractor,
		widget.KindIcon:             IconExtractor,
		widget.KindImageBox:         BoxExtractor,
		widget.KindIconBox:          BoxExtractor,
		widget.KindIconList:         ListExtractor,
		widget.KindImageCarousel:    SlidesExtractor,
		widget.KindGallery:          SlidesExtractor,
		widget.KindDivider:          DividerExtractor,
		widget.KindSpacer:           SpacerExtractor,
	}
}

// TextExtractor takes the node's characters, or the joined text of its
// descendants, and the typography of the largest run.
func TextExtractor(n *design.Node, w *widget.Widget) {
	texts := textNodes(n)
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if s := strings.TrimSpace(t.Characters()); s != "" {
			parts = append(parts, s)
		}
	}
	w.Content = strings.Join(parts, " ")
	if t := largestText(texts); t != nil {
		typography(t, w.Styles)
	}
}

// ButtonExtractor takes the first text as label and the first vector as
// icon.
func ButtonExtractor(n *design.Node, w *widget.Widget) {
	if t := first(n, isText); t != nil {
		w.Content = strings.TrimSpace(t.Characters())
		typography(t, w.Styles)
	}
	if v := first(n, isVector); v != nil {
		w.IconRef = v.ID
	}
	paint(n, w.Styles)
}

// ImageExtractor takes the image reference of the node or its first
// image-like descendant. Nodes without a ref fall back to their id.
func ImageExtractor(n *design.Node, w *widget.Widget) {
	if img := first(n, (*design.Node).IsImageLike); img != nil {
		w.ImageRef = imageRef(img)
	} else {
		w.ImageRef = n.ID
	}
	if t := first(n, isText); t != nil {
		w.Description = strings.TrimSpace(t.Characters())
	}
}

// IconExtractor references the vector to export.
func IconExtractor(n *design.Node, w *widget.Widget) {
	if v := first(n, isVector); v != nil {
		w.IconRef = v.ID
	} else {
		w.IconRef = n.ID
	}
	paint(n, w.Styles)
}

// BoxExtractor builds an image-box or icon-box: one visual, the largest
// text as title, the other texts as description. Every visible leaf is
// also carried as a nested widget, the title as a heading.
func BoxExtractor(n *design.Node, w *widget.Widget) {
	if img := first(n, (*design.Node).IsImageLike); img != nil && w.Kind == widget.KindImageBox {
		w.ImageRef = imageRef(img)
	} else if v := first(n, isVector); v != nil {
		w.IconRef = v.ID
	} else if img != nil {
		w.ImageRef = imageRef(img)
	}

	texts := textNodes(n)
	title := largestText(texts)
	var desc []string
	for _, t := range texts {
		if t == title {
			continue
		}
		if s := strings.TrimSpace(t.Characters()); s != "" {
			desc = append(desc, s)
		}
	}
	if title != nil {
		w.Content = strings.TrimSpace(title.Characters())
	}
	w.Description = strings.Join(desc, " ")

	w.Children = leafWidgets(n, w.Bounds.X, w.Bounds.Y, nil)
	if title == nil {
		return
	}
	for i := range w.Children {
		if w.Children[i].Styles.SourceID() == title.ID {
			w.Children[i].Kind = widget.KindHeading
		}
	}
}

// ListExtractor turns each visible child into a list-item with its text
// and icon. The item's leaves are nested under it.
func ListExtractor(n *design.Node, w *widget.Widget) {
	for i, c := range n.VisibleChildren() {
		item := widget.Widget{
			Kind:   widget.KindListItem,
			Order:  i,
			Bounds: widget.Rect{X: w.Bounds.X + c.X, Y: w.Bounds.Y + c.Y, Width: c.Width, Height: c.Height},
			Styles: sourceStyles(c),
		}
		var parts []string
		for _, t := range textNodes(c) {
			if s := strings.TrimSpace(t.Characters()); s != "" {
				parts = append(parts, s)
			}
		}
		item.Content = strings.Join(parts, " ")
		if v := first(c, isVector); v != nil {
			item.IconRef = v.ID
		} else if img := first(c, (*design.Node).IsImageLike); img != nil {
			item.ImageRef = imageRef(img)
		}
		if c.Type.Class() == design.ClassContainer {
			item.Children = leafWidgets(c, item.Bounds.X, item.Bounds.Y, nil)
		}
		w.Children = append(w.Children, item)
	}
}

// SlidesExtractor builds one image widget per image-like descendant.
func SlidesExtractor(n *design.Node, w *widget.Widget) {
	i := 0
	walkVisible(n, w.Bounds.X-n.X, w.Bounds.Y-n.Y, func(c *design.Node, x, y float64) bool {
		if c == n || !c.IsImageLike() {
			return true
		}
		w.Children = append(w.Children, widget.Widget{
			Kind:     widget.KindImage,
			ImageRef: imageRef(c),
			Order:    i,
			Bounds:   widget.Rect{X: x, Y: y, Width: c.Width, Height: c.Height},
			Styles:   sourceStyles(c),
		})
		i++
		return false
	})
	if first(n, isText) != nil {
		w.Description = strings.TrimSpace(first(n, isText).Characters())
	}
}

// DividerExtractor records the line weight and color.
func DividerExtractor(n *design.Node, w *widget.Widget) {
	w.Styles["weight"] = math.Min(n.Width, n.Height)
	paint(n, w.Styles)
}

// SpacerExtractor records the gap the spacer stands for.
func SpacerExtractor(n *design.Node, w *widget.Widget) {
	w.Styles["space"] = n.Height
}

// GenericExtractor takes the first text and image and carries the node's
// visible leaves as nested widgets.
func GenericExtractor(n *design.Node, w *widget.Widget) {
	if n.Type == design.TypeText {
		TextExtractor(n, w)
		return
	}
	if t := first(n, isText); t != nil {
		w.Content = strings.TrimSpace(t.Characters())
	}
	if img := first(n, (*design.Node).IsImageLike); img != nil {
		w.ImageRef = imageRef(img)
	}
	paint(n, w.Styles)
	w.Children = leafWidgets(n, w.Bounds.X, w.Bounds.Y, nil)
}

// leafWidgets returns a fallback widget for every visible non-container
// descendant of n accepted by keep. x, y is n's absolute position.
func leafWidgets(n *design.Node, x, y float64, keep func(*design.Node) bool) []widget.Widget {
	var out []widget.Widget
	walkVisible(n, x-n.X, y-n.Y, func(c *design.Node, cx, cy float64) bool {
		if c == n || c.Type.Class() == design.ClassContainer {
			return true
		}
		if keep == nil || keep(c) {
			out = append(out, leafWidget(c, len(out), widget.Rect{X: cx, Y: cy, Width: c.Width, Height: c.Height}))
		}
		return false
	})
	return out
}

// leafWidget classifies a single leaf by shape alone.
func leafWidget(n *design.Node, order int, bounds widget.Rect) widget.Widget {
	kind, _ := decision.FallbackKind(n)
	w := widget.Widget{Kind: kind, Order: order, Bounds: bounds, Styles: sourceStyles(n)}
	switch kind {
	case widget.KindTextEditor:
		w.Content = strings.TrimSpace(n.Characters())
		typography(n, w.Styles)
	case widget.KindImage:
		w.ImageRef = imageRef(n)
	case widget.KindIcon, widget.KindDivider:
		w.IconRef = n.ID
		paint(n, w.Styles)
	}
	return w
}

// walkVisible visits n and its visible descendants with absolute
// positions, given the absolute origin of n's parent. Returning false
// skips the node's children.
func walkVisible(n *design.Node, originX, originY float64, fn func(n *design.Node, x, y float64) bool) {
	if !n.Visible() {
		return
	}
	x, y := originX+n.X, originY+n.Y
	if !fn(n, x, y) {
		return
	}
	for _, c := range n.Children {
		walkVisible(c, x, y, fn)
	}
}

func first(n *design.Node, match func(*design.Node) bool) *design.Node {
	var found *design.Node
	walkVisible(n, 0, 0, func(c *design.Node, _, _ float64) bool {
		if found != nil {
			return false
		}
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func textNodes(n *design.Node) []*design.Node {
	var out []*design.Node
	walkVisible(n, 0, 0, func(c *design.Node, _, _ float64) bool {
		if c.Type == design.TypeText {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}

// largestText returns the run with the largest font, the first on ties.
func largestText(texts []*design.Node) *design.Node {
	var best *design.Node
	for _, t := range texts {
		if best == nil || fontSize(t) > fontSize(best) {
			best = t
		}
	}
	return best
}

func fontSize(n *design.Node) float64 {
	if n.Text == nil {
		return 0
	}
	return n.Text.FontSize
}

func isText(n *design.Node) bool { return n.Type == design.TypeText }

func isVector(n *design.Node) bool { return n.Type.IsVector() }

func imageRef(n *design.Node) string {
	if p, ok := n.ImageFill(); ok && p.ImageRef != "" {
		return p.ImageRef
	}
	return n.ID
}

func sourceStyles(n *design.Node) widget.Style {
	return widget.Style{
		widget.StyleSourceID:   n.ID,
		widget.StyleSourceName: n.Name,
	}
}

func typography(n *design.Node, s widget.Style) {
	if n.Text == nil {
		return
	}
	if n.Text.FontSize > 0 {
		s["fontSize"] = n.Text.FontSize
	}
	if n.Text.FontWeight > 0 {
		s["fontWeight"] = n.Text.FontWeight
	}
	if n.Text.FontFamily != "" {
		s["fontFamily"] = n.Text.FontFamily
	}
	if n.Text.TextAlign != "" {
		s["textAlign"] = strings.ToLower(n.Text.TextAlign)
	}
	if p, ok := n.SolidFill(); ok {
		s["color"] = hexColor(p.Color)
	}
}

func paint(n *design.Node, s widget.Style) {
	if n.Type != design.TypeText {
		if p, ok := n.SolidFill(); ok {
			s[widget.StyleBackground] = hexColor(p.Color)
		}
	}
	if len(n.ActiveStrokes()) > 0 {
		s[widget.StyleBorder] = true
	}
	if n.CornerRadius > 0 {
		s["borderRadius"] = n.CornerRadius
	}
}

func hexColor(c design.Color) string {
	ch := func(v float64) int { return int(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	if c.A > 0 && c.A < 1 {
		return fmt.Sprintf("#%02x%02x%02x%02x", ch(c.R), ch(c.G), ch(c.B), ch(c.A))
	}
	return fmt.Sprintf("#%02x%02x%02x", ch(c.R), ch(c.G), ch(c.B))
}
