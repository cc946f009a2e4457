package composite

import (
	"math"

	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// card matches a column of one visual, one heading, an optional body and
// an optional button.
func (p *Processor) card(c widget.Container) (widget.Widget, bool) {
	if c.Direction != widget.DirectionColumn || len(c.Children) > 0 {
		return widget.Widget{}, false
	}
	if len(c.Widgets) < p.cfg.MinCardChildren {
		return widget.Widget{}, false
	}

	var visual, heading, body, button *widget.Widget
	for i := range c.Widgets {
		w := &c.Widgets[i]
		switch w.Kind {
		case widget.KindImage, widget.KindIcon:
			if visual != nil {
				return widget.Widget{}, false
			}
			visual = w
		case widget.KindHeading:
			if heading != nil {
				return widget.Widget{}, false
			}
			heading = w
		case widget.KindTextEditor:
			if body != nil {
				return widget.Widget{}, false
			}
			body = w
		case widget.KindButton:
			if button != nil {
				return widget.Widget{}, false
			}
			button = w
		default:
			return widget.Widget{}, false
		}
	}
	if visual == nil || heading == nil {
		return widget.Widget{}, false
	}

	kind := widget.KindIconBox
	if area := c.Bounds.Area(); area > 0 {
		if visual.Bounds.Area()/area >= p.cfg.CardImageAreaRatio {
			kind = widget.KindImageBox
		}
	} else if visual.Kind == widget.KindImage {
		kind = widget.KindImageBox
	}

	out := collapsed(c, kind, reorder(c.Widgets))
	out.Content = heading.Content
	if body != nil {
		out.Description = body.Content
	}
	out.ImageRef = visual.ImageRef
	out.IconRef = visual.IconRef
	if button != nil {
		out.Meta = map[string]any{"buttonText": button.Content}
	}
	return out, true
}

// hero matches a large row holding a text column and an image column.
func (p *Processor) hero(c widget.Container) (widget.Widget, bool) {
	if c.Direction != widget.DirectionRow || c.ItemCount() != 2 {
		return widget.Widget{}, false
	}
	if c.Bounds.Width < p.cfg.HeroMinWidth || c.Bounds.Height < p.cfg.HeroMinHeight {
		return widget.Widget{}, false
	}

	type column struct {
		order  int
		widget widget.Widget
		text   bool
		image  bool
	}
	var cols []column
	for _, ch := range c.Children {
		cols = append(cols, column{
			order:  ch.Order,
			widget: columnWidget(ch),
			text:   isTextColumn(ch),
			image:  isImageColumn(ch),
		})
	}
	for _, w := range c.Widgets {
		if w.Kind != widget.KindImage {
			return widget.Widget{}, false
		}
		col := widget.Widget{
			Kind:     widget.KindColumn,
			Order:    w.Order,
			Bounds:   w.Bounds,
			Styles:   widget.Style{},
			Children: []widget.Widget{withOrder(w, 0)},
		}
		cols = append(cols, column{order: w.Order, widget: col, image: true})
	}
	if len(cols) != 2 {
		return widget.Widget{}, false
	}
	if cols[0].order > cols[1].order {
		cols[0], cols[1] = cols[1], cols[0]
	}

	var textSide string
	switch {
	case cols[0].text && cols[1].image:
		textSide = "left"
	case cols[0].image && cols[1].text:
		textSide = "right"
	default:
		return widget.Widget{}, false
	}

	out := collapsed(c, widget.KindHero, []widget.Widget{
		withOrder(cols[0].widget, 0),
		withOrder(cols[1].widget, 1),
	})
	out.Meta = map[string]any{"textSide": textSide}
	for _, col := range cols {
		if !col.text {
			continue
		}
		for _, w := range col.widget.Children {
			switch w.Kind {
			case widget.KindHeading:
				if out.Content == "" {
					out.Content = w.Content
				}
			case widget.KindTextEditor:
				if out.Description == "" {
					out.Description = w.Content
				}
			}
		}
	}
	return out, true
}

// list matches a stack of uniform icon+text rows.
func (p *Processor) list(c widget.Container) (widget.Widget, bool) {
	if len(c.Widgets) > 0 || len(c.Children) < p.cfg.ListMinItems {
		return widget.Widget{}, false
	}
	items := make([]widget.Widget, 0, len(c.Children))
	for i, row := range c.Children {
		icon, text, ok := p.listRow(row)
		if !ok {
			return widget.Widget{}, false
		}
		items = append(items, widget.Widget{
			Kind:     widget.KindListItem,
			Content:  text.Content,
			IconRef:  icon.IconRef,
			ImageRef: icon.ImageRef,
			Order:    i,
			Bounds:   row.Bounds,
			Styles:   row.Styles.Clone(),
			Children: reorder(row.Widgets),
		})
	}
	return collapsed(c, widget.KindIconList, items), true
}

func (p *Processor) listRow(row widget.Container) (icon, text widget.Widget, ok bool) {
	if row.Direction != widget.DirectionRow || len(row.Children) > 0 || len(row.Widgets) != 2 {
		return icon, text, false
	}
	var haveIcon, haveText bool
	for _, w := range row.Widgets {
		switch {
		case w.Kind == widget.KindIcon,
			w.Kind == widget.KindImage && math.Max(w.Bounds.Width, w.Bounds.Height) <= p.cfg.ListIconMaxSide:
			icon, haveIcon = w, true
		case w.Kind.IsText():
			text, haveText = w, true
		}
	}
	return icon, text, haveIcon && haveText
}

// cardGrid marks c when every child container collapsed into a card. It
// reports whether c was marked.
func (p *Processor) cardGrid(c *widget.Container) bool {
	if len(c.Children) > 0 || len(c.Widgets) < p.cfg.GridMinCards {
		return false
	}
	for _, w := range c.Widgets {
		if w.Meta[MetaPattern] != PatternCard {
			return false
		}
	}
	c.Role = widget.RoleCardGrid
	if c.Styles == nil {
		c.Styles = widget.Style{}
	}
	columns := len(c.Widgets)
	if c.Direction == widget.DirectionColumn {
		columns = 1
	}
	c.Styles[widget.StyleColumns] = columns
	return true
}

func columnWidget(c widget.Container) widget.Widget {
	return widget.Widget{
		Kind:     widget.KindColumn,
		Order:    c.Order,
		Bounds:   c.Bounds,
		Styles:   c.Styles.Clone(),
		Children: reorder(c.Widgets),
	}
}

func isTextColumn(c widget.Container) bool {
	if len(c.Children) > 0 {
		return false
	}
	var heading, support bool
	for _, w := range c.Widgets {
		switch w.Kind {
		case widget.KindHeading:
			heading = true
		case widget.KindTextEditor, widget.KindButton:
			support = true
		case widget.KindImage:
			return false
		}
	}
	return heading && support
}

func isImageColumn(c widget.Container) bool {
	if len(c.Children) > 0 || len(c.Widgets) == 0 {
		return false
	}
	for _, w := range c.Widgets {
		if w.Kind != widget.KindImage {
			return false
		}
	}
	return true
}

func withOrder(w widget.Widget, order int) widget.Widget {
	w.Order = order
	return w
}
