package widget

// Direction is the main axis of a container.
type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

// Width is the horizontal sizing policy of a container.
type Width string

const (
	WidthFull  Width = "full"
	WidthBoxed Width = "boxed"
)

// Container roles set by post-processing.
const (
	RoleCardGrid = "card-grid"
	RoleSection  = "section"
	RoleRescued  = "rescued"
)

// Style keys with a fixed meaning.
const (
	StyleSourceID           = "sourceId"
	StyleSourceName         = "sourceName"
	StyleBoxedInnerSourceID = "boxedInnerSourceId"
	StyleGap                = "gap"
	StylePadding            = "padding"
	StyleJustify            = "justifyContent"
	StyleAlign              = "alignItems"
	StyleBackground         = "background"
	StyleBorder             = "border"
	StyleColumns            = "columns"
)

// Style is the open property bag attached to output nodes.
type Style map[string]any

// SourceID returns the id of the source node this output node came from.
func (s Style) SourceID() string {
	v, _ := s[StyleSourceID].(string)
	return v
}

// Clone returns a shallow copy of the bag.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Rect is a node's frame relative to the page.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Area returns width times height.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Container is a structural layout box in the output schema.
type Container struct {
	ID        string      `json:"id" yaml:"id"`
	Direction Direction   `json:"direction" yaml:"direction"`
	Width     Width       `json:"width" yaml:"width"`
	Role      string      `json:"role,omitempty" yaml:"role,omitempty"`
	Order     int         `json:"order" yaml:"order"`
	Bounds    Rect        `json:"bounds" yaml:"bounds"`
	Styles    Style       `json:"styles" yaml:"styles"`
	Widgets   []Widget    `json:"widgets" yaml:"widgets"`
	Children  []Container `json:"children" yaml:"children"`
}

// Widget is a classified leaf, or a composite carrying nested widgets.
type Widget struct {
	Kind        Kind           `json:"type" yaml:"type"`
	Content     string         `json:"content,omitempty" yaml:"content,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	ImageRef    string         `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
	IconRef     string         `json:"iconRef,omitempty" yaml:"iconRef,omitempty"`
	Order       int            `json:"order" yaml:"order"`
	Bounds      Rect           `json:"bounds" yaml:"bounds"`
	Styles      Style          `json:"styles" yaml:"styles"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Children    []Widget       `json:"children,omitempty" yaml:"children,omitempty"`
}

// Page describes the document the schema was built from.
type Page struct {
	Title string `json:"title" yaml:"title"`
}

// Schema is the durable output artifact.
type Schema struct {
	Page       Page        `json:"page" yaml:"page"`
	Containers []Container `json:"containers" yaml:"containers"`
}

// Clone returns a deep copy of the container tree.
func (c Container) Clone() Container {
	out := c
	out.Styles = c.Styles.Clone()
	if c.Widgets != nil {
		out.Widgets = make([]Widget, len(c.Widgets))
		for i, w := range c.Widgets {
			out.Widgets[i] = w.Clone()
		}
	}
	if c.Children != nil {
		out.Children = make([]Container, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = ch.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the widget and its nested widgets.
func (w Widget) Clone() Widget {
	out := w
	out.Styles = w.Styles.Clone()
	if w.Meta != nil {
		out.Meta = make(map[string]any, len(w.Meta))
		for k, v := range w.Meta {
			out.Meta[k] = v
		}
	}
	if w.Children != nil {
		out.Children = make([]Widget, len(w.Children))
		for i, ch := range w.Children {
			out.Children[i] = ch.Clone()
		}
	}
	return out
}

// ItemCount returns the number of direct widgets plus child containers.
func (c Container) ItemCount() int {
	return len(c.Widgets) + len(c.Children)
}

// Walk visits every container and widget below c, including c itself.
// Nested widget children are visited after their parent widget.
func (c Container) Walk(onContainer func(Container), onWidget func(Widget)) {
	if onContainer != nil {
		onContainer(c)
	}
	for _, w := range c.Widgets {
		w.walk(onWidget)
	}
	for _, ch := range c.Children {
		ch.Walk(onContainer, onWidget)
	}
}

func (w Widget) walk(fn func(Widget)) {
	if fn != nil {
		fn(w)
	}
	for _, ch := range w.Children {
		ch.walk(fn)
	}
}

// SourceIDs returns every source id referenced by the tree, in visit order.
// Boxed wrapper ids recorded on containers are included.
func (c Container) SourceIDs() []string {
	var ids []string
	c.Walk(func(ct Container) {
		if id := ct.Styles.SourceID(); id != "" {
			ids = append(ids, id)
		}
		if id, ok := ct.Styles[StyleBoxedInnerSourceID].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}, func(w Widget) {
		if id := w.Styles.SourceID(); id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}
