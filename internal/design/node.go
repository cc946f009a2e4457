package design

import "strings"

// NodeType is the source node type as reported by the design tool.
type NodeType string

const (
	TypeFrame            NodeType = "FRAME"
	TypeGroup            NodeType = "GROUP"
	TypeComponent        NodeType = "COMPONENT"
	TypeInstance         NodeType = "INSTANCE"
	TypeSection          NodeType = "SECTION"
	TypeText             NodeType = "TEXT"
	TypeRectangle        NodeType = "RECTANGLE"
	TypeVector           NodeType = "VECTOR"
	TypeEllipse          NodeType = "ELLIPSE"
	TypeStar             NodeType = "STAR"
	TypePolygon          NodeType = "POLYGON"
	TypeLine             NodeType = "LINE"
	TypeBooleanOperation NodeType = "BOOLEAN_OPERATION"
	TypeImage            NodeType = "IMAGE"
	TypeUnknown          NodeType = "UNKNOWN"
)

// Class is the closed variant tag of a node.
type Class int

const (
	ClassUnknown Class = iota
	ClassContainer
	ClassText
	ClassShape
	ClassImage
)

func (c Class) String() string {
	switch c {
	case ClassContainer:
		return "container"
	case ClassText:
		return "text"
	case ClassShape:
		return "shape"
	case ClassImage:
		return "image"
	default:
		return "unknown"
	}
}

// Class returns the variant tag for the node type.
func (t NodeType) Class() Class {
	switch t {
	case TypeFrame, TypeGroup, TypeComponent, TypeInstance, TypeSection:
		return ClassContainer
	case TypeText:
		return ClassText
	case TypeRectangle, TypeVector, TypeEllipse, TypeStar, TypePolygon, TypeLine, TypeBooleanOperation:
		return ClassShape
	case TypeImage:
		return ClassImage
	default:
		return ClassUnknown
	}
}

// IsVector reports whether the type is drawn as vector geometry.
// RECTANGLE is not a vector type.
func (t NodeType) IsVector() bool {
	switch t {
	case TypeVector, TypeStar, TypeEllipse, TypePolygon, TypeBooleanOperation, TypeLine:
		return true
	}
	return false
}

// IsFrameLike reports whether the type nests other nodes as a frame would.
func (t NodeType) IsFrameLike() bool {
	switch t {
	case TypeFrame, TypeGroup, TypeComponent, TypeInstance:
		return true
	}
	return false
}

func parseNodeType(s string) NodeType {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	if t.Class() == ClassUnknown {
		return TypeUnknown
	}
	return t
}

// LayoutMode is the auto-layout axis of a container.
type LayoutMode string

const (
	LayoutNone       LayoutMode = "NONE"
	LayoutHorizontal LayoutMode = "HORIZONTAL"
	LayoutVertical   LayoutMode = "VERTICAL"
)

// SizingMode is the auto-layout sizing of an axis.
type SizingMode string

const (
	SizingFixed SizingMode = "FIXED"
	SizingAuto  SizingMode = "AUTO"
)

// Layout holds auto-layout properties. The zero value means no auto layout.
type Layout struct {
	Mode          LayoutMode
	PrimarySizing SizingMode
	CounterSizing SizingMode
	PaddingTop    float64
	PaddingRight  float64
	PaddingBottom float64
	PaddingLeft   float64
	ItemSpacing   float64
	PrimaryAlign  string
	CounterAlign  string
}

// Axis returns the layout mode, treating the empty value as NONE.
func (l Layout) Axis() LayoutMode {
	if l.Mode == "" {
		return LayoutNone
	}
	return l.Mode
}

// HasPadding reports whether any side has padding.
func (l Layout) HasPadding() bool {
	return l.PaddingTop > 0 || l.PaddingRight > 0 || l.PaddingBottom > 0 || l.PaddingLeft > 0
}

// PaintType identifies a fill or stroke paint.
type PaintType string

const (
	PaintSolid          PaintType = "SOLID"
	PaintImage          PaintType = "IMAGE"
	PaintGradientLinear PaintType = "GRADIENT_LINEAR"
	PaintGradientRadial PaintType = "GRADIENT_RADIAL"
)

// Color is an RGBA color with channels in [0,1].
type Color struct {
	R, G, B, A float64
}

// Paint is a single fill or stroke entry.
type Paint struct {
	Type     PaintType
	Color    Color
	Opacity  float64
	Hidden   bool
	ImageRef string
}

// Effect is a visual effect such as a drop shadow.
type Effect struct {
	Type   string
	Hidden bool
	Radius float64
}

// TextStyle holds the payload of TEXT nodes.
type TextStyle struct {
	Characters    string
	FontFamily    string
	FontStyle     string
	FontSize      float64
	FontWeight    float64
	LineHeight    float64
	LetterSpacing float64
	TextAlign     string
}

// Node is one element of the design tree.
type Node struct {
	ID           string
	Name         string
	Type         NodeType
	Hidden       bool
	X            float64
	Y            float64
	Width        float64
	Height       float64
	Layout       Layout
	Fills        []Paint
	Strokes      []Paint
	Effects      []Effect
	CornerRadius float64
	Text         *TextStyle
	Children     []*Node
}

// Visible reports whether the node is rendered.
func (n *Node) Visible() bool {
	return n != nil && !n.Hidden
}

// VisibleChildren returns the children that are rendered, in source order.
func (n *Node) VisibleChildren() []*Node {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Visible() {
			out = append(out, c)
		}
	}
	return out
}

// Characters returns the text content of a TEXT node, or "".
func (n *Node) Characters() string {
	if n == nil || n.Text == nil {
		return ""
	}
	return n.Text.Characters
}

// ActiveFills returns fills that are not hidden.
func (n *Node) ActiveFills() []Paint {
	return activePaints(n.Fills)
}

// ActiveStrokes returns strokes that are not hidden.
func (n *Node) ActiveStrokes() []Paint {
	return activePaints(n.Strokes)
}

// ImageFill returns the first visible IMAGE fill, if any.
func (n *Node) ImageFill() (Paint, bool) {
	for _, p := range n.ActiveFills() {
		if p.Type == PaintImage {
			return p, true
		}
	}
	return Paint{}, false
}

// SolidFill returns the first visible SOLID fill, if any.
func (n *Node) SolidFill() (Paint, bool) {
	for _, p := range n.ActiveFills() {
		if p.Type == PaintSolid {
			return p, true
		}
	}
	return Paint{}, false
}

// IsImageLike reports whether the node renders as a raster image.
func (n *Node) IsImageLike() bool {
	if n.Type.Class() == ClassImage {
		return true
	}
	_, ok := n.ImageFill()
	return ok
}

func activePaints(ps []Paint) []Paint {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Paint, 0, len(ps))
	for _, p := range ps {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}

// Inner wrapper names mark a single child frame that only exists to box
// its parent's content.
var innerWrapperNames = []string{"c:inner-container", "w:inner-container"}

// IsInnerWrapper reports whether the node is explicitly named as an inner
// boxing wrapper.
func (n *Node) IsInnerWrapper() bool {
	if n == nil || n.Type.Class() != ClassContainer {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(n.Name))
	for _, w := range innerWrapperNames {
		if name == w {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in source order. Returning
// false from fn skips the node's children. Walk assumes a validated tree.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}
