// Package features derives the flat NodeFeatures record that heuristic
// rules score. Extraction only looks at a node and its direct children;
// the caller supplies page context by value.
package features

import (
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/figclass/internal/design"
)

// Zone is a coarse vertical band of the page.
type Zone string

const (
	ZoneHeader Zone = "HEADER"
	ZoneHero   Zone = "HERO"
	ZoneBody   Zone = "BODY"
	ZoneFooter Zone = "FOOTER"
)

// Zone band limits in page pixels.
const (
	headerBand = 150
	footerBand = 300
	heroLimit  = 800
)

const defaultFontWeight = 400

// Context is the page-level information extraction needs.
type Context struct {
	// RootHeight is the height of the page frame. Zero disables zoning.
	RootHeight float64
	// OriginY is the absolute page y of the node's parent.
	OriginY float64
	// ParentLayout is the auto-layout axis of the parent.
	ParentLayout design.LayoutMode
	// SiblingCount is the number of children of the parent.
	SiblingCount int
}

// Features is the scored description of a single node.
type Features struct {
	ID   string
	Name string
	Type design.NodeType

	X, Y          float64
	Width, Height float64
	Area          float64
	AspectRatio   float64

	ChildCount      int
	LayoutMode      design.LayoutMode
	PrimarySizing   design.SizingMode
	CounterSizing   design.SizingMode
	HasNestedFrames bool
	HasPadding      bool
	CornerRadius    float64

	HasFill    bool
	HasStroke  bool
	HasText    bool
	HasImage   bool
	TextCount  int
	ImageCount int
	TextLength int
	FontSize   float64
	FontWeight float64

	IsVector     bool
	VectorWidth  float64
	VectorHeight float64

	ParentLayout design.LayoutMode
	SiblingCount int
	Zone         Zone
}

// Extract builds the Features for n. It never fails: missing or malformed
// properties take their zero values.
func Extract(n *design.Node, ctx Context) Features {
	f := Features{
		ID:           n.ID,
		Name:         n.Name,
		Type:         n.Type,
		X:            n.X,
		Y:            n.Y,
		Width:        nonNegative(n.Width),
		Height:       nonNegative(n.Height),
		LayoutMode:   design.LayoutNone,
		FontWeight:   defaultFontWeight,
		ParentLayout: ctx.ParentLayout,
		SiblingCount: ctx.SiblingCount,
		CornerRadius: n.CornerRadius,
	}
	if f.ParentLayout == "" {
		f.ParentLayout = design.LayoutNone
	}
	f.Area = f.Width * f.Height
	if f.Height > 0 {
		f.AspectRatio = f.Width / f.Height
	}

	children := n.VisibleChildren()
	if len(children) > 0 {
		f.ChildCount = len(children)
		f.LayoutMode = n.Layout.Axis()
		f.PrimarySizing = n.Layout.PrimarySizing
		f.CounterSizing = n.Layout.CounterSizing
		for _, c := range children {
			if c.Type.IsFrameLike() {
				f.HasNestedFrames = true
				break
			}
		}
	}
	f.HasPadding = n.Layout.HasPadding()

	if n.Type == design.TypeText {
		f.HasText = true
		f.TextCount = 1
		f.TextLength = utf8.RuneCountInString(n.Characters())
		if n.Text != nil {
			f.FontSize = nonNegative(n.Text.FontSize)
			f.FontWeight = fontWeight(n.Text)
		}
	}

	for _, p := range n.ActiveFills() {
		switch p.Type {
		case design.PaintSolid:
			f.HasFill = true
		case design.PaintImage:
			f.HasImage = true
			f.ImageCount++
		}
	}
	if n.Type == design.TypeImage {
		f.HasImage = true
		f.ImageCount++
	}
	f.HasStroke = len(n.ActiveStrokes()) > 0

	for _, c := range children {
		if c.Type == design.TypeText {
			f.HasText = true
			f.TextCount++
			f.TextLength += utf8.RuneCountInString(c.Characters())
			if c.Text != nil {
				if c.Text.FontSize > f.FontSize {
					f.FontSize = c.Text.FontSize
				}
				if w := fontWeight(c.Text); w > f.FontWeight {
					f.FontWeight = w
				}
			}
		}
		if c.IsImageLike() {
			f.HasImage = true
			f.ImageCount++
		}
	}

	if n.Type.IsVector() {
		f.IsVector = true
		f.VectorWidth = f.Width
		f.VectorHeight = f.Height
	}

	f.Zone = DetectZone(ctx.OriginY+n.Y, ctx.RootHeight)
	return f
}

// DetectZone maps an absolute page y to a zone. Without a page height every
// node is BODY.
func DetectZone(y, rootHeight float64) Zone {
	if rootHeight <= 0 {
		return ZoneBody
	}
	switch {
	case y < headerBand:
		return ZoneHeader
	case y > rootHeight-footerBand:
		return ZoneFooter
	case y < heroLimit:
		return ZoneHero
	default:
		return ZoneBody
	}
}

// fontWeight prefers the numeric weight and falls back to the style name.
func fontWeight(ts *design.TextStyle) float64 {
	if ts.FontWeight > 0 {
		return ts.FontWeight
	}
	return WeightFromStyle(ts.FontStyle)
}

// WeightFromStyle maps a font style name such as "SemiBold Italic" to a
// CSS weight.
func WeightFromStyle(style string) float64 {
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "semibold"), strings.Contains(s, "semi bold"), strings.Contains(s, "demibold"):
		return 600
	case strings.Contains(s, "extrabold"), strings.Contains(s, "black"), strings.Contains(s, "heavy"):
		return 800
	case strings.Contains(s, "bold"):
		return 700
	case strings.Contains(s, "semi"):
		return 600
	case strings.Contains(s, "medium"):
		return 500
	case strings.Contains(s, "extralight"), strings.Contains(s, "thin"):
		return 200
	case strings.Contains(s, "light"):
		return 300
	default:
		return defaultFontWeight
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
