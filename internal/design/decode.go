package design

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const maxDocumentSize = 64 * 1024 * 1024

// Decode reads one design node (and its subtree) from r.
//
// Both the plugin export shape (x/y/width/height, fontName) and the REST
// shape (absoluteBoundingBox, style) are accepted. A top-level
// {"document": {...}} or {"nodes": {"id": {"document": ...}}} wrapper is
// unwrapped. Malformed optional fields default to zero values.
func Decode(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading design document: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("design document exceeds %d bytes", maxDocumentSize)
	}
	return DecodeBytes(data)
}

// DecodeFile reads a design document from path.
func DecodeFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening design document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DecodeBytes decodes a design document held in memory.
func DecodeBytes(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty design document")
	}

	var env struct {
		Document json.RawMessage `json:"document"`
		Nodes    json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding design document: %w", err)
	}

	raw := decodeRawNode(env.Document)
	if raw == nil && len(env.Nodes) > 0 {
		var nodes map[string]struct {
			Document json.RawMessage `json:"document"`
		}
		if err := json.Unmarshal(env.Nodes, &nodes); err == nil && len(nodes) == 1 {
			for _, n := range nodes {
				raw = decodeRawNode(n.Document)
			}
		}
	}
	if raw == nil {
		raw = decodeRawNode(data)
	}
	if raw == nil || (raw.ID == "" && raw.Type == "") {
		return nil, fmt.Errorf("design document has no root node")
	}
	return raw.toNode(nil), nil
}

// decodeRawNode returns nil when data is not a JSON object.
func decodeRawNode(data json.RawMessage) *rawNode {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var r rawNode
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

type rawNode struct {
	ID                    flexString      `json:"id"`
	Name                  flexString      `json:"name"`
	Type                  flexString      `json:"type"`
	Visible               flexBool        `json:"visible"`
	X                     flexFloat       `json:"x"`
	Y                     flexFloat       `json:"y"`
	Width                 flexFloat       `json:"width"`
	Height                flexFloat       `json:"height"`
	AbsoluteBoundingBox   rawBox          `json:"absoluteBoundingBox"`
	LayoutMode            flexString      `json:"layoutMode"`
	PrimaryAxisSizingMode flexString      `json:"primaryAxisSizingMode"`
	CounterAxisSizingMode flexString      `json:"counterAxisSizingMode"`
	PaddingTop            flexFloat       `json:"paddingTop"`
	PaddingRight          flexFloat       `json:"paddingRight"`
	PaddingBottom         flexFloat       `json:"paddingBottom"`
	PaddingLeft           flexFloat       `json:"paddingLeft"`
	ItemSpacing           flexFloat       `json:"itemSpacing"`
	PrimaryAxisAlignItems flexString      `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems flexString      `json:"counterAxisAlignItems"`
	Fills                 json.RawMessage `json:"fills"`
	Strokes               json.RawMessage `json:"strokes"`
	Effects               json.RawMessage `json:"effects"`
	CornerRadius          flexFloat       `json:"cornerRadius"`
	Characters            flexString      `json:"characters"`
	FontSize              flexFloat       `json:"fontSize"`
	FontWeight            flexFloat       `json:"fontWeight"`
	FontName              rawFontName     `json:"fontName"`
	LineHeight            flexFloat       `json:"lineHeight"`
	LetterSpacing         flexFloat       `json:"letterSpacing"`
	TextAlignHorizontal   flexString      `json:"textAlignHorizontal"`
	Style                 rawTypeStyle    `json:"style"`
	Children              rawChildren     `json:"children"`
}

// rawChildren skips entries that are not objects. A non-array value
// decodes to no children.
type rawChildren []*rawNode

func (c *rawChildren) UnmarshalJSON(data []byte) error {
	*c = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make(rawChildren, 0, len(items))
	for _, item := range items {
		if r := decodeRawNode(item); r != nil {
			out = append(out, r)
		}
	}
	*c = out
	return nil
}

type rawBox struct {
	X      flexFloat `json:"x"`
	Y      flexFloat `json:"y"`
	Width  flexFloat `json:"width"`
	Height flexFloat `json:"height"`

	ok bool
}

func (b *rawBox) UnmarshalJSON(data []byte) error {
	type plain rawBox
	var p plain
	if !isObject(data) || json.Unmarshal(data, &p) != nil {
		*b = rawBox{}
		return nil
	}
	*b = rawBox(p)
	b.ok = true
	return nil
}

// rawFontName ignores the figma.mixed symbol and other non-objects.
type rawFontName struct {
	Family flexString `json:"family"`
	Style  flexString `json:"style"`
}

func (f *rawFontName) UnmarshalJSON(data []byte) error {
	type plain rawFontName
	var p plain
	if !isObject(data) || json.Unmarshal(data, &p) != nil {
		*f = rawFontName{}
		return nil
	}
	*f = rawFontName(p)
	return nil
}

type rawTypeStyle struct {
	FontFamily          flexString `json:"fontFamily"`
	FontPostScriptName  flexString `json:"fontPostScriptName"`
	FontWeight          flexFloat  `json:"fontWeight"`
	FontSize            flexFloat  `json:"fontSize"`
	TextAlignHorizontal flexString `json:"textAlignHorizontal"`
	LetterSpacing       flexFloat  `json:"letterSpacing"`
	LineHeightPx        flexFloat  `json:"lineHeightPx"`
}

func (s *rawTypeStyle) UnmarshalJSON(data []byte) error {
	type plain rawTypeStyle
	var p plain
	if !isObject(data) || json.Unmarshal(data, &p) != nil {
		*s = rawTypeStyle{}
		return nil
	}
	*s = rawTypeStyle(p)
	return nil
}

type rawPaint struct {
	Type     flexString `json:"type"`
	Visible  flexBool   `json:"visible"`
	Opacity  *flexFloat `json:"opacity"`
	Color    *rawColor  `json:"color"`
	ImageRef flexString `json:"imageRef"`
	Hash     flexString `json:"imageHash"`
}

type rawColor struct {
	R flexFloat  `json:"r"`
	G flexFloat  `json:"g"`
	B flexFloat  `json:"b"`
	A *flexFloat `json:"a"`

	ok bool
}

func (c *rawColor) UnmarshalJSON(data []byte) error {
	type plain rawColor
	var p plain
	if !isObject(data) || json.Unmarshal(data, &p) != nil {
		*c = rawColor{}
		return nil
	}
	*c = rawColor(p)
	c.ok = true
	return nil
}

type rawEffect struct {
	Type    flexString `json:"type"`
	Visible flexBool   `json:"visible"`
	Radius  flexFloat  `json:"radius"`
}

func (r *rawNode) toNode(parent *rawBox) *Node {
	n := &Node{
		ID:     string(r.ID),
		Name:   string(r.Name),
		Type:   parseNodeType(string(r.Type)),
		Hidden: r.Visible.isFalse(),
		X:      float64(r.X),
		Y:      float64(r.Y),
		Width:  float64(r.Width),
		Height: float64(r.Height),
		Layout: Layout{
			Mode:          parseLayoutMode(string(r.LayoutMode)),
			PrimarySizing: parseSizingMode(string(r.PrimaryAxisSizingMode)),
			CounterSizing: parseSizingMode(string(r.CounterAxisSizingMode)),
			PaddingTop:    float64(r.PaddingTop),
			PaddingRight:  float64(r.PaddingRight),
			PaddingBottom: float64(r.PaddingBottom),
			PaddingLeft:   float64(r.PaddingLeft),
			ItemSpacing:   float64(r.ItemSpacing),
			PrimaryAlign:  string(r.PrimaryAxisAlignItems),
			CounterAlign:  string(r.CounterAxisAlignItems),
		},
		Fills:        decodePaints(r.Fills),
		Strokes:      decodePaints(r.Strokes),
		Effects:      decodeEffects(r.Effects),
		CornerRadius: float64(r.CornerRadius),
	}

	if box := r.AbsoluteBoundingBox; box.ok {
		n.Width = float64(box.Width)
		n.Height = float64(box.Height)
		n.X = float64(box.X)
		n.Y = float64(box.Y)
		if parent != nil && parent.ok {
			n.X -= float64(parent.X)
			n.Y -= float64(parent.Y)
		}
	}

	if n.Type == TypeText {
		n.Text = r.textStyle()
	}

	if len(r.Children) > 0 {
		n.Children = make([]*Node, 0, len(r.Children))
		for _, c := range r.Children {
			if c == nil {
				continue
			}
			n.Children = append(n.Children, c.toNode(&r.AbsoluteBoundingBox))
		}
	}
	return n
}

func (r *rawNode) textStyle() *TextStyle {
	ts := &TextStyle{
		Characters:    string(r.Characters),
		FontSize:      float64(r.FontSize),
		FontWeight:    float64(r.FontWeight),
		LineHeight:    float64(r.LineHeight),
		LetterSpacing: float64(r.LetterSpacing),
		TextAlign:     string(r.TextAlignHorizontal),
		FontFamily:    string(r.FontName.Family),
		FontStyle:     string(r.FontName.Style),
	}
	if s := r.Style; s != (rawTypeStyle{}) {
		if ts.FontFamily == "" {
			ts.FontFamily = string(s.FontFamily)
		}
		if ts.FontSize == 0 {
			ts.FontSize = float64(s.FontSize)
		}
		if ts.FontWeight == 0 {
			ts.FontWeight = float64(s.FontWeight)
		}
		if ts.TextAlign == "" {
			ts.TextAlign = string(s.TextAlignHorizontal)
		}
		if ts.LineHeight == 0 {
			ts.LineHeight = float64(s.LineHeightPx)
		}
		if ts.LetterSpacing == 0 {
			ts.LetterSpacing = float64(s.LetterSpacing)
		}
		if ts.FontStyle == "" {
			if i := strings.LastIndex(string(s.FontPostScriptName), "-"); i >= 0 {
				ts.FontStyle = string(s.FontPostScriptName[i+1:])
			}
		}
	}
	return ts
}

// decodePaints keeps the paints that decode. Mixed paints arrive as a
// symbol string and are treated as absent.
func decodePaints(raw json.RawMessage) []Paint {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]Paint, 0, len(items))
	for _, item := range items {
		var rp rawPaint
		if !isObject(item) || json.Unmarshal(item, &rp) != nil {
			continue
		}
		p := Paint{
			Type:     PaintType(strings.ToUpper(string(rp.Type))),
			Opacity:  1,
			Hidden:   rp.Visible.isFalse(),
			ImageRef: string(rp.ImageRef),
		}
		if p.ImageRef == "" {
			p.ImageRef = string(rp.Hash)
		}
		if rp.Opacity != nil {
			p.Opacity = float64(*rp.Opacity)
		}
		if c := rp.Color; c != nil && c.ok {
			p.Color = Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: 1}
			if c.A != nil {
				p.Color.A = float64(*c.A)
			}
		}
		out = append(out, p)
	}
	return out
}

func decodeEffects(raw json.RawMessage) []Effect {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]Effect, 0, len(items))
	for _, item := range items {
		var re rawEffect
		if !isObject(item) || json.Unmarshal(item, &re) != nil {
			continue
		}
		out = append(out, Effect{
			Type:   string(re.Type),
			Hidden: re.Visible.isFalse(),
			Radius: float64(re.Radius),
		})
	}
	return out
}

func parseLayoutMode(s string) LayoutMode {
	switch LayoutMode(strings.ToUpper(s)) {
	case LayoutHorizontal:
		return LayoutHorizontal
	case LayoutVertical:
		return LayoutVertical
	default:
		return LayoutNone
	}
}

func parseSizingMode(s string) SizingMode {
	switch SizingMode(strings.ToUpper(s)) {
	case SizingFixed:
		return SizingFixed
	case SizingAuto:
		return SizingAuto
	default:
		return ""
	}
}

// flexFloat decodes numbers, numeric strings and {"value": n} objects.
// Anything else decodes to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(v)
		}
	case '{':
		var obj struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err == nil && obj.Value != nil {
			*f = flexFloat(*obj.Value)
		}
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err == nil {
			*f = flexFloat(v)
		}
	}
	return nil
}

// flexString decodes strings as-is and numbers as their literal text.
// Anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexString(s)
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = flexString(n.String())
		}
	}
	return nil
}

// flexBool remembers whether a usable boolean was present. Booleans and
// strconv.ParseBool strings are accepted; anything else is unset.
type flexBool struct {
	set   bool
	value bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	*f = flexBool{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool{set: true, value: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			*f = flexBool{set: true, value: v}
		}
	}
	return nil
}

func (f flexBool) isFalse() bool {
	return f.set && !f.value
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}
