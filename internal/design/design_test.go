package design

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeType_Class(t *testing.T) {
	tests := []struct {
		typ  NodeType
		want Class
	}{
		{TypeFrame, ClassContainer},
		{TypeInstance, ClassContainer},
		{TypeSection, ClassContainer},
		{TypeText, ClassText},
		{TypeRectangle, ClassShape},
		{TypeVector, ClassShape},
		{TypeLine, ClassShape},
		{TypeImage, ClassImage},
		{NodeType("SLICE"), ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Class())
		})
	}
}

func TestNodeType_IsVector(t *testing.T) {
	assert.True(t, TypeVector.IsVector())
	assert.True(t, TypeBooleanOperation.IsVector())
	assert.False(t, TypeRectangle.IsVector())
	assert.False(t, TypeFrame.IsVector())
}

func TestDecode_PluginShape(t *testing.T) {
	doc := `{
		"id": "1:1", "name": "Page", "type": "FRAME",
		"x": 0, "y": 0, "width": 1440, "height": 3000,
		"layoutMode": "VERTICAL", "itemSpacing": 24, "paddingTop": 40,
		"fills": [{"type": "SOLID", "color": {"r": 1, "g": 1, "b": 1}}],
		"children": [
			{"id": "1:2", "name": "Title", "type": "TEXT", "x": 40, "y": 40, "width": 400, "height": 40,
			 "characters": "Hello", "fontSize": 32, "fontName": {"family": "Inter", "style": "Bold"}},
			{"id": "1:3", "name": "Hidden", "type": "RECTANGLE", "visible": false},
			{"id": "1:4", "name": "Mixed", "type": "TEXT", "characters": "x", "fontSize": "mixed", "fills": "mixed"}
		]
	}`

	root, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "1:1", root.ID)
	assert.Equal(t, TypeFrame, root.Type)
	assert.Equal(t, LayoutVertical, root.Layout.Mode)
	assert.Equal(t, 24.0, root.Layout.ItemSpacing)
	require.Len(t, root.Fills, 1)
	assert.Equal(t, PaintSolid, root.Fills[0].Type)
	assert.Equal(t, 1.0, root.Fills[0].Opacity)

	require.Len(t, root.Children, 3)
	title := root.Children[0]
	require.NotNil(t, title.Text)
	assert.Equal(t, "Hello", title.Characters())
	assert.Equal(t, 32.0, title.Text.FontSize)
	assert.Equal(t, "Bold", title.Text.FontStyle)

	assert.True(t, root.Children[1].Hidden)
	assert.Len(t, root.VisibleChildren(), 2)

	mixed := root.Children[2]
	assert.Equal(t, 0.0, mixed.Text.FontSize)
	assert.Nil(t, mixed.Fills)
}

func TestDecode_RESTShape(t *testing.T) {
	doc := `{"document": {
		"id": "0:1", "name": "Frame", "type": "FRAME",
		"absoluteBoundingBox": {"x": 100, "y": 200, "width": 800, "height": 600},
		"children": [
			{"id": "0:2", "name": "Body", "type": "TEXT", "characters": "Lorem",
			 "absoluteBoundingBox": {"x": 140, "y": 260, "width": 300, "height": 20},
			 "style": {"fontFamily": "Inter", "fontWeight": 600, "fontSize": 14, "fontPostScriptName": "Inter-SemiBold"}}
		]
	}}`

	root, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 800.0, root.Width)

	body := root.Children[0]
	assert.Equal(t, 40.0, body.X)
	assert.Equal(t, 60.0, body.Y)
	assert.Equal(t, 600.0, body.Text.FontWeight)
	assert.Equal(t, "SemiBold", body.Text.FontStyle)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not json", "{"},
		{"no root", `{"foo": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDecode_MalformedFieldsDefault(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, n *Node)
	}{
		{
			name: "font name symbol",
			doc:  `{"id": "1", "type": "TEXT", "characters": "Hi", "fontName": "figma.mixed"}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, "Hi", n.Characters())
				assert.Empty(t, n.Text.FontFamily)
				assert.Empty(t, n.Text.FontStyle)
			},
		},
		{
			name: "visible as word",
			doc:  `{"id": "1", "type": "FRAME", "visible": "yes"}`,
			check: func(t *testing.T, n *Node) {
				assert.False(t, n.Hidden)
			},
		},
		{
			name: "visible as string bool",
			doc:  `{"id": "1", "type": "FRAME", "visible": "false"}`,
			check: func(t *testing.T, n *Node) {
				assert.True(t, n.Hidden)
			},
		},
		{
			name: "visible null",
			doc:  `{"id": "1", "type": "FRAME", "visible": null}`,
			check: func(t *testing.T, n *Node) {
				assert.False(t, n.Hidden)
			},
		},
		{
			name: "layout mode number",
			doc:  `{"id": "1", "type": "FRAME", "layoutMode": 1}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, LayoutNone, n.Layout.Mode)
			},
		},
		{
			name: "numeric name",
			doc:  `{"id": "1", "type": "FRAME", "name": 7}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, "7", n.Name)
			},
		},
		{
			name: "numeric characters",
			doc:  `{"id": "1", "type": "TEXT", "characters": 5}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, "5", n.Characters())
			},
		},
		{
			name: "style not an object",
			doc:  `{"id": "1", "type": "TEXT", "characters": "x", "style": [1, 2], "fontSize": 18}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, 18.0, n.Text.FontSize)
			},
		},
		{
			name: "bounding box not an object",
			doc:  `{"id": "1", "type": "FRAME", "width": 300, "absoluteBoundingBox": "none"}`,
			check: func(t *testing.T, n *Node) {
				assert.Equal(t, 300.0, n.Width)
			},
		},
		{
			name: "children not an array",
			doc:  `{"id": "1", "type": "FRAME", "children": "none"}`,
			check: func(t *testing.T, n *Node) {
				assert.Empty(t, n.Children)
			},
		},
		{
			name: "non-object children skipped",
			doc:  `{"id": "1", "type": "FRAME", "children": [3, {"id": "2", "type": "TEXT"}, "x"]}`,
			check: func(t *testing.T, n *Node) {
				require.Len(t, n.Children, 1)
				assert.Equal(t, "2", n.Children[0].ID)
			},
		},
		{
			name: "bad paint entry skipped",
			doc:  `{"id": "1", "type": "FRAME", "fills": [{"type": 4, "opacity": "x"}, {"type": "SOLID", "color": "red"}, 9]}`,
			check: func(t *testing.T, n *Node) {
				require.Len(t, n.Fills, 2)
				assert.Equal(t, PaintSolid, n.Fills[1].Type)
				assert.Equal(t, Color{}, n.Fills[1].Color)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := DecodeBytes([]byte(tt.doc))
			require.NoError(t, err)
			tt.check(t, root)
		})
	}
}

func TestDecode_UnknownTypeBecomesUnknown(t *testing.T) {
	root, err := DecodeBytes([]byte(`{"id": "1", "type": "SLICE"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeUnknown, root.Type)
}

func TestValidate(t *testing.T) {
	t.Run("valid tree", func(t *testing.T) {
		root := &Node{ID: "a", Type: TypeFrame, Children: []*Node{{ID: "b", Type: TypeText}}}
		assert.NoError(t, Validate(root))
	})

	t.Run("nil root", func(t *testing.T) {
		assert.ErrorIs(t, Validate(nil), ErrNilRoot)
	})

	t.Run("cycle", func(t *testing.T) {
		root := &Node{ID: "a", Type: TypeFrame}
		child := &Node{ID: "b", Type: TypeFrame, Children: []*Node{root}}
		root.Children = []*Node{child}
		assert.ErrorIs(t, Validate(root), ErrCyclicTree)
	})

	t.Run("duplicate id", func(t *testing.T) {
		root := &Node{ID: "a", Type: TypeFrame, Children: []*Node{
			{ID: "b", Type: TypeText},
			{ID: "b", Type: TypeText},
		}}
		assert.ErrorIs(t, Validate(root), ErrDuplicateID)
	})

	t.Run("missing id", func(t *testing.T) {
		root := &Node{ID: "a", Type: TypeFrame, Children: []*Node{
			{Name: "Untitled", Type: TypeText},
		}}
		assert.ErrorIs(t, Validate(root), ErrMissingID)
	})

	t.Run("shared subtree", func(t *testing.T) {
		shared := &Node{ID: "s", Type: TypeText}
		root := &Node{ID: "a", Type: TypeFrame, Children: []*Node{shared, shared}}
		assert.ErrorIs(t, Validate(root), ErrDuplicateID)
	})
}

func TestNode_IsInnerWrapper(t *testing.T) {
	assert.True(t, (&Node{Name: " C:Inner-Container ", Type: TypeFrame}).IsInnerWrapper())
	assert.True(t, (&Node{Name: "w:inner-container", Type: TypeFrame}).IsInnerWrapper())
	assert.False(t, (&Node{Name: "c:inner-container", Type: TypeText}).IsInnerWrapper())
	assert.False(t, (&Node{Name: "inner", Type: TypeFrame}).IsInnerWrapper())
}

func TestWalk(t *testing.T) {
	root := &Node{ID: "a", Children: []*Node{
		{ID: "b", Children: []*Node{{ID: "c"}}},
		{ID: "d"},
	}}
	var ids []string
	Walk(root, func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return n.ID != "b"
	})
	assert.Equal(t, []string{"a", "b", "d"}, ids)
}
