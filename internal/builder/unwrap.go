package builder

import (
	"math"
	"sort"

	"github.com/fyrsmithlabs/figclass/internal/design"
)

// Unwrap splices the children of boxed inner wrappers into n, repeating
// until n's only visible child is no longer a wrapper. The input is not
// modified. Wrapper layout fills only the fields n leaves unset, and
// spliced children are translated into n's coordinate space. The returned
// ids are the removed wrappers, outermost first.
//
// Unwrap(Unwrap(n)) has the same children and layout as Unwrap(n).
func Unwrap(n *design.Node) (*design.Node, []string) {
	if n == nil {
		return nil, nil
	}
	var (
		out     *design.Node
		removed []string
	)
	cur := n
	for {
		vis := cur.VisibleChildren()
		if len(vis) != 1 || !vis[0].IsInnerWrapper() {
			break
		}
		w := vis[0]
		if out == nil {
			cp := *n
			out = &cp
		}
		out.Layout = mergeLayout(out.Layout, w.Layout)
		out.Children = translate(w.Children, w.X, w.Y)
		removed = append(removed, w.ID)
		cur = out
	}
	if out == nil {
		return n, nil
	}
	return out, removed
}

// mergeLayout keeps every field parent sets and takes the rest from inner.
func mergeLayout(parent, inner design.Layout) design.Layout {
	out := parent
	if parent.Axis() == design.LayoutNone {
		out.Mode = inner.Mode
	}
	if out.PrimarySizing == "" {
		out.PrimarySizing = inner.PrimarySizing
	}
	if out.CounterSizing == "" {
		out.CounterSizing = inner.CounterSizing
	}
	if out.PaddingTop == 0 {
		out.PaddingTop = inner.PaddingTop
	}
	if out.PaddingRight == 0 {
		out.PaddingRight = inner.PaddingRight
	}
	if out.PaddingBottom == 0 {
		out.PaddingBottom = inner.PaddingBottom
	}
	if out.PaddingLeft == 0 {
		out.PaddingLeft = inner.PaddingLeft
	}
	if out.ItemSpacing == 0 {
		out.ItemSpacing = inner.ItemSpacing
	}
	if out.PrimaryAlign == "" {
		out.PrimaryAlign = inner.PrimaryAlign
	}
	if out.CounterAlign == "" {
		out.CounterAlign = inner.CounterAlign
	}
	return out
}

// translate returns shallow copies of nodes shifted by dx, dy.
func translate(nodes []*design.Node, dx, dy float64) []*design.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*design.Node, len(nodes))
	for i, c := range nodes {
		cp := *c
		cp.X += dx
		cp.Y += dy
		out[i] = &cp
	}
	return out
}

// ReadingOrder sorts nodes top-to-bottom, then left-to-right within rows.
// A node joins the current row when its top is within tolerance of the
// row's first node. The input slice is not modified.
func ReadingOrder(nodes []*design.Node, tolerance float64) []*design.Node {
	out := make([]*design.Node, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})

	var (
		rows   [][]*design.Node
		rowTop float64
	)
	for _, n := range out {
		if len(rows) == 0 || math.Abs(n.Y-rowTop) > tolerance {
			rows = append(rows, nil)
			rowTop = n.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], n)
	}

	out = out[:0]
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		out = append(out, row...)
	}
	return out
}
