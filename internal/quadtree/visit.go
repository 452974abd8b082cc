package quadtree

// Visitor is called with a node and the bounds of its square. Returning
// true from a Visit callback skips the node's children; VisitAfter
// ignores the result.
type Visitor func(id NodeID, x0, y0, x1, y1 float64) bool

type quad struct {
	id             NodeID
	x0, y0, x1, y1 float64
}

// Visit walks the tree in pre-order, visiting quadrants in index order.
func (t *Tree[E]) Visit(fn Visitor) {
	if t.root == Nil {
		return
	}
	stack := make([]quad, 1, 32)
	stack[0] = quad{t.root, t.x0, t.y0, t.x1, t.y1}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(q.id, q.x0, q.y0, q.x1, q.y1) || t.nodes[q.id].leaf {
			continue
		}
		xm, ym := (q.x0+q.x1)/2, (q.y0+q.y1)/2
		c := &t.nodes[q.id].children
		// Pushed in reverse so quadrant 0 pops first.
		if c[BottomRight] != Nil {
			stack = append(stack, quad{c[BottomRight], xm, ym, q.x1, q.y1})
		}
		if c[BottomLeft] != Nil {
			stack = append(stack, quad{c[BottomLeft], q.x0, ym, xm, q.y1})
		}
		if c[TopRight] != Nil {
			stack = append(stack, quad{c[TopRight], xm, q.y0, q.x1, ym})
		}
		if c[TopLeft] != Nil {
			stack = append(stack, quad{c[TopLeft], q.x0, q.y0, xm, ym})
		}
	}
}

// VisitAfter walks the tree in post-order: every node is visited after
// all of its descendants.
func (t *Tree[E]) VisitAfter(fn Visitor) {
	if t.root == Nil {
		return
	}
	stack := make([]quad, 1, 32)
	stack[0] = quad{t.root, t.x0, t.y0, t.x1, t.y1}
	order := make([]quad, 0, len(t.nodes))
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !t.nodes[q.id].leaf {
			xm, ym := (q.x0+q.x1)/2, (q.y0+q.y1)/2
			c := t.nodes[q.id].children
			if c[TopLeft] != Nil {
				stack = append(stack, quad{c[TopLeft], q.x0, q.y0, xm, ym})
			}
			if c[TopRight] != Nil {
				stack = append(stack, quad{c[TopRight], xm, q.y0, q.x1, ym})
			}
			if c[BottomLeft] != Nil {
				stack = append(stack, quad{c[BottomLeft], q.x0, ym, xm, q.y1})
			}
			if c[BottomRight] != Nil {
				stack = append(stack, quad{c[BottomRight], xm, ym, q.x1, q.y1})
			}
		}
		order = append(order, q)
	}
	for i := len(order) - 1; i >= 0; i-- {
		q := order[i]
		fn(q.id, q.x0, q.y0, q.x1, q.y1)
	}
}
