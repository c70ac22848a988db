package kdtree

// View navigates a kd-ordered range without owning it. Structure derives
// from index arithmetic only: the node of [lo,hi) is the element at
// lo+(hi-lo)/2 and its children are the ranges on either side.
type View[T any, S Scalar] struct {
	items []T
	dim   int
	coord CoordFunc[T, S]
	lo    int
	hi    int
	depth int
}

func newView[T any, S Scalar](items []T, dim int, coord CoordFunc[T, S]) View[T, S] {
	return View[T, S]{items: items, dim: dim, coord: coord, hi: len(items)}
}

func (v View[T, S]) Len() int { return v.hi - v.lo }

func (v View[T, S]) IsEmpty() bool { return v.hi <= v.lo }

// IsLeaf reports whether the range holds at most one element.
func (v View[T, S]) IsLeaf() bool { return v.hi-v.lo <= 1 }

func (v View[T, S]) Depth() int { return v.depth }

// Axis is the split axis of this node.
func (v View[T, S]) Axis() int {
	if v.dim == 0 {
		return 0
	}
	return v.depth % v.dim
}

func (v View[T, S]) mid() int { return v.lo + (v.hi-v.lo)/2 }

// Median returns the node's own item. It panics on an empty view.
func (v View[T, S]) Median() T {
	if v.IsEmpty() {
		panic("kdtree: median of empty view")
	}
	return v.items[v.mid()]
}

// Index returns the storage position of the node's item.
func (v View[T, S]) Index() int { return v.mid() }

func (v View[T, S]) Left() View[T, S] {
	l := v
	l.hi = v.mid()
	l.depth++
	return l
}

func (v View[T, S]) Right() View[T, S] {
	r := v
	r.lo = v.mid() + 1
	if r.lo > r.hi {
		r.lo = r.hi
	}
	r.depth++
	return r
}

// Items returns the elements covered by the view, in storage order.
func (v View[T, S]) Items() []T { return v.items[v.lo:v.hi] }

// Coord returns the coordinate of item on axis.
func (v View[T, S]) Coord(item T, axis int) S { return v.coord(item, axis) }

// Walk calls fn for every node in pre-order until fn returns false.
func (v View[T, S]) Walk(fn func(View[T, S]) bool) bool {
	if v.IsEmpty() {
		return true
	}
	if !fn(v) {
		return false
	}
	return v.Left().Walk(fn) && v.Right().Walk(fn)
}
