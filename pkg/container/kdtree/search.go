package kdtree

import (
	"github.com/go-sod/kd/pkg/pqueue"
)

// ItemAndDistance is a query hit: the item and its squared distance to the query.
type ItemAndDistance[T any, S Scalar] struct {
	Item            T
	SquaredDistance S
}

// Range bounds one axis of a box query, inclusive on both ends.
type Range[S Scalar] struct {
	Min, Max S
}

// absDiff is zero for equal coordinates, equal infinities included.
func absDiff[S Scalar](a, b S) S {
	if a == b {
		return 0
	}
	if a < b {
		return b - a
	}
	return a - b
}

func squaredDistance[T any, S Scalar](query []S, item T, coord CoordFunc[T, S]) S {
	var sum S
	for k, q := range query {
		d := absDiff(q, coord(item, k))
		sum += d * d
	}
	return sum
}

// split returns the child holding the query first, the far child second and
// the squared distance from the query to the splitting plane.
func split[T any, S Scalar](v View[T, S], query []S, item T) (View[T, S], View[T, S], S) {
	axis := v.Axis()
	q, c := query[axis], v.coord(item, axis)
	if q == c {
		return v.Right(), v.Left(), 0
	}
	if q < c {
		d := c - q
		return v.Left(), v.Right(), d * d
	}
	d := q - c
	return v.Right(), v.Left(), d * d
}

type nearestSearch[T any, S Scalar] struct {
	query []S
	best  ItemAndDistance[T, S]
	found bool
}

func (s *nearestSearch[T, S]) visit(v View[T, S]) {
	if v.IsEmpty() || s.exact() {
		return
	}
	item := v.Median()
	d := squaredDistance(s.query, item, v.coord)
	if !s.found || d < s.best.SquaredDistance {
		s.best = ItemAndDistance[T, S]{Item: item, SquaredDistance: d}
		s.found = true
		if d == 0 {
			return
		}
	}
	near, far, plane := split(v, s.query, item)
	s.visit(near)
	if plane < s.best.SquaredDistance {
		s.visit(far)
	}
}

// exact reports whether a zero distance match ended the search.
func (s *nearestSearch[T, S]) exact() bool {
	return s.found && s.best.SquaredDistance == 0
}

func nearest[T any, S Scalar](root View[T, S], query []S) (ItemAndDistance[T, S], bool) {
	s := &nearestSearch[T, S]{query: query}
	s.visit(root)
	return s.best, s.found
}

type nearestsSearch[T any, S Scalar] struct {
	query []S
	queue *pqueue.Queue[T, S]
}

func (s *nearestsSearch[T, S]) visit(v View[T, S]) {
	if v.IsEmpty() {
		return
	}
	item := v.Median()
	s.queue.Push(item, squaredDistance(s.query, item, v.coord))
	near, far, plane := split(v, s.query, item)
	s.visit(near)
	if !s.queue.Full() {
		s.visit(far)
		return
	}
	if bound, _ := s.queue.Last(); plane < bound {
		s.visit(far)
	}
}

func nearests[T any, S Scalar](root View[T, S], query []S, k int) []ItemAndDistance[T, S] {
	if k <= 0 || root.IsEmpty() {
		return []ItemAndDistance[T, S]{}
	}
	k = min(k, root.Len())
	s := &nearestsSearch[T, S]{query: query, queue: pqueue.New[T, S](pqueue.WithCap(uint(k)))}
	s.visit(root)
	out := make([]ItemAndDistance[T, S], s.queue.Len())
	for i := range out {
		item, d := s.queue.Seek(i)
		out[i] = ItemAndDistance[T, S]{Item: item, SquaredDistance: d}
	}
	return out
}

type radiusSearch[T any, S Scalar] struct {
	query  []S
	bound  S
	result []ItemAndDistance[T, S]
}

func (s *radiusSearch[T, S]) visit(v View[T, S]) {
	if v.IsEmpty() {
		return
	}
	item := v.Median()
	if d := squaredDistance(s.query, item, v.coord); d <= s.bound {
		s.result = append(s.result, ItemAndDistance[T, S]{Item: item, SquaredDistance: d})
	}
	near, far, plane := split(v, s.query, item)
	s.visit(near)
	if plane <= s.bound {
		s.visit(far)
	}
}

func withinRadius[T any, S Scalar](root View[T, S], query []S, radius S) []ItemAndDistance[T, S] {
	if radius < 0 || root.IsEmpty() {
		return []ItemAndDistance[T, S]{}
	}
	s := &radiusSearch[T, S]{query: query, bound: radius * radius, result: []ItemAndDistance[T, S]{}}
	s.visit(root)
	return s.result
}

func within[T any, S Scalar](v View[T, S], box []Range[S], out []T) []T {
	if v.IsEmpty() {
		return out
	}
	item := v.Median()
	inside := true
	for k, r := range box {
		if c := v.coord(item, k); c < r.Min || c > r.Max {
			inside = false
			break
		}
	}
	if inside {
		out = append(out, item)
	}
	axis := v.Axis()
	c := v.coord(item, axis)
	if c >= box[axis].Min {
		out = within(v.Left(), box, out)
	}
	if c <= box[axis].Max {
		out = within(v.Right(), box, out)
	}
	return out
}
