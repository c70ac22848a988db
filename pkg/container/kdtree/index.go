package kdtree

import "golang.org/x/exp/constraints"

// IndexTree is a kd-tree of indices into a borrowed source slice. The source
// is never reordered; only the index storage is partitioned. Query results
// carry indices into the source.
type IndexTree[T any, S Scalar] struct {
	source  []T
	coord   CoordFunc[T, S]
	indices *Slice[int, S]
}

func newIndexTree[T any, S Scalar](
	source []T,
	dim int,
	coord CoordFunc[T, S],
	compare CompareFunc[T],
	opts []Option,
) (*IndexTree[T, S], error) {
	if coord == nil || compare == nil {
		return nil, ErrNilCoordinate
	}
	indices := make([]int, len(source))
	for i := range indices {
		indices[i] = i
	}
	s, err := newSlice(
		indices,
		dim,
		indexCoord(source, coord),
		func(a, b int, axis int) int { return compare(source[a], source[b], axis) },
		opts,
	)
	if err != nil {
		return nil, err
	}
	return &IndexTree[T, S]{source: source, coord: coord, indices: s}, nil
}

func indexCoord[T any, S Scalar](source []T, coord CoordFunc[T, S]) CoordFunc[int, S] {
	return func(i int, axis int) S { return coord(source[i], axis) }
}

// BuildIndex builds an index tree over source using the natural integer order.
func BuildIndex[S constraints.Integer, P Point[S]](source []P, opts ...Option) (*IndexTree[P, S], error) {
	dim, err := pointsDimension[S](source)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	return newIndexTree(source, dim, coord, coordCompare(coord), opts)
}

// BuildIndexByOrderedFloat builds an index tree over float points.
func BuildIndexByOrderedFloat[S constraints.Float, P Point[S]](source []P, opts ...Option) (*IndexTree[P, S], error) {
	dim, err := pointsDimension[S](source)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	if err := checkOrderedFloat(source, dim, coord); err != nil {
		return nil, err
	}
	return newIndexTree(source, dim, coord, orderedFloatCompare(coord), opts)
}

// BuildIndexBy builds an index tree with coordinates taken from coord.
func BuildIndexBy[S Scalar, T any](source []T, dim int, coord CoordFunc[T, S], opts ...Option) (*IndexTree[T, S], error) {
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	if err := checkFinite(source, dim, coord); err != nil {
		return nil, err
	}
	return newIndexTree(source, dim, coord, coordCompare(coord), opts)
}

func (t *IndexTree[T, S]) Source() []T { return t.source }

func (t *IndexTree[T, S]) Item(i int) T { return t.source[i] }

// Indices returns the index storage in kd order. It must be treated as read-only.
func (t *IndexTree[T, S]) Indices() []int { return t.indices.Items() }

func (t *IndexTree[T, S]) Len() int { return t.indices.Len() }

func (t *IndexTree[T, S]) Dim() int { return t.indices.Dim() }

func (t *IndexTree[T, S]) Root() View[int, S] { return t.indices.Root() }

func (t *IndexTree[T, S]) Check() error { return t.indices.Check() }

func (t *IndexTree[T, S]) Nearest(query Point[S]) (ItemAndDistance[int, S], bool, error) {
	return t.indices.Nearest(query)
}

func (t *IndexTree[T, S]) NearestBy(query Point[S], coord CoordFunc[T, S]) (ItemAndDistance[int, S], bool, error) {
	if coord == nil {
		return ItemAndDistance[int, S]{}, false, ErrNilCoordinate
	}
	return t.indices.NearestBy(query, indexCoord(t.source, coord))
}

func (t *IndexTree[T, S]) Nearests(query Point[S], k int) ([]ItemAndDistance[int, S], error) {
	return t.indices.Nearests(query, k)
}

func (t *IndexTree[T, S]) NearestsBy(query Point[S], k int, coord CoordFunc[T, S]) ([]ItemAndDistance[int, S], error) {
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	return t.indices.NearestsBy(query, k, indexCoord(t.source, coord))
}

func (t *IndexTree[T, S]) WithinRadius(query Point[S], radius S) ([]ItemAndDistance[int, S], error) {
	return t.indices.WithinRadius(query, radius)
}

func (t *IndexTree[T, S]) WithinRadiusBy(query Point[S], radius S, coord CoordFunc[T, S]) ([]ItemAndDistance[int, S], error) {
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	return t.indices.WithinRadiusBy(query, radius, indexCoord(t.source, coord))
}

func (t *IndexTree[T, S]) Within(box []Range[S]) ([]int, error) {
	return t.indices.Within(box)
}
