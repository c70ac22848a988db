package kdtree

// Slice is a kd-tree over storage it does not own. The storage must not be
// modified while the Slice is in use.
type Slice[T any, S Scalar] struct {
	items   []T
	dim     int
	coord   CoordFunc[T, S]
	compare CompareFunc[T]
}

func newSlice[T any, S Scalar](
	items []T,
	dim int,
	coord CoordFunc[T, S],
	compare CompareFunc[T],
	opts []Option,
) (*Slice[T, S], error) {
	if coord == nil || compare == nil {
		return nil, ErrNilCoordinate
	}
	if len(items) > 0 && dim <= 0 {
		return nil, ErrZeroDimension
	}
	if len(items) > 1 {
		partition(items, dim, compare, newBuildOptions(opts))
	}
	return &Slice[T, S]{items: items, dim: dim, coord: coord, compare: compare}, nil
}

func (s *Slice[T, S]) Len() int { return len(s.items) }

// Dim returns the tree dimension, 0 when built empty without an explicit one.
func (s *Slice[T, S]) Dim() int { return s.dim }

// Items returns the storage in kd order. It must be treated as read-only.
func (s *Slice[T, S]) Items() []T { return s.items }

// Root returns a view of the whole tree.
func (s *Slice[T, S]) Root() View[T, S] {
	return newView(s.items, s.dim, s.coord)
}

// Check verifies the median-of-range invariant over the storage.
func (s *Slice[T, S]) Check() error {
	if len(s.items) > 1 && !ordered(s.items, s.dim, s.compare) {
		return ErrUnordered
	}
	return nil
}

func (s *Slice[T, S]) queryCoords(query Point[S]) ([]S, error) {
	if query == nil {
		return nil, ErrInvalidDimension
	}
	n := query.Dimensions()
	if s.dim > 0 && n != s.dim {
		return nil, ErrInvalidDimension
	}
	coords := make([]S, n)
	for k := range coords {
		coords[k] = query.Dim(k)
		if isNaN(coords[k]) {
			return nil, ErrNonFiniteScalar
		}
	}
	return coords, nil
}

func (s *Slice[T, S]) rootBy(coord CoordFunc[T, S]) (View[T, S], error) {
	if coord == nil {
		return View[T, S]{}, ErrNilCoordinate
	}
	return newView(s.items, s.dim, coord), nil
}

// Nearest returns the item closest to query. ok is false only for an empty tree.
func (s *Slice[T, S]) Nearest(query Point[S]) (ItemAndDistance[T, S], bool, error) {
	return s.NearestBy(query, s.coord)
}

// NearestBy is Nearest with coordinates taken from coord.
func (s *Slice[T, S]) NearestBy(query Point[S], coord CoordFunc[T, S]) (ItemAndDistance[T, S], bool, error) {
	q, err := s.queryCoords(query)
	if err != nil {
		return ItemAndDistance[T, S]{}, false, err
	}
	root, err := s.rootBy(coord)
	if err != nil {
		return ItemAndDistance[T, S]{}, false, err
	}
	res, ok := nearest(root, q)
	return res, ok, nil
}

// Nearests returns the min(k, Len()) items closest to query ordered by
// non-decreasing squared distance.
func (s *Slice[T, S]) Nearests(query Point[S], k int) ([]ItemAndDistance[T, S], error) {
	return s.NearestsBy(query, k, s.coord)
}

func (s *Slice[T, S]) NearestsBy(query Point[S], k int, coord CoordFunc[T, S]) ([]ItemAndDistance[T, S], error) {
	q, err := s.queryCoords(query)
	if err != nil {
		return nil, err
	}
	root, err := s.rootBy(coord)
	if err != nil {
		return nil, err
	}
	return nearests(root, q, k), nil
}

// WithinRadius returns every item whose squared distance to query is at
// most radius². The result is unordered and empty for a negative radius.
// A NaN radius fails with ErrNonFiniteScalar.
func (s *Slice[T, S]) WithinRadius(query Point[S], radius S) ([]ItemAndDistance[T, S], error) {
	return s.WithinRadiusBy(query, radius, s.coord)
}

func (s *Slice[T, S]) WithinRadiusBy(query Point[S], radius S, coord CoordFunc[T, S]) ([]ItemAndDistance[T, S], error) {
	q, err := s.queryCoords(query)
	if err != nil {
		return nil, err
	}
	if isNaN(radius) {
		return nil, ErrNonFiniteScalar
	}
	root, err := s.rootBy(coord)
	if err != nil {
		return nil, err
	}
	return withinRadius(root, q, radius), nil
}

// Within returns every item inside the closed box, one Range per axis.
func (s *Slice[T, S]) Within(box []Range[S]) ([]T, error) {
	return s.WithinBy(box, s.coord)
}

func (s *Slice[T, S]) WithinBy(box []Range[S], coord CoordFunc[T, S]) ([]T, error) {
	if s.dim > 0 && len(box) != s.dim {
		return nil, ErrInvalidDimension
	}
	for _, r := range box {
		if isNaN(r.Min) || isNaN(r.Max) {
			return nil, ErrNonFiniteScalar
		}
	}
	root, err := s.rootBy(coord)
	if err != nil {
		return nil, err
	}
	return within(root, box, []T{}), nil
}
