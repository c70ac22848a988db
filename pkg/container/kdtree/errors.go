package kdtree

import "errors"

var (
	// ErrInvalidDimension signals a point whose dimension disagrees with the tree.
	ErrInvalidDimension = errors.New("kdtree: invalid dimension")
	// ErrZeroDimension signals construction over zero-dimensional items.
	ErrZeroDimension = errors.New("kdtree: zero dimension")
	// ErrNonFiniteScalar signals a coordinate without a defined order (NaN).
	ErrNonFiniteScalar = errors.New("kdtree: non-finite scalar")
	// ErrNilCoordinate signals a missing coordinate accessor or comparator.
	ErrNilCoordinate = errors.New("kdtree: nil coordinate function")
	// ErrUnordered signals storage that does not satisfy the median-of-range invariant.
	ErrUnordered = errors.New("kdtree: storage is not in kd order")
)
