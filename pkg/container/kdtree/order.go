package kdtree

import (
	"cmp"

	"golang.org/x/exp/constraints"
)

// OrderedFloat is a float key with a total order. NaN cannot be wrapped.
type OrderedFloat[F constraints.Float] struct {
	v F
}

// NewOrderedFloat wraps v, rejecting NaN with ErrNonFiniteScalar.
func NewOrderedFloat[F constraints.Float](v F) (OrderedFloat[F], error) {
	if isNaN(v) {
		return OrderedFloat[F]{}, ErrNonFiniteScalar
	}
	return OrderedFloat[F]{v: v}, nil
}

func (o OrderedFloat[F]) Value() F { return o.v }

func (o OrderedFloat[F]) Compare(other OrderedFloat[F]) int {
	return cmp.Compare(o.v, other.v)
}

func (o OrderedFloat[F]) Less(other OrderedFloat[F]) bool {
	return o.v < other.v
}

func isNaN[S Scalar](v S) bool {
	return v != v
}

// coordCompare orders items by coordinate. float64 and float32 coordinates
// go through OrderedFloat. Other float types use cmp.Compare, which is the
// same total order once NaN is excluded. Callers must have rejected NaN
// coordinates with checkFinite beforehand.
func coordCompare[T any, S Scalar](coord CoordFunc[T, S]) CompareFunc[T] {
	switch c := any(coord).(type) {
	case CoordFunc[T, float64]:
		return orderedFloatCompare(c)
	case CoordFunc[T, float32]:
		return orderedFloatCompare(c)
	}
	return func(a, b T, axis int) int {
		return cmp.Compare(coord(a, axis), coord(b, axis))
	}
}

// orderedFloatCompare routes every coordinate through OrderedFloat.
func orderedFloatCompare[T any, F constraints.Float](coord CoordFunc[T, F]) CompareFunc[T] {
	return func(a, b T, axis int) int {
		ka, _ := NewOrderedFloat(coord(a, axis))
		kb, _ := NewOrderedFloat(coord(b, axis))
		return ka.Compare(kb)
	}
}

func checkFinite[T any, S Scalar](items []T, dim int, coord CoordFunc[T, S]) error {
	for i := range items {
		for k := 0; k < dim; k++ {
			if isNaN(coord(items[i], k)) {
				return ErrNonFiniteScalar
			}
		}
	}
	return nil
}

func checkOrderedFloat[T any, F constraints.Float](items []T, dim int, coord CoordFunc[T, F]) error {
	for i := range items {
		for k := 0; k < dim; k++ {
			if _, err := NewOrderedFloat(coord(items[i], k)); err != nil {
				return err
			}
		}
	}
	return nil
}
