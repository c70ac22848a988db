package kdtree

import "golang.org/x/exp/constraints"

// Scalar is the coordinate type of a point.
type Scalar interface {
	constraints.Integer | constraints.Float
}

// Point is implemented by items that know their own coordinates.
type Point[S Scalar] interface {
	// Dim returns the coordinate on axis idx, 0 <= idx < Dimensions().
	Dim(idx int) S
	// Dimensions returns the fixed number of axes.
	Dimensions() int
}

// CoordFunc extracts the coordinate of item on axis for items that do not
// implement Point.
type CoordFunc[T any, S Scalar] func(item T, axis int) S

// CompareFunc orders a and b on axis. It returns a negative number when
// a < b, zero when equal and a positive number when a > b.
type CompareFunc[T any] func(a, b T, axis int) int

// Coords is a plain coordinate slice usable as an item or a query.
type Coords[S Scalar] []S

func (c Coords[S]) Dim(idx int) S { return c[idx] }

func (c Coords[S]) Dimensions() int { return len(c) }

// Entry pairs a point with an associated value, turning a tree into a map.
type Entry[P any, V any] struct {
	Key   P
	Value V
}

func pointCoord[S Scalar, P Point[S]](p P, axis int) S {
	return p.Dim(axis)
}

func entryCoord[S Scalar, P Point[S], V any](e Entry[P, V], axis int) S {
	return e.Key.Dim(axis)
}

// pointsDimension returns the common dimension of items.
func pointsDimension[S Scalar, P Point[S]](items []P) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	dim := items[0].Dimensions()
	for i := 1; i < len(items); i++ {
		if items[i].Dimensions() != dim {
			return 0, ErrInvalidDimension
		}
	}
	return dim, nil
}

func entriesDimension[S Scalar, P Point[S], V any](entries []Entry[P, V]) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	dim := entries[0].Key.Dimensions()
	for i := 1; i < len(entries); i++ {
		if entries[i].Key.Dimensions() != dim {
			return 0, ErrInvalidDimension
		}
	}
	return dim, nil
}
