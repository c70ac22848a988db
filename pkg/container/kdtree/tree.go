/*
 * Copyright 2020 Dennis Kuhnert
 * Copyright 2020 Ivanov Nikita
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */
package kdtree

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Tree is a kd-tree owning its storage. It is immutable once built and safe
// for concurrent queries.
type Tree[T any, S Scalar] struct {
	Slice[T, S]
}

func own[T any, S Scalar](s *Slice[T, S], err error) (*Tree[T, S], error) {
	if err != nil {
		return nil, err
	}
	return &Tree[T, S]{Slice: *s}, nil
}

// Build builds a tree over a copy of items using their natural integer order.
func Build[S constraints.Integer, P Point[S]](items []P, opts ...Option) (*Tree[P, S], error) {
	dim, err := pointsDimension[S](items)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	return own[P, S](newSlice(slices.Clone(items), dim, coord, coordCompare[P, S](coord), opts))
}

// BuildByOrderedFloat builds a tree over a copy of items with float
// coordinates. A NaN coordinate fails with ErrNonFiniteScalar.
func BuildByOrderedFloat[S constraints.Float, P Point[S]](items []P, opts ...Option) (*Tree[P, S], error) {
	dim, err := pointsDimension[S](items)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	if err := checkOrderedFloat[P, S](items, dim, coord); err != nil {
		return nil, err
	}
	return own[P, S](newSlice(slices.Clone(items), dim, coord, orderedFloatCompare[P, S](coord), opts))
}

// BuildBy builds a tree over a copy of items whose coordinates come from
// coord. NaN coordinates are rejected; float64 and float32 coordinates are
// ordered through OrderedFloat.
func BuildBy[S Scalar, T any](items []T, dim int, coord CoordFunc[T, S], opts ...Option) (*Tree[T, S], error) {
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	if err := checkFinite(items, dim, coord); err != nil {
		return nil, err
	}
	return own[T, S](newSlice(slices.Clone(items), dim, coord, coordCompare(coord), opts))
}

// BuildByCompare builds a tree ordered by compare. coord must agree with
// compare; it is used to measure distances at query time.
func BuildByCompare[S Scalar, T any](
	items []T,
	dim int,
	compare CompareFunc[T],
	coord CoordFunc[T, S],
	opts ...Option,
) (*Tree[T, S], error) {
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	return own[T, S](newSlice(slices.Clone(items), dim, coord, compare, opts))
}

// BuildMap builds a tree of key/value entries keyed by integer points.
func BuildMap[S constraints.Integer, P Point[S], V any](
	entries []Entry[P, V],
	opts ...Option,
) (*Tree[Entry[P, V], S], error) {
	dim, err := entriesDimension[S](entries)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[Entry[P, V], S] = entryCoord[S, P, V]
	return own[Entry[P, V], S](newSlice(slices.Clone(entries), dim, coord, coordCompare[Entry[P, V], S](coord), opts))
}

// BuildMapByOrderedFloat builds a tree of key/value entries keyed by float points.
func BuildMapByOrderedFloat[S constraints.Float, P Point[S], V any](
	entries []Entry[P, V],
	opts ...Option,
) (*Tree[Entry[P, V], S], error) {
	dim, err := entriesDimension[S](entries)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[Entry[P, V], S] = entryCoord[S, P, V]
	if err := checkOrderedFloat[Entry[P, V], S](entries, dim, coord); err != nil {
		return nil, err
	}
	return own[Entry[P, V], S](newSlice(slices.Clone(entries), dim, coord, orderedFloatCompare[Entry[P, V], S](coord), opts))
}

// FromOrdered adopts storage that is already in kd order, such as a decoded
// snapshot. It never reorders: storage breaking the invariant fails with
// ErrUnordered.
func FromOrdered[S Scalar, T any](items []T, dim int, coord CoordFunc[T, S]) (*Tree[T, S], error) {
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	if err := checkFinite(items, dim, coord); err != nil {
		return nil, err
	}
	t := &Tree[T, S]{Slice: Slice[T, S]{items: items, dim: dim, coord: coord, compare: coordCompare(coord)}}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Sort rearranges items in place into kd order and returns a Slice
// borrowing them.
func Sort[S constraints.Integer, P Point[S]](items []P, opts ...Option) (*Slice[P, S], error) {
	dim, err := pointsDimension[S](items)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	return newSlice(items, dim, coord, coordCompare[P, S](coord), opts)
}

// SortByOrderedFloat is Sort for float coordinates.
func SortByOrderedFloat[S constraints.Float, P Point[S]](items []P, opts ...Option) (*Slice[P, S], error) {
	dim, err := pointsDimension[S](items)
	if err != nil {
		return nil, err
	}
	var coord CoordFunc[P, S] = pointCoord[S, P]
	if err := checkOrderedFloat[P, S](items, dim, coord); err != nil {
		return nil, err
	}
	return newSlice(items, dim, coord, orderedFloatCompare[P, S](coord), opts)
}

// SortBy is Sort with coordinates taken from coord.
func SortBy[S Scalar, T any](items []T, dim int, coord CoordFunc[T, S], opts ...Option) (*Slice[T, S], error) {
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	if coord == nil {
		return nil, ErrNilCoordinate
	}
	if err := checkFinite(items, dim, coord); err != nil {
		return nil, err
	}
	return newSlice(items, dim, coord, coordCompare(coord), opts)
}

// SortByCompare is Sort ordered by compare.
func SortByCompare[S Scalar, T any](
	items []T,
	dim int,
	compare CompareFunc[T],
	coord CoordFunc[T, S],
	opts ...Option,
) (*Slice[T, S], error) {
	if dim <= 0 {
		return nil, ErrZeroDimension
	}
	return newSlice(items, dim, coord, compare, opts)
}
