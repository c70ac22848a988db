package kdtree

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

var triangle = []Coords[float64]{{1, 2, 3}, {3, 1, 2}, {2, 3, 1}}

func TestTree_Nearest(t *testing.T) {
	t.Parallel()
	tree, err := BuildByOrderedFloat[float64](triangle)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tests := []struct {
		name     string
		query    Coords[float64]
		expected Coords[float64]
	}{
		{name: "positive", query: Coords[float64]{3.1, 0.1, 2.2}, expected: Coords[float64]{3, 1, 2}},
		{name: "exact", query: Coords[float64]{2, 3, 1}, expected: Coords[float64]{2, 3, 1}},
		{name: "far", query: Coords[float64]{-100, 2, 3}, expected: Coords[float64]{1, 2, 3}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, ok, err := tree.Nearest(test.query)
			if err != nil || !ok {
				t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
			}
			if !slices.Equal(got.Item, test.expected) {
				t.Errorf("nearest got: %v, expected: %v", got.Item, test.expected)
			}
			if d := squaredDistance[Coords[float64], float64](test.query, got.Item, pointCoord[float64, Coords[float64]]); d != got.SquaredDistance {
				t.Errorf("squared distance got: %v, expected: %v", got.SquaredDistance, d)
			}
		})
	}
}

func TestTree_Nearests(t *testing.T) {
	t.Parallel()
	tree, err := BuildByOrderedFloat[float64](triangle)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tests := []struct {
		name     string
		k        int
		expected []Coords[float64]
	}{
		{name: "positive", k: 2, expected: []Coords[float64]{{2, 3, 1}, {1, 2, 3}}},
		{name: "all", k: 3, expected: []Coords[float64]{{2, 3, 1}, {1, 2, 3}, {3, 1, 2}}},
		{name: "clamped", k: 10, expected: []Coords[float64]{{2, 3, 1}, {1, 2, 3}, {3, 1, 2}}},
		{name: "zero", k: 0, expected: []Coords[float64]{}},
		{name: "negative", k: -1, expected: []Coords[float64]{}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := tree.Nearests(Coords[float64]{1.5, 2.5, 1.8}, test.k)
			if err != nil {
				t.Fatalf("nearests: %v", err)
			}
			if len(got) != len(test.expected) {
				t.Fatalf("nearests length got: %d, expected: %d", len(got), len(test.expected))
			}
			for i := range got {
				if !slices.Equal(got[i].Item, test.expected[i]) {
					t.Errorf("nearests[%d] got: %v, expected: %v", i, got[i].Item, test.expected[i])
				}
			}
		})
	}
}

func TestTree_WithinRadius(t *testing.T) {
	t.Parallel()
	tree, err := BuildByOrderedFloat[float64](triangle)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tests := []struct {
		name     string
		radius   float64
		expected []Coords[float64]
	}{
		{name: "positive", radius: 1.5, expected: []Coords[float64]{{1, 2, 3}, {3, 1, 2}}},
		{name: "empty", radius: 0.5, expected: nil},
		{name: "negative", radius: -1, expected: nil},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := tree.WithinRadius(Coords[float64]{2, 1.5, 2.5}, test.radius)
			if err != nil {
				t.Fatalf("within radius: %v", err)
			}
			if got == nil {
				t.Fatalf("within radius must return a non-nil slice")
			}
			if len(got) != len(test.expected) {
				t.Fatalf("within radius got: %s, expected: %v", spew.Sdump(got), test.expected)
			}
			for _, e := range test.expected {
				if !slices.ContainsFunc(got, func(r ItemAndDistance[Coords[float64], float64]) bool {
					return slices.Equal(r.Item, e)
				}) {
					t.Errorf("within radius is missing %v in %s", e, spew.Sdump(got))
				}
			}
		})
	}
}

func TestTree_Empty(t *testing.T) {
	t.Parallel()
	tree, err := Build[int]([]Coords[int]{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tree.Len() != 0 || tree.Dim() != 0 {
		t.Errorf("empty tree got len %d dim %d", tree.Len(), tree.Dim())
	}
	if _, ok, err := tree.Nearest(Coords[int]{1, 2, 3}); ok || err != nil {
		t.Errorf("nearest on empty tree got ok: %v, err: %v", ok, err)
	}
	if got, err := tree.Nearests(Coords[int]{1, 2}, 3); len(got) != 0 || err != nil {
		t.Errorf("nearests on empty tree got: %v, err: %v", got, err)
	}
	if got, err := tree.WithinRadius(Coords[int]{1}, 10); len(got) != 0 || err != nil {
		t.Errorf("within radius on empty tree got: %v, err: %v", got, err)
	}
	if got, err := tree.Within([]Range[int]{{Min: 0, Max: 10}}); len(got) != 0 || err != nil {
		t.Errorf("within on empty tree got: %v, err: %v", got, err)
	}
	if !tree.Root().IsLeaf() || !tree.Root().IsEmpty() {
		t.Errorf("the root of an empty tree must be an empty leaf")
	}
}

func TestTree_SinglePoint(t *testing.T) {
	t.Parallel()
	tree, err := Build[int]([]Coords[int]{{4, 4}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[int]{0, 0})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if got.SquaredDistance != 32 {
		t.Errorf("squared distance got: %d, expected: 32", got.SquaredDistance)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()
	nan := math.NaN()
	tests := []struct {
		name     string
		build    func() error
		expected error
	}{
		{
			name: "mixed dimensions",
			build: func() error {
				_, err := Build[int]([]Coords[int]{{1, 2}, {1, 2, 3}})
				return err
			},
			expected: ErrInvalidDimension,
		},
		{
			name: "zero dimension",
			build: func() error {
				_, err := Build[int]([]Coords[int]{{}, {}})
				return err
			},
			expected: ErrZeroDimension,
		},
		{
			name: "nan coordinate",
			build: func() error {
				_, err := BuildByOrderedFloat[float64]([]Coords[float64]{{1, 2}, {nan, 2}})
				return err
			},
			expected: ErrNonFiniteScalar,
		},
		{
			name: "nan through accessor",
			build: func() error {
				_, err := BuildBy([]float64{1, nan}, 1, func(v float64, _ int) float64 { return v })
				return err
			},
			expected: ErrNonFiniteScalar,
		},
		{
			name: "explicit zero dimension",
			build: func() error {
				_, err := BuildBy([]int{1}, 0, func(v int, _ int) int { return v })
				return err
			},
			expected: ErrZeroDimension,
		},
		{
			name: "nil accessor",
			build: func() error {
				_, err := BuildBy[int]([]int{1}, 1, nil)
				return err
			},
			expected: ErrNilCoordinate,
		},
		{
			name: "nil comparator",
			build: func() error {
				_, err := BuildByCompare([]int{1}, 1, nil, func(v int, _ int) int { return v })
				return err
			},
			expected: ErrNilCoordinate,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if err := test.build(); !errors.Is(err, test.expected) {
				t.Errorf("build error got: %v, expected: %v", err, test.expected)
			}
		})
	}
}

func TestTree_QueryErrors(t *testing.T) {
	t.Parallel()
	tree, err := BuildByOrderedFloat[float64](triangle)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tests := []struct {
		name     string
		query    Point[float64]
		expected error
	}{
		{name: "short", query: Coords[float64]{1, 2}, expected: ErrInvalidDimension},
		{name: "long", query: Coords[float64]{1, 2, 3, 4}, expected: ErrInvalidDimension},
		{name: "nil", query: nil, expected: ErrInvalidDimension},
		{name: "nan", query: Coords[float64]{1, math.NaN(), 3}, expected: ErrNonFiniteScalar},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := tree.Nearest(test.query); !errors.Is(err, test.expected) {
				t.Errorf("nearest error got: %v, expected: %v", err, test.expected)
			}
			if _, err := tree.Nearests(test.query, 2); !errors.Is(err, test.expected) {
				t.Errorf("nearests error got: %v, expected: %v", err, test.expected)
			}
			if _, err := tree.WithinRadius(test.query, 1); !errors.Is(err, test.expected) {
				t.Errorf("within radius error got: %v, expected: %v", err, test.expected)
			}
		})
	}
	if _, err := tree.Within([]Range[float64]{{Min: 0, Max: 1}}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("within error got: %v, expected: %v", err, ErrInvalidDimension)
	}
	if _, err := tree.WithinRadius(Coords[float64]{1, 2, 3}, math.NaN()); !errors.Is(err, ErrNonFiniteScalar) {
		t.Errorf("within nan radius error got: %v, expected: %v", err, ErrNonFiniteScalar)
	}
}

func TestTree_Infinity(t *testing.T) {
	t.Parallel()
	inf := math.Inf(1)
	tree, err := BuildByOrderedFloat[float64]([]Coords[float64]{{inf, 0}, {0, 0}, {-inf, 1}})
	if err != nil {
		t.Fatalf("infinite coordinates must be accepted: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[float64]{1, 0})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if !slices.Equal(got.Item, Coords[float64]{0, 0}) {
		t.Errorf("nearest got: %v, expected: [0 0]", got.Item)
	}

	query := Coords[float64]{inf, 5}
	got, ok, err = tree.Nearest(query)
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if !slices.Equal(got.Item, Coords[float64]{inf, 0}) || got.SquaredDistance != 25 {
		t.Errorf("nearest infinite query got: %v at %v, expected: [+Inf 0] at 25", got.Item, got.SquaredDistance)
	}
	all, err := tree.Nearests(query, 3)
	if err != nil {
		t.Fatalf("nearests: %v", err)
	}
	if len(all) != 3 || all[0].SquaredDistance != 25 || !math.IsInf(all[2].SquaredDistance, 1) {
		t.Errorf("nearests infinite query got: %v", all)
	}
	in, err := tree.WithinRadius(query, 6)
	if err != nil {
		t.Fatalf("within radius: %v", err)
	}
	if len(in) != 1 || !slices.Equal(in[0].Item, Coords[float64]{inf, 0}) {
		t.Errorf("within radius infinite query got: %v", in)
	}
}

func TestTree_Unsigned(t *testing.T) {
	t.Parallel()
	tree, err := Build[uint16]([]Coords[uint16]{{10, 10}, {0, 200}, {250, 5}, {3, 4}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[uint16]{1, 2})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if !slices.Equal(got.Item, Coords[uint16]{3, 4}) {
		t.Errorf("nearest got: %v, expected: [3 4]", got.Item)
	}
	if got.SquaredDistance != 8 {
		t.Errorf("squared distance got: %d, expected: 8", got.SquaredDistance)
	}
}

func TestTree_CopiesInput(t *testing.T) {
	t.Parallel()
	items := randomCoords(200, 2, 100)
	before := slices.Clone(items)
	tree, err := Build[int](items)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := range items {
		if !slices.Equal(items[i], before[i]) {
			t.Fatalf("build must not reorder the caller's slice, index %d", i)
		}
	}
	if err := tree.Check(); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestSort_Borrows(t *testing.T) {
	t.Parallel()
	items := randomCoords(300, 3, 50)
	s, err := Sort[int](items)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if &s.Items()[0] != &items[0] {
		t.Errorf("sort must partition the caller's storage in place")
	}
	if !ordered(items, 3, coordCompare(pointCoord[int, Coords[int]])) {
		t.Errorf("caller storage is not in kd order after sort")
	}
}

func TestFromOrdered(t *testing.T) {
	t.Parallel()
	coord := func(v int, _ int) int { return v }
	tests := []struct {
		name     string
		items    []int
		expected error
	}{
		{name: "positive", items: []int{1, 2, 3}, expected: nil},
		{name: "negative", items: []int{3, 2, 1}, expected: ErrUnordered},
		{name: "empty", items: []int{}, expected: nil},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			tree, err := FromOrdered(test.items, 1, coord)
			if !errors.Is(err, test.expected) {
				t.Fatalf("from ordered error got: %v, expected: %v", err, test.expected)
			}
			if err == nil && tree.Len() != len(test.items) {
				t.Errorf("from ordered length got: %d, expected: %d", tree.Len(), len(test.items))
			}
		})
	}
}

func TestFromOrdered_RoundTrip(t *testing.T) {
	t.Parallel()
	tree, err := Build[int](randomCoords(1000, 3, 1000))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	restored, err := FromOrdered(slices.Clone(tree.Items()), 3, pointCoord[int, Coords[int]])
	if err != nil {
		t.Fatalf("from ordered: %v", err)
	}
	q := Coords[int]{500, 500, 500}
	a, _, _ := tree.Nearest(q)
	b, _, _ := restored.Nearest(q)
	if a.SquaredDistance != b.SquaredDistance {
		t.Errorf("restored tree disagrees, got: %d, expected: %d", b.SquaredDistance, a.SquaredDistance)
	}
}

func TestBuildMap(t *testing.T) {
	t.Parallel()
	entries := []Entry[Coords[float64], string]{
		{Key: Coords[float64]{0, 0}, Value: "origin"},
		{Key: Coords[float64]{10, 0}, Value: "east"},
		{Key: Coords[float64]{0, 10}, Value: "north"},
	}
	tree, err := BuildMapByOrderedFloat[float64](entries)
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[float64]{9, 1})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if got.Item.Value != "east" {
		t.Errorf("nearest value got: %q, expected: %q", got.Item.Value, "east")
	}

	ints, err := BuildMap[int]([]Entry[Coords[int], int]{{Key: Coords[int]{1}, Value: 1}, {Key: Coords[int]{5}, Value: 5}})
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	res, err := ints.Nearests(Coords[int]{4}, 1)
	if err != nil || len(res) != 1 || res[0].Item.Value != 5 {
		t.Errorf("nearests on int map got: %s, err: %v", spew.Sdump(res), err)
	}
}

type city struct {
	name     string
	lat, lon int
}

func cityCoord(c city, axis int) int {
	if axis == 0 {
		return c.lat
	}
	return c.lon
}

func TestBuildByCompare(t *testing.T) {
	t.Parallel()
	cities := []city{{"a", 5, 5}, {"b", 1, 9}, {"c", 7, 2}, {"d", 3, 3}, {"e", 8, 8}}
	compare := func(a, b city, axis int) int {
		return cityCoord(a, axis) - cityCoord(b, axis)
	}
	tree, err := BuildByCompare(cities, 2, compare, cityCoord)
	if err != nil {
		t.Fatalf("build by compare: %v", err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[int]{2, 2})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if got.Item.name != "d" {
		t.Errorf("nearest got: %q, expected: %q", got.Item.name, "d")
	}

	s, err := SortByCompare(cities, 2, compare, cityCoord)
	if err != nil {
		t.Fatalf("sort by compare: %v", err)
	}
	if err := s.Check(); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestTree_NearestBy(t *testing.T) {
	t.Parallel()
	tree, err := BuildBy([]city{{"a", 0, 0}, {"b", 10, 10}}, 2, cityCoord)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, _, err := tree.NearestBy(Coords[int]{1, 1}, nil); !errors.Is(err, ErrNilCoordinate) {
		t.Errorf("nearest by with nil accessor got: %v, expected: %v", err, ErrNilCoordinate)
	}
	got, _, err := tree.NearestBy(Coords[int]{9, 9}, cityCoord)
	if err != nil || got.Item.name != "b" {
		t.Errorf("nearest by got: %v, err: %v", got.Item, err)
	}
}
