package kdtree

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestIndexTree(t *testing.T) {
	t.Parallel()
	source := randomCoords(700, 3, 200)
	before := slices.Clone(source)
	tree, err := BuildIndex[int](source, WithParallel(2), WithParallelThreshold(32))
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	for i := range source {
		if !slices.Equal(source[i], before[i]) {
			t.Fatalf("index tree must not reorder its source, index %d", i)
		}
	}
	if tree.Len() != len(source) || tree.Dim() != 3 {
		t.Errorf("index tree got len %d dim %d", tree.Len(), tree.Dim())
	}
	sorted := slices.Clone(tree.Indices())
	slices.Sort(sorted)
	for i, idx := range sorted {
		if i != idx {
			t.Fatalf("indices are not a permutation of the source")
		}
	}

	q := Coords[int]{100, 100, 100}
	brute := bruteDistances(source, q)
	res, err := tree.Nearests(q, 5)
	if err != nil {
		t.Fatalf("nearests: %v", err)
	}
	for i, r := range res {
		if r.SquaredDistance != brute[i] {
			t.Errorf("nearests[%d] distance got: %d, expected: %d", i, r.SquaredDistance, brute[i])
		}
		item := tree.Item(r.Item)
		if d := squaredDistance[Coords[int], int](q, item, pointCoord[int, Coords[int]]); d != r.SquaredDistance {
			t.Errorf("index %d does not reference an item at distance %d", r.Item, r.SquaredDistance)
		}
	}
	nearest, ok, err := tree.Nearest(q)
	if err != nil || !ok || nearest.SquaredDistance != brute[0] {
		t.Errorf("nearest got: %v, ok: %v, err: %v", nearest, ok, err)
	}
	within, err := tree.WithinRadius(q, 30)
	if err != nil {
		t.Fatalf("within radius: %v", err)
	}
	var expected int
	for _, d := range brute {
		if d <= 900 {
			expected++
		}
	}
	if len(within) != expected {
		t.Errorf("within radius count got: %d, expected: %d", len(within), expected)
	}
	box, err := tree.Within([]Range[int]{{Min: 0, Max: 50}, {Min: 0, Max: 50}, {Min: 0, Max: 50}})
	if err != nil {
		t.Fatalf("within: %v", err)
	}
	for _, i := range box {
		if !inBox(tree.Item(i), []Range[int]{{Min: 0, Max: 50}, {Min: 0, Max: 50}, {Min: 0, Max: 50}}) {
			t.Errorf("within returned index %d outside the box", i)
		}
	}
	if &tree.Source()[0] != &source[0] {
		t.Errorf("index tree must borrow its source")
	}
}

func TestIndexTree_Float(t *testing.T) {
	t.Parallel()
	tree, err := BuildIndexByOrderedFloat[float64](triangle)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	got, ok, err := tree.Nearest(Coords[float64]{3.1, 0.1, 2.2})
	if err != nil || !ok {
		t.Fatalf("nearest failed, ok: %v, err: %v", ok, err)
	}
	if got.Item != 1 {
		t.Errorf("nearest index got: %d, expected: 1", got.Item)
	}
	if _, err := BuildIndexByOrderedFloat[float64]([]Coords[float64]{{math.NaN()}}); !errors.Is(err, ErrNonFiniteScalar) {
		t.Errorf("build index with NaN got: %v, expected: %v", err, ErrNonFiniteScalar)
	}
}

func TestIndexTree_By(t *testing.T) {
	t.Parallel()
	cities := []city{{"a", 5, 5}, {"b", 1, 9}, {"c", 7, 2}}
	tree, err := BuildIndexBy(cities, 2, cityCoord)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	res, err := tree.NearestsBy(Coords[int]{6, 3}, 1, cityCoord)
	if err != nil || len(res) != 1 {
		t.Fatalf("nearests by got: %v, err: %v", res, err)
	}
	if tree.Item(res[0].Item).name != "c" {
		t.Errorf("nearest city got: %q, expected: %q", tree.Item(res[0].Item).name, "c")
	}
	if _, err := tree.WithinRadiusBy(Coords[int]{6, 3}, 1, nil); !errors.Is(err, ErrNilCoordinate) {
		t.Errorf("within radius by with nil accessor got: %v, expected: %v", err, ErrNilCoordinate)
	}
	if _, err := BuildIndexBy(cities, 0, cityCoord); !errors.Is(err, ErrZeroDimension) {
		t.Errorf("build index with zero dimension got: %v, expected: %v", err, ErrZeroDimension)
	}
}
