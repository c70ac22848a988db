package kdtree

import (
	"slices"

	"github.com/valyala/fastrand"
)

func randomCoords(n, dim int, max uint32) []Coords[int] {
	points := make([]Coords[int], n)
	for i := range points {
		p := make(Coords[int], dim)
		for k := range p {
			p[k] = int(fastrand.Uint32n(max))
		}
		points[i] = p
	}
	return points
}

func randomQuery(dim int, max uint32) Coords[int] {
	return randomCoords(1, dim, max)[0]
}

func bruteDistances(points []Coords[int], query Coords[int]) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = squaredDistance[Coords[int], int](query, p, pointCoord[int, Coords[int]])
	}
	slices.Sort(out)
	return out
}

func distancesOf[T any, S Scalar](res []ItemAndDistance[T, S]) []S {
	out := make([]S, len(res))
	for i := range res {
		out[i] = res[i].SquaredDistance
	}
	return out
}

func inBox(p Coords[int], box []Range[int]) bool {
	for k, r := range box {
		if p[k] < r.Min || p[k] > r.Max {
			return false
		}
	}
	return true
}
