package geom

import (
	"errors"
	"math"
)

var (
	ErrDimNotEqual = errors.New("vectors dimension is not equal")
	ErrNoPoints    = errors.New("no points to scan")
)

// SquaredDistance is the metric every tree query ranks by.
func SquaredDistance(p, q Point) (float64, error) {
	if len(p) != len(q) {
		return 0, ErrDimNotEqual
	}
	var d float64
	for i := range p {
		diff := p[i] - q[i]
		d += diff * diff
	}
	return d, nil
}

func Distance(p, q Point) (float64, error) {
	d, err := SquaredDistance(p, q)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(d), nil
}

// ScanNearest finds the closest of points to q by a linear scan. Ties keep
// the earliest position.
func ScanNearest(points []Point, q Point) (int, float64, error) {
	if len(points) == 0 {
		return -1, 0, ErrNoPoints
	}
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		d, err := SquaredDistance(p, q)
		if err != nil {
			return -1, 0, err
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist, nil
}
