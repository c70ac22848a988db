package geom

import (
	"errors"
	"math"
)

var ErrNaN = errors.New("point has a NaN coordinate")

// Point is a float vector usable as a kd-tree item and query.
type Point []float64

func NewPoint(vec []float64) Point {
	return vec
}

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Dim(idx int) float64 {
	return v[idx]
}

// Validate rejects NaN coordinates. Infinities are allowed.
func (v Point) Validate() error {
	for i := range v {
		if math.IsNaN(v[i]) {
			return ErrNaN
		}
	}
	return nil
}

// Points converts raw coordinate rows, checking that they share one dimension.
func Points(rows [][]float64) ([]Point, error) {
	out := make([]Point, len(rows))
	for i := range rows {
		if i > 0 && len(rows[i]) != len(rows[0]) {
			return nil, ErrDimNotEqual
		}
		p := NewPoint(rows[i])
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
