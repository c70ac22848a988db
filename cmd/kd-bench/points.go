package main

import (
	"fmt"

	"github.com/valyala/fastrand"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/internal/index"
)

func validate(n, dim int) error {
	if n <= 0 {
		return fmt.Errorf("points must be positive, got %d", n)
	}
	if dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", dim)
	}
	return nil
}

func randomPoints(n, dim int, scale float64) []geom.Point {
	points := make([]geom.Point, n)
	for i := range points {
		p := make(geom.Point, dim)
		for j := range p {
			p[j] = float64(fastrand.Uint32()) / (1 << 32) * scale
		}
		points[i] = p
	}
	return points
}

func records(points []geom.Point) []index.Record {
	res := make([]index.Record, len(points))
	for i, p := range points {
		res[i] = index.Record{Key: p, Value: fmt.Sprintf("p%d", i)}
	}
	return res
}
