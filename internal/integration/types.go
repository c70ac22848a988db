package integration

import (
	"fmt"
	"time"
)

type BuildRequest struct {
	Name    string      `json:"name"`
	Points  [][]float64 `json:"points"`
	Labels  []string    `json:"labels,omitempty"`
	Persist bool        `json:"persist,omitempty"`
}

type IndexInfo struct {
	Name      string    `json:"name"`
	Len       int       `json:"len"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"builtAt"`
}

type Hit struct {
	Label           string    `json:"label"`
	Point           []float64 `json:"point"`
	SquaredDistance float64   `json:"squaredDistance"`
}

type Item struct {
	Label string    `json:"label"`
	Point []float64 `json:"point"`
}

type NearestRequest struct {
	Index   string      `json:"index"`
	Queries [][]float64 `json:"queries"`
}

type NearestResponse struct {
	Index   string `json:"index"`
	Results []*Hit `json:"results"`
}

type NearestsRequest struct {
	Index   string      `json:"index"`
	K       int         `json:"k"`
	Queries [][]float64 `json:"queries"`
}

type WithinRequest struct {
	Index   string      `json:"index"`
	Radius  float64     `json:"radius"`
	Queries [][]float64 `json:"queries"`
}

type HitsResponse struct {
	Index   string  `json:"index"`
	Results [][]Hit `json:"results"`
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type WithinBoxRequest struct {
	Index string    `json:"index"`
	Boxes [][]Range `json:"boxes"`
}

type ItemsResponse struct {
	Index   string   `json:"index"`
	Results [][]Item `json:"results"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kd: status %d: %s", e.Status, e.Message)
}
