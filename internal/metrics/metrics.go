// Package metrics records index build and query statistics with OpenCensus
// and exports them for Prometheus.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const (
	ModeNearest      = "nearest"
	ModeNearests     = "nearests"
	ModeWithinRadius = "within"
	ModeWithinBox    = "within_box"
)

var (
	BuildLatency = stats.Float64("kd/build_latency", "Index construction latency", stats.UnitMilliseconds)
	IndexPoints  = stats.Int64("kd/index_points", "Points held by an index", stats.UnitDimensionless)
	QueryLatency = stats.Float64("kd/query_latency", "Query latency", stats.UnitMilliseconds)
	QueryResults = stats.Int64("kd/query_results", "Items returned by a query", stats.UnitDimensionless)
)

var (
	KeyIndex = tag.MustNewKey("index")
	KeyMode  = tag.MustNewKey("mode")
)

var latencyBounds = view.Distribution(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000)

var Views = []*view.View{
	{
		Name:        "kd/build_latency",
		Measure:     BuildLatency,
		Description: "Distribution of index construction latency",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: latencyBounds,
	},
	{
		Name:        "kd/index_points",
		Measure:     IndexPoints,
		Description: "Points held by the published index",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.LastValue(),
	},
	{
		Name:        "kd/query_latency",
		Measure:     QueryLatency,
		Description: "Distribution of query latency",
		TagKeys:     []tag.Key{KeyIndex, KeyMode},
		Aggregation: latencyBounds,
	},
	{
		Name:        "kd/query_count",
		Measure:     QueryResults,
		Description: "Number of queries served",
		TagKeys:     []tag.Key{KeyIndex, KeyMode},
		Aggregation: view.Count(),
	},
	{
		Name:        "kd/query_results",
		Measure:     QueryResults,
		Description: "Distribution of result sizes",
		TagKeys:     []tag.Key{KeyIndex, KeyMode},
		Aggregation: view.Distribution(0, 1, 2, 5, 10, 50, 100, 1000, 10000),
	},
}

func Register() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

// NewExporter builds an HTTP handler serving the registered views and the
// build info of the running binary.
func NewExporter(namespace string) (*prometheus.Exporter, error) {
	registry := prom.NewRegistry()
	if err := registry.Register(version.NewCollector(namespace)); err != nil {
		return nil, fmt.Errorf("register build info: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: namespace,
		Registry:  registry,
	})
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	return exporter, nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func RecordBuild(ctx context.Context, index string, took time.Duration, points int) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyIndex, index)},
		BuildLatency.M(milliseconds(took)),
		IndexPoints.M(int64(points)),
	)
}

func RecordQuery(ctx context.Context, index, mode string, took time.Duration, results int) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyIndex, index), tag.Upsert(KeyMode, mode)},
		QueryLatency.M(milliseconds(took)),
		QueryResults.M(int64(results)),
	)
}
