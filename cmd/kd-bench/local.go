package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/logging"
)

var (
	localWorkers int
	localOut     string
	localVerify  int
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Build a tree in process and query every point against it",
	Long: `Build a tree over random points and look up the nearest neighbour of
every point. Each lookup must find the point itself at distance zero.

Examples:
  # one million 3-D points built on four workers
  kd-bench local -n 1000000 --workers 4

  # keep the tree as a snapshot for kd-srv
  kd-bench local -n 50000 --out bench.kd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd.Context())
	},
}

func init() {
	localCmd.Flags().IntVar(&localWorkers, "workers", 1, "Build workers, 0 uses every CPU")
	localCmd.Flags().StringVar(&localOut, "out", "", "Write the built tree as a snapshot file")
	localCmd.Flags().IntVar(&localVerify, "verify", 100, "Random queries checked against a linear scan")

	rootCmd.AddCommand(localCmd)
}

func runLocal(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validate(numPoints, dimension); err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	points := randomPoints(numPoints, dimension, scale)
	registry := index.New(index.WithParallel(localWorkers))

	start := time.Now()
	idx, err := registry.Build(ctx, indexName, records(points))
	if err != nil {
		return err
	}
	built := time.Since(start)

	start = time.Now()
	for i, p := range points {
		res, ok, err := idx.Tree.Nearest(p)
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		if !ok || res.SquaredDistance != 0 {
			return fmt.Errorf("query %d: point %v not found in tree", i, p)
		}
	}
	queried := time.Since(start)

	if err := verify(idx, points, localVerify); err != nil {
		return err
	}

	fmt.Printf("build:   %d points, dim %d, %v (%v/point)\n", idx.Len(), idx.Dim(), built, built/time.Duration(numPoints))
	fmt.Printf("nearest: %d queries, %v (%v/query)\n", numPoints, queried, queried/time.Duration(numPoints))

	if localOut == "" {
		return nil
	}
	f, err := os.Create(localOut)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if _, err := registry.Encode(indexName, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	logger.Infof("snapshot written to %s", localOut)
	return nil
}

// verify compares tree answers for n random queries with a linear scan.
func verify(idx *index.Index, points []geom.Point, n int) error {
	if n <= 0 || len(points) == 0 {
		return nil
	}
	for i, q := range randomPoints(n, idx.Dim(), scale) {
		res, ok, err := idx.Tree.Nearest(q)
		if err != nil {
			return fmt.Errorf("verify query %d: %w", i, err)
		}
		_, want, err := geom.ScanNearest(points, q)
		if err != nil {
			return fmt.Errorf("verify query %d: %w", i, err)
		}
		if !ok || res.SquaredDistance != want {
			return fmt.Errorf("verify query %d: tree distance %v, scan distance %v", i, res.SquaredDistance, want)
		}
	}
	return nil
}
