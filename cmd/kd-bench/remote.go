package main

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/kd/internal/buildinfo"
	"github.com/go-sod/kd/internal/httputil"
	"github.com/go-sod/kd/internal/integration"
)

var (
	remoteAddr        string
	remoteToken       string
	remoteUser        string
	remotePassword    string
	remoteQueries     int
	remoteBatch       int
	remoteK           int
	remoteConcurrency int
	remoteKeep        bool
	remoteTimeout     time.Duration
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Build an index on a running kd-srv and load it with queries",
	Long: `Upload random points to a running kd-srv as a new index, then send
batches of k-nearest queries concurrently and report latency percentiles.

Examples:
  kd-bench remote --addr localhost:8787 -n 100000 --queries 10000 --batch 100 --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemote(cmd.Context())
	},
}

func init() {
	remoteCmd.Flags().StringVar(&remoteAddr, "addr", "localhost:8787", "kd-srv address")
	remoteCmd.Flags().StringVar(&remoteToken, "token", "", "Bearer token")
	remoteCmd.Flags().StringVar(&remoteUser, "user", "", "Basic auth user")
	remoteCmd.Flags().StringVar(&remotePassword, "password", "", "Basic auth password")
	remoteCmd.Flags().IntVar(&remoteQueries, "queries", 10000, "Number of queries")
	remoteCmd.Flags().IntVar(&remoteBatch, "batch", 100, "Queries per request")
	remoteCmd.Flags().IntVarP(&remoteK, "k", "k", 10, "Neighbours per query")
	remoteCmd.Flags().IntVar(&remoteConcurrency, "concurrency", 8, "Requests in flight")
	remoteCmd.Flags().BoolVar(&remoteKeep, "keep", false, "Keep the index after the run")
	remoteCmd.Flags().DurationVar(&remoteTimeout, "timeout", time.Minute, "Per request timeout")

	rootCmd.AddCommand(remoteCmd)
}

func runRemote(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validate(numPoints, dimension); err != nil {
		return err
	}
	if remoteBatch <= 0 || remoteConcurrency <= 0 {
		return fmt.Errorf("batch and concurrency must be positive")
	}

	cfg := httputil.HTTPClientConfig{
		BearerToken: remoteToken,
		UserAgent:   "kd-bench/" + buildinfo.BuildTag,
		Timeout:     remoteTimeout,
	}
	if remoteUser != "" {
		cfg.BasicAuth = &httputil.BasicAuth{Username: remoteUser, Password: remotePassword}
	}
	client, err := integration.NewClient(remoteAddr, cfg)
	if err != nil {
		return err
	}

	points := randomPoints(numPoints, dimension, scale)
	rows := make([][]float64, len(points))
	for i, p := range points {
		rows[i] = p
	}
	start := time.Now()
	info, err := client.Build(ctx, integration.BuildRequest{Name: indexName, Points: rows})
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	fmt.Printf("build:    %d points, dim %d, %v\n", info.Len, info.Dimension, time.Since(start))
	if !remoteKeep {
		defer func() {
			if err := client.Drop(context.Background(), indexName); err != nil {
				fmt.Printf("drop index %s: %v\n", indexName, err)
			}
		}()
	}

	queries := randomPoints(remoteQueries, dimension, scale)
	var (
		mtx       sync.Mutex
		latencies []time.Duration
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(remoteConcurrency)
	start = time.Now()
	for lo := 0; lo < len(queries); lo += remoteBatch {
		hi := min(lo+remoteBatch, len(queries))
		batch := make([][]float64, 0, hi-lo)
		for _, q := range queries[lo:hi] {
			batch = append(batch, q)
		}
		g.Go(func() error {
			began := time.Now()
			if _, err := client.Nearests(gCtx, integration.NearestsRequest{Index: indexName, K: remoteK, Queries: batch}); err != nil {
				return err
			}
			took := time.Since(began)
			mtx.Lock()
			latencies = append(latencies, took)
			mtx.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("query index: %w", err)
	}
	total := time.Since(start)

	slices.Sort(latencies)
	fmt.Printf("nearests: %d queries in %d requests, %v (%.0f queries/s)\n",
		len(queries), len(latencies), total, float64(len(queries))/total.Seconds())
	if len(latencies) > 0 {
		fmt.Printf("latency:  p50 %v, p95 %v, p99 %v\n",
			percentile(latencies, 50), percentile(latencies, 95), percentile(latencies, 99))
	}
	return nil
}

func percentile(sorted []time.Duration, p int) time.Duration {
	i := (len(sorted)*p + 99) / 100
	if i > 0 {
		i--
	}
	return sorted[i]
}
