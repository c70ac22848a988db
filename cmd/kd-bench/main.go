package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/kd/internal/buildinfo"
)

var (
	numPoints int
	dimension int
	scale     float64
	indexName string
)

var rootCmd = &cobra.Command{
	Use:   "kd-bench",
	Short: "Benchmark kd-tree construction and queries",
	Long: `kd-bench generates random points and measures how long it takes to
build a kd-tree over them and to answer nearest neighbour queries, either
in process (local) or against a running kd-srv (remote).`,
	Version:      buildinfo.Info.Tag(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&numPoints, "points", "n", 100000, "Number of random points")
	rootCmd.PersistentFlags().IntVarP(&dimension, "dim", "d", 3, "Dimension of every point")
	rootCmd.PersistentFlags().Float64Var(&scale, "scale", 1000, "Coordinates are drawn from [0, scale)")
	rootCmd.PersistentFlags().StringVar(&indexName, "index", "bench", "Index name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
