package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/go-sod/kd/internal/buildinfo"
	kd "github.com/go-sod/kd/internal/config"
	"github.com/go-sod/kd/internal/httputil"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/query"
	"github.com/go-sod/kd/internal/server"
	"github.com/go-sod/kd/internal/setup"
	"github.com/go-sod/kd/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()

	logger := logging.NewLoggerFromEnv()
	ctx = logging.WithLogger(ctx, logger)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := kd.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	srv, err := server.New(config.SrvAddr, config.MaxConns)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(config.GRPCAddr, config.MaxConns)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	metricsSrv, err := server.New(config.MetricsAddr, 0)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	api := http.NewServeMux()
	query.NewHandler(&config.Query, env.Registry()).Register(api)

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/", httputil.RequireBearer(config.AuthToken, api))

	// pprof handlers live on the default mux.
	http.Handle("/metrics", env.Exporter())

	gs := grpc.NewServer()
	env.Health().Register(gs)

	logger.Infof("serving http on %s, grpc on %s, metrics on %s", srv.Addr(), grpcSrv.Addr(), metricsSrv.Addr())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ServeHTTPHandler(gCtx, mux)
	})
	g.Go(func() error {
		return grpcSrv.ServeGRPC(gCtx, gs)
	})
	g.Go(func() error {
		return metricsSrv.ServeHTTPHandler(gCtx, http.DefaultServeMux)
	})
	if scheduler := env.Scheduler(); scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(gCtx)
		})
	}
	return g.Wait()
}
