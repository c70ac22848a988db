package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/kd/internal/database"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/metrics"
	"github.com/go-sod/kd/internal/persist"
	"github.com/go-sod/kd/internal/server"
	"github.com/go-sod/kd/internal/snapshot"
	snapshotdb "github.com/go-sod/kd/internal/snapshot/database"
	snapshotredis "github.com/go-sod/kd/internal/snapshot/redis"
	snapshotsqlite "github.com/go-sod/kd/internal/snapshot/sqlite"
	"github.com/go-sod/kd/internal/srvenv"
)

const (
	StoreNone   string = "none"
	StoreBolt   string = "bolt"
	StoreRedis  string = "redis"
	StoreSQLite string = "sqlite"

	MetricsNamespace = "kd"
)

type SnapshotStoreConfigProvider interface {
	SnapshotStore() string
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type RedisConfigProvider interface {
	RedisConfig() *snapshotredis.Config
}

type SQLiteConfigProvider interface {
	SQLiteConfig() *snapshotsqlite.Config
}

type PersistConfigProvider interface {
	PersistConfig() *persist.Config
}

type BuildConfigProvider interface {
	BuildWorkers() int
	BuildThreshold() int
}

type ManifestConfigProvider interface {
	ManifestPath() string
}

// Setup processes config from the environment and assembles the service
// environment: snapshot store, metrics exporter, health service and the
// index registry, with the manifest indexes loaded.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var store snapshot.Store
	if storeConfigProvider, ok := config.(SnapshotStoreConfigProvider); ok {
		kind := storeConfigProvider.SnapshotStore()
		logger.Infof("configuring snapshot store: %s", kind)
		provided, opts, err := ProvideStoreFor(ctx, kind, config)
		if err != nil {
			return nil, err
		}
		store = provided
		serverEnvOpts = append(serverEnvOpts, opts...)
	}

	logger.Info("configuring metrics")
	if err := metrics.Register(); err != nil {
		closeOpts(ctx, serverEnvOpts)
		return nil, fmt.Errorf("unable to register metrics: %w", err)
	}
	exporter, err := metrics.NewExporter(MetricsNamespace)
	if err != nil {
		closeOpts(ctx, serverEnvOpts)
		return nil, fmt.Errorf("unable to create metrics exporter: %w", err)
	}
	serverEnvOpts = append(serverEnvOpts, srvenv.WithExporter(exporter))

	health := server.NewHealth()
	serverEnvOpts = append(serverEnvOpts, srvenv.WithHealth(health))

	registryOpts := []index.Option{index.WithNotify(health.SetIndex)}
	if store != nil {
		registryOpts = append(registryOpts, index.WithStore(store))
	}
	if buildConfigProvider, ok := config.(BuildConfigProvider); ok {
		registryOpts = append(registryOpts,
			index.WithParallel(buildConfigProvider.BuildWorkers()),
			index.WithParallelThreshold(buildConfigProvider.BuildThreshold()),
		)
	}
	registry := index.New(registryOpts...)
	serverEnvOpts = append(serverEnvOpts, srvenv.WithRegistry(registry))

	if persistConfigProvider, ok := config.(PersistConfigProvider); ok && persistConfigProvider.PersistConfig().Schedule != "" {
		spec := persistConfigProvider.PersistConfig().Schedule
		if store == nil {
			closeOpts(ctx, serverEnvOpts)
			return nil, fmt.Errorf("persist schedule %q needs a snapshot store", spec)
		}
		scheduler, err := persist.New(spec, registry)
		if err != nil {
			closeOpts(ctx, serverEnvOpts)
			return nil, err
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithScheduler(scheduler))
	}
	env := srvenv.New(serverEnvOpts...)

	if manifestConfigProvider, ok := config.(ManifestConfigProvider); ok && manifestConfigProvider.ManifestPath() != "" {
		path := manifestConfigProvider.ManifestPath()
		logger.Infof("loading manifest %s", path)
		manifest, err := LoadManifest(path)
		if err != nil {
			_ = env.Close(ctx)
			return nil, err
		}
		if err := manifest.Apply(ctx, registry); err != nil {
			_ = env.Close(ctx)
			return nil, fmt.Errorf("unable to apply manifest: %w", err)
		}
	}

	return env, nil
}

// ProvideStoreFor opens the snapshot store named by kind. The returned
// options hand the opened connections to the service environment.
func ProvideStoreFor(ctx context.Context, kind string, config interface{}) (snapshot.Store, []srvenv.Option, error) {
	switch kind {
	case StoreNone, "":
		return nil, nil, nil
	case StoreBolt:
		provider, ok := config.(DatabaseConfigProvider)
		if !ok {
			return nil, nil, fmt.Errorf("snapshot store %s needs database config", kind)
		}
		db, err := database.NewFromEnv(ctx, provider.DatabaseConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open database: %w", err)
		}
		return snapshotdb.New(db), []srvenv.Option{srvenv.WithDatabase(db)}, nil
	case StoreSQLite:
		provider, ok := config.(SQLiteConfigProvider)
		if !ok {
			return nil, nil, fmt.Errorf("snapshot store %s needs sqlite config", kind)
		}
		store, err := snapshotsqlite.Open(ctx, provider.SQLiteConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open sqlite: %w", err)
		}
		return store, []srvenv.Option{srvenv.WithSQLite(store)}, nil
	case StoreRedis:
		provider, ok := config.(RedisConfigProvider)
		if !ok {
			return nil, nil, fmt.Errorf("snapshot store %s needs redis config", kind)
		}
		cfg := provider.RedisConfig()
		client := snapshotredis.NewClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("unable to connect to redis %s: %w", cfg.Addr, err)
		}
		return snapshotredis.New(client, cfg.Prefix), []srvenv.Option{srvenv.WithRedis(client)}, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot store: %s", kind)
	}
}

// closeOpts releases the connections collected so far when setup fails.
func closeOpts(ctx context.Context, opts []srvenv.Option) {
	_ = srvenv.New(opts...).Close(ctx)
}
