package kd

import (
	"github.com/go-sod/kd/internal/database"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/persist"
	"github.com/go-sod/kd/internal/query"
	"github.com/go-sod/kd/internal/setup"
	snapshotredis "github.com/go-sod/kd/internal/snapshot/redis"
	snapshotsqlite "github.com/go-sod/kd/internal/snapshot/sqlite"
)

var (
	_ setup.SnapshotStoreConfigProvider = (*Config)(nil)
	_ setup.DatabaseConfigProvider      = (*Config)(nil)
	_ setup.RedisConfigProvider         = (*Config)(nil)
	_ setup.SQLiteConfigProvider        = (*Config)(nil)
	_ setup.PersistConfigProvider       = (*Config)(nil)
	_ setup.BuildConfigProvider         = (*Config)(nil)
	_ setup.ManifestConfigProvider      = (*Config)(nil)
)

type Config struct {
	SrvAddr     string `envconfig:"KD_ADDR" default:":8787"`
	GRPCAddr    string `envconfig:"KD_GRPC_ADDR" default:":8788"`
	MetricsAddr string `envconfig:"KD_METRICS_ADDR" default:":9090"`
	MaxConns    int    `envconfig:"KD_MAX_CONNS" default:"0"`
	AuthToken   string `envconfig:"KD_AUTH_TOKEN"`
	Manifest    string `envconfig:"KD_MANIFEST"`
	StoreType   string `envconfig:"KD_SNAPSHOT_STORE" default:"none"`
	// Workers 0 uses every available CPU.
	Workers   int `envconfig:"KD_BUILD_WORKERS" default:"1"`
	Threshold int `envconfig:"KD_BUILD_THRESHOLD" default:"0"`
	Query     query.Config
	Database  database.Config
	Redis     snapshotredis.Config
	SQLite    snapshotsqlite.Config
	Persist   persist.Config
	Logging   logging.Config
}

func (c Config) SnapshotStore() string {
	return c.StoreType
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) RedisConfig() *snapshotredis.Config {
	return &c.Redis
}

func (c Config) SQLiteConfig() *snapshotsqlite.Config {
	return &c.SQLite
}

func (c Config) PersistConfig() *persist.Config {
	return &c.Persist
}

func (c Config) BuildWorkers() int {
	return c.Workers
}

func (c Config) BuildThreshold() int {
	return c.Threshold
}

func (c Config) ManifestPath() string {
	return c.Manifest
}
