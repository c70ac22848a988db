package srvenv

import (
	"context"
	"errors"
	"fmt"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/go-redis/redis/v8"

	"github.com/go-sod/kd/internal/database"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/persist"
	"github.com/go-sod/kd/internal/server"
	snapshotsqlite "github.com/go-sod/kd/internal/snapshot/sqlite"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database  *database.DB
	redis     *redis.Client
	sqlite    *snapshotsqlite.Store
	scheduler *persist.Scheduler
	registry  *index.Registry
	health    *server.Health
	exporter  *prometheus.Exporter
}

func (s *SrvEnv) Registry() *index.Registry {
	return s.registry
}

func (s *SrvEnv) Health() *server.Health {
	return s.health
}

func (s *SrvEnv) Exporter() *prometheus.Exporter {
	return s.exporter
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

// Scheduler is nil when scheduled snapshots are disabled.
func (s *SrvEnv) Scheduler() *persist.Scheduler {
	return s.scheduler
}

func WithRegistry(registry *index.Registry) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = registry
		return s
	}
}

func WithHealth(health *server.Health) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.health = health
		return s
	}
}

func WithExporter(exporter *prometheus.Exporter) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.exporter = exporter
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithSQLite(store *snapshotsqlite.Store) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.sqlite = store
		return s
	}
}

func WithScheduler(scheduler *persist.Scheduler) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.scheduler = scheduler
		return s
	}
}

func WithRedis(client *redis.Client) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.redis = client
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.health != nil {
		s.health.Shutdown()
	}

	var errs []error
	if s.database != nil {
		if err := s.database.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
