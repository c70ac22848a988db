// Package persist snapshots every published index on a cron schedule and
// once more on shutdown.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/snapshot"
)

const flushTimeout = 30 * time.Second

type Config struct {
	// Standard cron expression or descriptor such as "@every 5m". Empty
	// disables scheduled snapshots.
	Schedule string `envconfig:"KD_PERSIST_SCHEDULE"`
}

// Persister is the part of the index registry the scheduler drives.
type Persister interface {
	Names() []string
	Persist(ctx context.Context, name string) (snapshot.Snapshot, error)
}

type Scheduler struct {
	spec      string
	schedule  cron.Schedule
	persister Persister
}

func New(spec string, persister Persister) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid persist schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, persister: persister}, nil
}

// PersistAll snapshots every index and returns the joined failures.
func (s *Scheduler) PersistAll(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	var errs []error
	for _, name := range s.persister.Names() {
		if _, err := s.persister.Persist(ctx, name); err != nil {
			logger.Errorf("persist index %s: %v", name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run blocks until ctx is done, then persists a last time.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.PersistAll(ctx)
	}))
	c.Start()
	logger.Infof("persist: snapshots scheduled %s", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()

	flushCtx, done := context.WithTimeout(context.Background(), flushTimeout)
	defer done()
	flushCtx = logging.WithLogger(flushCtx, logger)
	if err := s.PersistAll(flushCtx); err != nil {
		return fmt.Errorf("final persist: %w", err)
	}
	logger.Infof("persist: final snapshots written")
	return nil
}
