// Package schedule recomposes the build matrix periodically, picking up inputs
// the config watcher cannot see, such as new commits when the version is
// resolved from git.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// JobName identifies the recomposition job in gocron.
const JobName = "recompose"

// RecomposeFunc performs one recomposition.
type RecomposeFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler; jobs do not run until Start.
func NewScheduler(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, errors.InternalError("failed to create gocron scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRecompose runs fn every interval. Runs never overlap; a run still in
// progress when the next one is due causes that one to be skipped.
func (s *Scheduler) ScheduleRecompose(ctx context.Context, interval time.Duration, fn RecomposeFunc) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("Executing scheduled recomposition", slog.Duration("interval", interval))
			if err := fn(ctx); err != nil {
				slog.Error("Scheduled recomposition failed", logfields.Error(err))
			}
		}),
		gocron.WithName(JobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.InternalError("failed to create recomposition job").
			WithCause(err).
			WithContext("interval", interval.String()).
			Build()
	}
	return job.ID().String(), nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
