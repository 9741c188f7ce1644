// Package jobs runs background maintenance tasks on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var ErrUnknownJob = errors.New("unknown job")

type Job interface {
	Name() string
	// Schedule is a cron spec. An empty schedule registers an on-demand job.
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	// timeout bounds a single scheduled run.
	timeout time.Duration
}

func NewScheduler(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Register adds job, scheduling it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	if spec := job.Schedule(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
		log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("job scheduled")
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) runScheduled(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := log.With().Str("job", job.Name()).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return
	}
	logger.Info().Dur("took", time.Since(start)).Msg("job completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.jobs)).Msg("job scheduler started")
}

// Stop halts scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("job scheduler stopped before running jobs finished")
	}
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}
