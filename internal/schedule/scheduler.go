package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of scheduled work. Errors are logged, never fatal; the
// next tick fires regardless.
type Task func(ctx context.Context) error

// Scheduler fires a named task on a fixed interval. The crawl trigger and
// the retention cleanups run on one of these each.
type Scheduler struct {
	name     string
	task     Task
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// New creates a scheduler that runs task every interval.
func New(name string, task Task, logger *zerolog.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		task:     task,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic loop. Blocks until the context ends or Stop is
// called; run it on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Str("task", s.name).
		Dur("interval", s.interval).
		Msg("Starting scheduler")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("task", s.name).Msg("Scheduler stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Str("task", s.name).Msg("Scheduler stopping (stop signal)")
			return
		case <-ticker.C:
			started := time.Now()
			if err := s.task(ctx); err != nil {
				s.logger.Error().Str("task", s.name).Err(err).Msg("Scheduled task failed")
				continue
			}
			s.logger.Debug().
				Str("task", s.name).
				Dur("took", time.Since(started)).
				Msg("Scheduled task finished")
		}
	}
}

// Stop signals the scheduler to stop
func (s *Scheduler) Stop() {
	close(s.stopChan)
}
