package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// RunFunc executes one tracking pass.
type RunFunc func(ctx context.Context) error

// Scheduler drives the watch mode: a tracking pass on a fixed cadence for
// deployments without an external timer. Each pass is independent; a failed
// pass is logged and the next one runs as scheduled.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	interval    time.Duration
	passTimeout time.Duration
	run         RunFunc
}

// New creates a Scheduler invoking run every interval. A pass may
// legitimately outlast its cadence (many stations, slow provider), so its
// timeout gets headroom beyond the interval; overlapping tracking windows
// make a late pass harmless.
func New(interval time.Duration, run RunFunc) *Scheduler {
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		interval:    interval,
		passTimeout: 4 * interval,
		run:         run,
	}
}

// Start schedules the periodic pass and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 600
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(s.runPass)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.passTimeout)
	defer cancel()

	err := s.run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("scheduler: tracking pass cancelled after exceeding the %s pass timeout: %v",
			s.passTimeout, err)
	default:
		log.Printf("scheduler: tracking pass failed: %v", err)
	}
}

// Stop stops the scheduler and cancels any future passes.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
