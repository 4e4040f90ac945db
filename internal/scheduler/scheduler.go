package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper removes chart files older than maxAge.
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// Scheduler periodically sweeps chart artifacts that were never cleaned up,
// e.g. when the process died between rendering and delivery.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	maxAge    time.Duration
}

// New creates a new Scheduler.
func New(sweeper Sweeper, interval, maxAge time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		maxAge:    maxAge,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
// The first sweep runs immediately.
func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		log.Println("scheduler: no sweeper configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce() {
	removed, err := s.sweeper.Sweep(s.maxAge)
	if err != nil {
		log.Printf("scheduler: chart sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("scheduler: removed %d stale chart file(s)", removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
