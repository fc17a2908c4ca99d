// Package scheduler triggers sync runs on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner performs one sync. Overlapping calls are the runner's concern.
type Runner interface {
	RunOnce(ctx context.Context)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context)

// RunOnce calls f(ctx).
func (f RunnerFunc) RunOnce(ctx context.Context) { f(ctx) }

// Scheduler calls a Runner every interval. A zero interval disables the
// ticker until SetInterval enables it.
type Scheduler struct {
	runner  Runner
	logger  *slog.Logger
	onStart bool

	mu       sync.Mutex
	interval time.Duration
	resetCh  chan struct{}
}

// New creates a Scheduler. When onStart is set, Run triggers one sync before
// waiting for the first tick.
func New(runner Runner, interval time.Duration, onStart bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		onStart:  onStart,
		interval: interval,
		resetCh:  make(chan struct{}, 1),
	}
}

// Interval returns the current interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the interval; the next tick is rescheduled from now.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	changed := s.interval != d
	s.interval = d
	s.mu.Unlock()
	if !changed {
		return
	}
	select {
	case s.resetCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler: started", slog.Duration("interval", s.Interval()), slog.Bool("on_start", s.onStart))
	if s.onStart {
		s.runner.RunOnce(ctx)
	}

	for {
		var tick <-chan time.Time
		var timer *time.Timer
		if d := s.Interval(); d > 0 {
			timer = time.NewTimer(d)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("scheduler: stopped")
			return nil
		case <-s.resetCh:
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("scheduler: interval changed", slog.Duration("interval", s.Interval()))
		case <-tick:
			s.runner.RunOnce(ctx)
		}
	}
}
