package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

var ErrAlreadyRunning = errors.New("greeting scheduler is already running")

const defaultCycleTimeout = 5 * time.Minute

// CycleRunner performs one greeting cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// GreetingScheduler wakes once per scheduled time, runs a greeting cycle and sleeps again
// until stopped. A failing or panicking cycle never ends the loop.
type GreetingScheduler struct {
	runner       CycleRunner
	schedule     WakeSchedule
	logger       *logrus.Entry
	now          func() time.Time
	cycleTimeout time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewGreetingScheduler(runner CycleRunner, schedule WakeSchedule, logger *logrus.Entry) *GreetingScheduler {
	return &GreetingScheduler{
		runner:       runner,
		schedule:     schedule,
		logger:       logger,
		now:          time.Now,
		cycleTimeout: defaultCycleTimeout,
	}
}

// Running reports whether the loop is in the RUNNING state.
func (s *GreetingScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start runs the greeting loop and blocks until Stop is called or ctx is cancelled.
// The first cycle runs immediately.
func (s *GreetingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.stopCh == stop {
			s.running = false
		}
		s.mu.Unlock()
	}()

	s.logger.Info("Birthday scheduler started")
	for !stopped(stop) {
		s.runCycle(ctx)

		now := s.now()
		wake := s.schedule.Next(now)
		metrics.NextWakeSeconds.Set(float64(wake.Unix()))
		s.logger.WithField("next_check", wake.Format(time.RFC3339)).Info("Next birthday check scheduled")

		timer := time.NewTimer(wake.Sub(now))
		select {
		case <-timer.C:
		case <-stop:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Context cancelled, stopping birthday scheduler")
			return nil
		}
	}
	s.logger.Info("Birthday scheduler stopped")
	return nil
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// Stop asks the loop to exit. It wakes a pending wait and is a no-op when not running.
func (s *GreetingScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.logger.Info("Stopping birthday scheduler...")
}

func (s *GreetingScheduler) runCycle(parent context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.GreetingCycles.WithLabelValues("panic").Inc()
			s.logger.WithField("panic", fmt.Sprint(r)).Error("Greeting cycle panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(parent, s.cycleTimeout)
	defer cancel()

	start := s.now()
	err := s.runner.RunCycle(ctx)
	logger := s.logger.WithField("duration", s.now().Sub(start).String())
	if err != nil {
		metrics.GreetingCycles.WithLabelValues("failed").Inc()
		logger.WithError(err).Error("Error in greeting cycle")
		return
	}
	metrics.GreetingCycles.WithLabelValues("ok").Inc()
	logger.Debug("Greeting cycle completed")
}
