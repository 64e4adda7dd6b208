// Package scheduler runs recurring jobs on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MinInterval is the shortest accepted job interval
const MinInterval = time.Second

// Job is a unit of scheduled work
type Job func(ctx context.Context)

var (
	// ErrRunning is returned when jobs are changed on a running scheduler
	ErrRunning = errors.New("scheduler is running")
	// ErrNoJobs is returned when starting a scheduler with nothing scheduled
	ErrNoJobs = errors.New("no jobs scheduled")
)

// Scheduler manages interval jobs. A tick that fires while the previous run
// of the same job is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Entry

	mu        sync.RWMutex
	isRunning bool
	jobIDs    map[string]cron.EntryID
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry)), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: entry,
		jobIDs: make(map[string]cron.EntryID),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ScheduleEvery runs job every interval under the given name
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule %s: %w", name, ErrRunning)
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	if interval < MinInterval {
		interval = MinInterval
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs[name] = entryID
	s.logger.WithFields(logrus.Fields{"job": name, "interval": interval.String()}).Info("Scheduled job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrRunning
	}
	if len(s.jobIDs) == 0 {
		return ErrNoJobs
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop cancels running jobs and waits for them to return or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	s.isRunning = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// Jobs returns the names of scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}

// Remove removes a scheduled job
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove %s: %w", name, ErrRunning)
	}
	id, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("job %s not scheduled", name)
	}

	s.cron.Remove(id)
	delete(s.jobIDs, name)
	return nil
}
