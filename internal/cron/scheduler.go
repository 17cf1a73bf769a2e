package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// entry pairs a job with the lock that keeps its runs from overlapping.
type entry struct {
	job     Job
	running sync.Mutex
}

// Scheduler runs registered jobs on their cron schedules. A tick that finds
// the previous run of the same job still going is skipped.
type Scheduler struct {
	mu      sync.Mutex
	runner  *cron.Cron
	entries []*entry
	byName  map[string]*entry
	logger  *slog.Logger

	jobCtx context.Context
	cancel context.CancelFunc
}

// NewScheduler returns an idle scheduler. Register jobs before Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	jobCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		byName: make(map[string]*entry),
		logger: logger.With("component", "cron"),
		jobCtx: jobCtx,
		cancel: cancel,
	}
}

// RegisterJob adds j. Job names are unique within a scheduler.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byName[j.Name()]; dup {
		return fmt.Errorf("cron: job %q already registered", j.Name())
	}
	e := &entry{job: j}
	s.byName[j.Name()] = e
	s.entries = append(s.entries, e)
	return nil
}

// Start schedules every registered job. Nothing is scheduled if any
// expression fails to parse.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runner := cron.New(cron.WithParser(parser))
	for _, e := range s.entries {
		if _, err := runner.AddFunc(e.job.Schedule(), func() { s.run(e) }); err != nil {
			return fmt.Errorf("cron: job %q: bad schedule %q: %w", e.job.Name(), e.job.Schedule(), err)
		}
	}

	runner.Start()
	s.runner = runner
	s.logger.Info("scheduler started", "jobs", len(s.entries))
	return nil
}

// Trigger runs the named job now, outside its schedule. It returns false
// for an unknown job or one that is already running.
func (s *Scheduler) Trigger(name string) bool {
	s.mu.Lock()
	e := s.byName[name]
	s.mu.Unlock()

	if e == nil {
		return false
	}
	return s.run(e)
}

func (s *Scheduler) run(e *entry) bool {
	name := e.job.Name()
	if !e.running.TryLock() {
		s.logger.Warn("job still running, skipping", "job", name)
		return false
	}
	defer e.running.Unlock()

	if err := e.job.Run(s.jobCtx); err != nil {
		s.logger.Error("job failed", "job", name, "error", err)
		return true
	}
	s.logger.Debug("job done", "job", name)
	return true
}

// Stop cancels the context handed to jobs and waits for running ones.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.runner == nil {
		return nil
	}
	<-s.runner.Stop().Done()
	s.runner = nil
	s.logger.Info("scheduler stopped")
	return nil
}
