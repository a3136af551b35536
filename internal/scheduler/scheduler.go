// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the site's periodic jobs on robfig/cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-community/internal/model"
)

// Job names.
const (
	JobPublishDue  = "publish_due"
	JobPruneEvents = "prune_events"
)

// Default schedules.
const (
	PublishDueSchedule  = "* * * * *"
	PruneEventsSchedule = "0 3 * * *"
)

// ErrUnknownJob is returned by Trigger for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Publisher publishes pages whose go-live time has passed.
type Publisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// EventPruner deletes event log rows older than a cutoff.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	LastError   string
	NextRun     time.Time
}

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
	lastRun     time.Time
	lastErr     error
}

// Scheduler handles scheduled tasks like publishing pages.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// RegisterDefaults adds the publishing job and, when retention is positive,
// the event pruning job.
func (s *Scheduler) RegisterDefaults(pages Publisher, events EventPruner, retention time.Duration) error {
	err := s.Add(JobPublishDue, "Publish pages whose go-live time has passed", PublishDueSchedule,
		func(ctx context.Context) error {
			n, err := pages.PublishDue(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Info("published scheduled pages", "count", n, "category", model.EventCategoryPage)
			}
			return nil
		})
	if err != nil {
		return err
	}
	if retention <= 0 || events == nil {
		return nil
	}
	return s.Add(JobPruneEvents, "Delete old event log entries", PruneEventsSchedule,
		func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Info("pruned event log", "deleted", n, "category", model.EventCategorySystem)
			}
			return nil
		})
}

// Add registers run under name with a five-field cron schedule.
func (s *Scheduler) Add(name, description, schedule string, run func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	j := &job{name: name, description: description, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Trigger runs a job immediately in the calling goroutine.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}
	return s.execute(j)
}

// Jobs lists registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     j.lastRun,
			NextRun:     s.cron.Entry(j.entryID).Next,
		}
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Scheduler) execute(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	err := j.run(ctx)

	s.mu.Lock()
	j.lastRun = time.Now()
	j.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err, "category", model.EventCategorySystem)
	}
	return err
}
