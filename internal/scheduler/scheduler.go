// Package scheduler periodically invokes Refresh() on connectors.Refresher
// implementations (spec §4.4's delta-refresh connectors, e.g. microsoft's
// SharePoint sites) using robfig/cron, the same scheduling library and
// job-registry shape as the teacher's scheduler service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/locator"
)

// jobEntry tracks one registered refresh job.
type jobEntry struct {
	name      string
	schedule  string
	entryID   cron.EntryID
	lastRun   *time.Time
	lastError string
}

// Service runs a robfig/cron scheduler that drives connectors.Refresher
// connectors on their configured cadence.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	jobMu   sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// NewService builds an idle scheduler; call Start to begin firing jobs.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterRefresher schedules refresher.Refresh to run on the given cron
// expression. onRefreshed receives the locators Refresh reports changed,
// typically to persist them via the alias/history stores.
func (s *Service) RegisterRefresher(name, schedule string, refresher connectors.Refresher, onRefreshed func(ctx context.Context, changed []locator.Locator)) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}

	entry := &jobEntry{name: name, schedule: schedule}
	handler := func() { s.runJob(name, refresher, onRefreshed) }

	entryID, err := s.cron.AddFunc(schedule, handler)
	if err != nil {
		return fmt.Errorf("scheduler: register %q: %w", name, err)
	}
	entry.entryID = entryID
	s.jobs[name] = entry
	return nil
}

func (s *Service) runJob(name string, refresher connectors.Refresher, onRefreshed func(ctx context.Context, changed []locator.Locator)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_name", name).Str("panic", fmt.Sprintf("%v", r)).Msg("panic recovered in refresh job")
		}
	}()

	ctx := context.Background()
	start := time.Now()
	changed, err := refresher.Refresh(ctx)

	s.jobMu.Lock()
	if entry, ok := s.jobs[name]; ok {
		now := time.Now()
		entry.lastRun = &now
		if err != nil {
			entry.lastError = err.Error()
		} else {
			entry.lastError = ""
		}
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().Str("job_name", name).Err(err).Dur("duration", time.Since(start)).Msg("refresh job failed")
		return
	}

	s.logger.Debug().Str("job_name", name).Int("changed", len(changed)).Dur("duration", time.Since(start)).Msg("refresh job completed")
	if onRefreshed != nil && len(changed) > 0 {
		onRefreshed(ctx, changed)
	}
}

// Start begins firing registered jobs on their schedules.
func (s *Service) Start() {
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("scheduler stopped")
}
