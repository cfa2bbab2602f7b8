// Package scheduler turns a cron expression into sync jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/mailbox"
	"github.com/edutenorio/FolderTracker/internal/worker"
)

// Scheduler puts a job into the mailbox on every cron tick. Ticks that land
// while a sync is still running collapse into one pending job.
type Scheduler struct {
	mu    sync.RWMutex
	spec  string
	cron  *cron.Cron
	entry cron.EntryID

	log logging.Logger
	mb  *mailbox.Mailbox[worker.Job]
	now func() time.Time
}

// New registers spec, a standard five-field expression or a descriptor such
// as "@every 15m".
func New(spec string, log logging.Logger, mb *mailbox.Mailbox[worker.Job]) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  logging.OrNop(log),
		mb:   mb,
		now:  time.Now,
	}
	if err := s.UpdateConfig(spec); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the cron loop until ctx is cancelled, then waits for a tick
// in progress to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting scheduler", "cron", s.Spec(), "next", s.Next())
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Trigger requests a sync outside the schedule.
func (s *Scheduler) Trigger(reason string) {
	s.log.Debug("sync requested", "reason", reason)
	s.mb.Put(worker.Job{Reason: reason, Timestamp: s.now()})
}

func (s *Scheduler) Spec() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spec
}

// Next is the time of the upcoming tick, zero before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.RLock()
	id := s.entry
	s.mu.RUnlock()
	return s.cron.Entry(id).Next
}

func parse(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return sched, nil
}
