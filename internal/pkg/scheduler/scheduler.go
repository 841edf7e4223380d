package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
)

// Reminder sends reminders for events taking place on the next day.
type Reminder interface {
	SendEventReminders(now time.Time) int
}

// Flusher writes buffered counters to the database.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// EventCloser closes open events whose registration deadline has passed.
type EventCloser interface {
	CloseExpired(now time.Time) (int64, error)
}

// Invalidator drops cached aggregates.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Cleaner prunes expired in-memory state.
type Cleaner interface {
	Cleanup()
}

type Schedules struct {
	Reminders    string
	CounterFlush string
	EventClose   string
	Cleanup      string
}

type Jobs struct {
	Reminder Reminder
	Counter  Flusher
	Events   EventCloser
	Stats    Invalidator
	Login    Cleaner
}

// Scheduler runs the periodic maintenance jobs of the portal.
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	now  func() time.Time
}

func New(jobs Jobs) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: jobs,
		now:  time.Now,
	}
}

// Register adds every job that has both a schedule and an implementation.
func (s *Scheduler) Register(sch Schedules) error {
	type entry struct {
		name string
		spec string
		ok   bool
		fn   func()
	}
	entries := []entry{
		{"event reminders", sch.Reminders, s.jobs.Reminder != nil, s.runReminders},
		{"counter flush", sch.CounterFlush, s.jobs.Counter != nil, s.runCounterFlush},
		{"event close", sch.EventClose, s.jobs.Events != nil, s.runEventClose},
		{"login cleanup", sch.Cleanup, s.jobs.Login != nil, s.runCleanup},
	}
	for _, e := range entries {
		if e.spec == "" || !e.ok {
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			return fmt.Errorf("schedule %s %q: %w", e.name, e.spec, err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Infof("[Scheduler] started with %d jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[Scheduler] stopped")
}

func (s *Scheduler) runReminders() {
	n := s.jobs.Reminder.SendEventReminders(s.now())
	log.Infof("[Scheduler] event reminders sent: %d", n)
}

func (s *Scheduler) runCounterFlush() {
	n, err := s.jobs.Counter.Flush(context.Background())
	if err != nil {
		log.Errorf("[Scheduler] counter flush: %v", err)
	}
	if n > 0 && s.jobs.Stats != nil {
		s.jobs.Stats.Invalidate(context.Background())
	}
}

func (s *Scheduler) runEventClose() {
	n, err := s.jobs.Events.CloseExpired(s.now().UTC())
	if err != nil {
		log.Errorf("[Scheduler] closing expired events: %v", err)
		return
	}
	if n == 0 {
		return
	}
	log.Infof("[Scheduler] closed %d events past their registration deadline", n)
	if s.jobs.Stats != nil {
		s.jobs.Stats.Invalidate(context.Background())
	}
}

func (s *Scheduler) runCleanup() {
	s.jobs.Login.Cleanup()
}
