// Package schedule runs recurring tasks on cron expressions or fixed
// intervals, evaluated in a configurable time zone.
//
//	s := schedule.New(loc)
//	s.Cron("0 0 * * *").Name("inventory:reconcile").WithoutOverlapping().Run(job)
//	s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

// entry represents a single scheduled job.
type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	cron      *CronSpec
	task      Task
	lastRun   time.Time
	lastSlot  time.Time // minute a cron entry last fired in
	running   bool
	noOverlap bool
	mu        sync.Mutex
}

// Scheduler owns a set of entries and the loop that dispatches them.
type Scheduler struct {
	loc *time.Location

	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	errs    []error
}

// New creates a scheduler that evaluates cron fields in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{loc: loc}
}

// Schedule is a fluent builder for a single entry before it is registered.
type Schedule struct {
	s *Scheduler
	e *entry
}

// Cron schedules using a 5-field expression (minute hour dom month dow).
// An invalid expression is reported by Run.
func (s *Scheduler) Cron(expr string) *Schedule {
	spec, err := ParseCron(expr)
	if err != nil {
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
	return &Schedule{s: s, e: &entry{cronExpr: expr, cron: spec}}
}

// Every schedules the task every d, first running on the first tick.
func (s *Scheduler) Every(d time.Duration) *Schedule {
	return &Schedule{s: s, e: &entry{interval: d}}
}

// Daily runs at midnight in the scheduler's zone.
func (s *Scheduler) Daily() *Schedule { return s.Cron("0 0 * * *") }

// WithoutOverlapping prevents a new run while the previous one is executing.
func (b *Schedule) WithoutOverlapping() *Schedule {
	b.e.noOverlap = true
	return b
}

// Name gives the entry an identifier for logging and listing.
func (b *Schedule) Name(id string) *Schedule {
	b.e.id = id
	return b
}

// Run registers the task.
func (b *Schedule) Run(fn Task) error {
	if b.e.cronExpr != "" && b.e.cron == nil {
		return fmt.Errorf("schedule: invalid cron %q", b.e.cronExpr)
	}
	if b.e.cronExpr == "" && b.e.interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive")
	}

	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

// ------------------- Scheduler loop -------------------

// Start ticks every second until ctx is cancelled, then waits for running
// tasks to return.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: scheduler started", "zone", s.loc.String(), "entries", len(s.List()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	now = now.In(s.loc)
	for _, e := range current {
		if s.claim(e, now) {
			s.dispatch(ctx, e)
		}
	}
}

// Wait blocks until all dispatched tasks have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// claim decides whether e is due at now and, if so, marks it as fired.
func (s *Scheduler) claim(e *entry, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cron != nil {
		slot := now.Truncate(time.Minute)
		if !e.cron.Match(now) || slot.Equal(e.lastSlot) {
			return false
		}
		e.lastSlot = slot
	} else if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		return false
	}

	if e.noOverlap && e.running {
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return false
	}
	e.running = true
	e.lastRun = now
	return true
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		start := time.Now()
		logger.Info("schedule: running task", "id", e.id)
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err, "duration", time.Since(start).String())
			return
		}
		logger.Info("schedule: task finished", "id", e.id, "duration", time.Since(start).String())
	}()
}

// List returns the registered entries for CLI display.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s %s]", e.id, freq, s.loc))
	}
	return out
}
