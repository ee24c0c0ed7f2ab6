// Package queue runs background jobs with per-job retry policies.
//
// Jobs are registered by name, dispatched as JSON envelopes onto a Driver
// and executed by workers started with Work. A failing job is re-queued
// after an exponentially growing delay until its attempts are exhausted,
// then dead-lettered: kept in memory, written to the failed_jobs table when
// a store is configured, and logged.
//
//	m := queue.NewManager(queue.NewMemoryDriver(), queue.WithStore(db))
//	m.Register("stock.notify", func() queue.Job { return &jobs.StockNotification{} })
//	m.Dispatch(ctx, "stock.notify", job, queue.Options{Attempts: 5, Backoff: time.Second})
//	go m.Work(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"gorm.io/gorm"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	// Handle executes the job. Return a non-nil error to signal failure.
	Handle(ctx context.Context) error
}

// Options is the retry policy of one dispatched job.
type Options struct {
	// Attempts is the total number of executions allowed, including the first.
	Attempts int
	// Backoff is the delay before the first retry; each further retry doubles it.
	Backoff time.Duration
}

// DefaultOptions runs a job once with no retry.
var DefaultOptions = Options{Attempts: 1}

// Delay returns the wait before running attempt+1 after attempt failed.
func (o Options) Delay(attempt int) time.Duration {
	if o.Backoff <= 0 || attempt < 1 {
		return 0
	}
	return o.Backoff * time.Duration(1<<uint(attempt-1))
}

// FailedJob is a dead-lettered job.
type FailedJob struct {
	ID       string
	Type     string
	Payload  json.RawMessage
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
	// Pop blocks until a payload is ready. It may return (nil, nil) when a
	// poll times out without work.
	Pop(ctx context.Context) ([]byte, error)
}

type envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	Attempts  int             `json:"attempts"`
	BackoffMS int64           `json:"backoffMs"`
}

func (e envelope) options() Options {
	return Options{Attempts: e.Attempts, Backoff: time.Duration(e.BackoffMS) * time.Millisecond}
}

// ------------------- Manager -------------------

// Manager is the central queue hub.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	store    *gorm.DB
	timeout  time.Duration
}

type ManagerOption func(*Manager)

// WithStore persists dead-lettered jobs into db's failed_jobs table.
func WithStore(db *gorm.DB) ManagerOption {
	return func(m *Manager) { m.store = db }
}

// WithJobTimeout bounds a single Handle call.
func WithJobTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.timeout = d }
}

func NewManager(d Driver, opts ...ManagerOption) *Manager {
	m := &Manager{
		driver:   d,
		registry: map[string]func() Job{},
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes a job type available for decoding by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// ------------------- Dispatch -------------------

// Dispatch enqueues job under the registered name with the given policy.
func (m *Manager) Dispatch(ctx context.Context, name string, job Job, opts Options) error {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", name, err)
	}

	raw, err := json.Marshal(envelope{
		ID:        uuid.NewString(),
		Type:      name,
		Payload:   payload,
		Attempts:  opts.Attempts,
		BackoffMS: opts.Backoff.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	return m.driver.Push(ctx, raw)
}

// ------------------- Worker -------------------

// Work runs n workers and blocks until ctx is cancelled and every worker
// has returned.
func (m *Manager) Work(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
	logger.Info("queue: workers stopped")
}

func (m *Manager) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		m.process(ctx, raw)
	}
}

// process runs one delivery of raw and schedules its retry or dead-letter.
func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}
	env.Attempt++
	log := logger.L.With("job_id", env.ID, "type", env.Type, "attempt", env.Attempt, "attempts", env.Attempts)

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		log.Error("queue: unregistered job type")
		m.deadLetter(ctx, env, fmt.Errorf("unregistered job type %q", env.Type))
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		log.Error("queue: unmarshal payload", "error", err)
		m.deadLetter(ctx, env, err)
		return
	}

	start := time.Now()
	err := m.handle(ctx, job)
	if err == nil {
		metrics.RecordQueueJob(env.Type, "success", start)
		log.Debug("queue: job processed")
		return
	}
	metrics.RecordQueueJob(env.Type, "failed", start)

	if env.Attempt >= env.Attempts {
		log.Error("queue: job exhausted retries", "error", err)
		m.deadLetter(ctx, env, err)
		return
	}

	delay := env.options().Delay(env.Attempt)
	log.Warn("queue: job failed, retrying", "error", err, "delay", delay.String())

	next, merr := json.Marshal(env)
	if merr == nil {
		merr = m.driver.PushDelayed(context.WithoutCancel(ctx), next, delay)
	}
	if merr != nil {
		log.Error("queue: reschedule failed", "error", merr)
		m.deadLetter(ctx, env, err)
	}
}

func (m *Manager) handle(ctx context.Context, job Job) (err error) {
	jctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: job panicked: %v", r)
		}
	}()
	return job.Handle(jctx)
}

// FailedJobs returns a snapshot of the jobs dead-lettered by this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
