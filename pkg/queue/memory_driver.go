package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryDriver is an in-process, channel-backed driver for development and
// tests. Jobs do not survive a restart.
type MemoryDriver struct {
	ch chan []byte

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewMemoryDriver creates an in-memory queue buffering up to 1000 jobs.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, 1000), timers: map[*time.Timer]struct{}{}}
}

func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushDelayed holds payload in a timer until delay elapses.
func (d *MemoryDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return context.Canceled
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, t)
		d.mu.Unlock()
		_ = d.Push(context.Background(), payload)
	})
	d.timers[t] = struct{}{}
	return nil
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len is the number of jobs ready to run.
func (d *MemoryDriver) Len() int { return len(d.ch) }

// Pending is the number of jobs waiting on a retry delay.
func (d *MemoryDriver) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Close drops every pending delayed job.
func (d *MemoryDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for t := range d.timers {
		t.Stop()
	}
	d.timers = map[*time.Timer]struct{}{}
}
