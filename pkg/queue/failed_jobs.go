package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// FailedJobRecord is a dead-lettered job persisted for manual inspection.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID    string    `gorm:"size:36;index" json:"jobId"`
	JobType  string    `gorm:"size:255;not null;index" json:"jobType"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `json:"failedAt"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// deadLetter persists the job when a store is configured, then records it
// in memory.
func (m *Manager) deadLetter(ctx context.Context, env envelope, cause error) {
	now := time.Now().UTC()

	if m.store != nil {
		record := FailedJobRecord{
			JobID:    env.ID,
			JobType:  env.Type,
			Payload:  string(env.Payload),
			Error:    cause.Error(),
			Attempts: env.Attempt,
			FailedAt: now,
		}
		if err := m.store.WithContext(context.WithoutCancel(ctx)).Create(&record).Error; err != nil {
			logger.Error("queue: persist failed job", "job_id", env.ID, "type", env.Type, "error", err)
		}
	}

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		ID: env.ID, Type: env.Type, Payload: env.Payload,
		Err: cause, FailedAt: now, Attempts: env.Attempt,
	})
	m.mu.Unlock()
}

// ListFailed returns the persisted dead-letter records, newest first.
func (m *Manager) ListFailed(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	if m.store == nil {
		return nil, fmt.Errorf("queue: no failed job store configured")
	}
	var out []FailedJobRecord
	err := m.store.WithContext(ctx).Order("failed_at desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}

// Retry re-dispatches a persisted dead-letter with a fresh attempt budget
// and removes its record.
func (m *Manager) Retry(ctx context.Context, id uint, opts Options) error {
	if m.store == nil {
		return fmt.Errorf("queue: no failed job store configured")
	}

	var rec FailedJobRecord
	if err := m.store.WithContext(ctx).First(&rec, id).Error; err != nil {
		return fmt.Errorf("queue: load failed job %d: %w", id, err)
	}

	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	raw, err := json.Marshal(envelope{
		ID:        rec.JobID,
		Type:      rec.JobType,
		Payload:   json.RawMessage(rec.Payload),
		Attempts:  opts.Attempts,
		BackoffMS: opts.Backoff.Milliseconds(),
	})
	if err != nil {
		return err
	}
	if err := m.driver.Push(ctx, raw); err != nil {
		return err
	}
	return m.store.WithContext(ctx).Delete(&FailedJobRecord{}, rec.ID).Error
}
