package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// calls is shared by decoded job instances, which the manager builds fresh
// from their JSON payload on every attempt.
var (
	flakyCalls atomic.Int32
	failCalls  atomic.Int32
)

type flakyJob struct {
	FailTimes int32 `json:"failTimes"`
}

func (j *flakyJob) Handle(context.Context) error {
	if flakyCalls.Add(1) <= j.FailTimes {
		return errors.New("not yet")
	}
	return nil
}

type failJob struct{}

func (failJob) Handle(context.Context) error {
	failCalls.Add(1)
	return errors.New("always fails")
}

type panicJob struct{}

func (panicJob) Handle(context.Context) error { panic("boom") }

func newStore(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is its own database
	require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))
	return db
}

func start(t *testing.T, m *queue.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Work(ctx, 2)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestOptionsDelayIsExponential(t *testing.T) {
	o := queue.Options{Attempts: 5, Backoff: time.Second}

	assert.Equal(t, time.Second, o.Delay(1))
	assert.Equal(t, 2*time.Second, o.Delay(2))
	assert.Equal(t, 8*time.Second, o.Delay(4))
	assert.Equal(t, time.Duration(0), queue.Options{Attempts: 3}.Delay(1))
}

func TestRetriesUntilSuccess(t *testing.T) {
	flakyCalls.Store(0)
	m := queue.NewManager(queue.NewMemoryDriver())
	m.Register("flaky", func() queue.Job { return &flakyJob{} })
	start(t, m)

	require.NoError(t, m.Dispatch(context.Background(), "flaky", &flakyJob{FailTimes: 2},
		queue.Options{Attempts: 5, Backoff: 10 * time.Millisecond}))

	require.Eventually(t, func() bool { return flakyCalls.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), flakyCalls.Load())
	assert.Empty(t, m.FailedJobs())
}

func TestDeadLetterAfterAttempts(t *testing.T) {
	failCalls.Store(0)
	db := newStore(t)
	m := queue.NewManager(queue.NewMemoryDriver(), queue.WithStore(db))
	m.Register("fail", func() queue.Job { return &failJob{} })
	start(t, m)

	require.NoError(t, m.Dispatch(context.Background(), "fail", failJob{},
		queue.Options{Attempts: 3, Backoff: 5 * time.Millisecond}))

	require.Eventually(t, func() bool { return len(m.FailedJobs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), failCalls.Load())
	assert.Equal(t, 3, m.FailedJobs()[0].Attempts)

	records, err := m.ListFailed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fail", records[0].JobType)
	assert.Equal(t, "always fails", records[0].Error)
}

func TestPanicIsAFailure(t *testing.T) {
	m := queue.NewManager(queue.NewMemoryDriver())
	m.Register("panic", func() queue.Job { return &panicJob{} })
	start(t, m)

	require.NoError(t, m.Dispatch(context.Background(), "panic", panicJob{}, queue.DefaultOptions))

	require.Eventually(t, func() bool { return len(m.FailedJobs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, m.FailedJobs()[0].Err, "panicked")
}

func TestUnregisteredTypeIsDeadLettered(t *testing.T) {
	m := queue.NewManager(queue.NewMemoryDriver())
	start(t, m)

	require.NoError(t, m.Dispatch(context.Background(), "ghost", failJob{}, queue.DefaultOptions))

	require.Eventually(t, func() bool { return len(m.FailedJobs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ghost", m.FailedJobs()[0].Type)
}

func TestRetryRequeuesDeadLetter(t *testing.T) {
	db := newStore(t)
	d := queue.NewMemoryDriver()
	m := queue.NewManager(d, queue.WithStore(db))

	require.NoError(t, db.Create(&queue.FailedJobRecord{
		JobID: "j-1", JobType: "fail", Payload: `{}`, Error: "x", Attempts: 5, FailedAt: time.Now(),
	}).Error)
	records, err := m.ListFailed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, m.Retry(context.Background(), records[0].ID, queue.Options{Attempts: 2}))
	assert.Equal(t, 1, d.Len())

	records, err = m.ListFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryDriverDelayed(t *testing.T) {
	d := queue.NewMemoryDriver()
	require.NoError(t, d.PushDelayed(context.Background(), []byte("x"), 20*time.Millisecond))
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 1, d.Pending())

	require.Eventually(t, func() bool { return d.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.PushDelayed(context.Background(), []byte("y"), time.Hour))
	d.Close()
	assert.Equal(t, 0, d.Pending())
}
