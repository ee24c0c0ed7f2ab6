package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T) *repositories.Repositories {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = migration.New(db).Run(context.Background())
	require.NoError(t, err)
	return repositories.New(db)
}

// seedVariation creates a product with a single variation.
func seedVariation(t *testing.T, repos *repositories.Repositories, name, sku, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name: name,
		Variations: []models.ProductVariation{
			{SKU: sku, Price: decimal.RequireFromString(price), Stock: stock},
		},
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, repos *repositories.Repositories, sku string) int {
	t.Helper()
	v, err := repos.Variations.FindBySKU(context.Background(), sku)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v.Stock
}

type dispatched struct {
	name string
	job  queue.Job
	opts queue.Options
}

// recordingQueue captures dispatched jobs instead of running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []dispatched
	err  error
}

func (q *recordingQueue) Dispatch(_ context.Context, name string, job queue.Job, opts queue.Options) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, dispatched{name: name, job: job, opts: opts})
	return nil
}

func (q *recordingQueue) all() []dispatched {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]dispatched(nil), q.jobs...)
}

// recordingNotifier captures stock events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []StockEvent
	err    error
}

func (n *recordingNotifier) NotifyStock(_ context.Context, ev StockEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) all() []StockEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]StockEvent(nil), n.events...)
}
