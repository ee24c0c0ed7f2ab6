package services

import (
	"context"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportPath = "csv/warehouse_counts.csv"

func newInventory(t *testing.T, csv string) (*InventoryService, *storage.LocalDisk, *recordingNotifier) {
	t.Helper()
	repos := newRepos(t)
	disk := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, disk.Put(context.Background(), exportPath, []byte(csv)))
	feeds := &recordingNotifier{}
	return NewInventoryService(repos, disk, exportPath, feeds), disk, feeds
}

func TestReconcileAppliesValidRows(t *testing.T) {
	svc, _, feeds := newInventory(t, "SKU1,10\nSKU2,abc\nid=2025-01-01T00:00:00.000Z,stock=08:00")
	seedVariation(t, svc.repos, "Tee", "SKU1", "10", 0)
	seedVariation(t, svc.repos, "Mug", "SKU2", "5", 7)

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	require.Len(t, report.ValidRows, 1)
	assert.Equal(t, "SKU1", report.ValidRows[0].SKU)
	assert.Equal(t, []string{"SKU2,abc"}, report.UnparsedRows)
	require.NotNil(t, report.StockExportTime)
	assert.Equal(t, "08:00", *report.StockExportTime)

	assert.Equal(t, 10, stockOf(t, svc.repos, "SKU1"))
	assert.Equal(t, 7, stockOf(t, svc.repos, "SKU2"))

	events := feeds.all()
	require.Len(t, events, 1)
	assert.Equal(t, SourceReconcile, events[0].Source)
}

func TestReconcileIsAllOrNothing(t *testing.T) {
	svc, _, feeds := newInventory(t, "SKU1,10\nGHOST,4\n")
	seedVariation(t, svc.repos, "Tee", "SKU1", "10", 1)

	_, err := svc.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 1, stockOf(t, svc.repos, "SKU1"))
	assert.Empty(t, feeds.all())
}

func TestReconcileMissingFile(t *testing.T) {
	repos := newRepos(t)
	svc := NewInventoryService(repos, storage.NewLocal(t.TempDir(), ""), exportPath, nil)

	_, err := svc.Reconcile(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestReconcileWritesReport(t *testing.T) {
	svc, disk, _ := newInventory(t, "SKU1,2\n")
	seedVariation(t, svc.repos, "Tee", "SKU1", "10", 1)
	svc.WithReportDir("reports")
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	body, err := disk.Get(context.Background(), "reports/reconcile-20250101T000000Z.json")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"sku": "SKU1"`)
}
