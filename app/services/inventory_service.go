package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/csvstock"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

// InventoryService overwrites stock levels from the warehouse CSV export.
type InventoryService struct {
	repos     *repositories.Repositories
	disk      storage.Disk
	csvPath   string
	reportDir string
	feeds     StockNotifier
	now       func() time.Time
}

// NewInventoryService reads the export at csvPath on disk. feeds may be nil.
func NewInventoryService(repos *repositories.Repositories, disk storage.Disk, csvPath string, feeds StockNotifier) *InventoryService {
	return &InventoryService{repos: repos, disk: disk, csvPath: csvPath, feeds: feeds, now: time.Now}
}

// WithReportDir makes every run also write its report as JSON under dir on
// the same disk.
func (s *InventoryService) WithReportDir(dir string) *InventoryService {
	s.reportDir = dir
	return s
}

// Reconcile parses the export and applies every valid row in a single
// transaction. Either all rows apply or none do; a SKU missing from the
// catalogue aborts the run.
func (s *InventoryService) Reconcile(ctx context.Context) (*csvstock.Report, error) {
	log := logger.WithCtx(ctx)

	raw, err := s.disk.Get(ctx, s.csvPath)
	if err != nil {
		log.Error("inventory export unreadable", "path", s.csvPath, "error", err)
		return nil, fmt.Errorf("read %s: %w", s.csvPath, err)
	}
	report := csvstock.Parse(string(raw))

	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		for _, row := range report.ValidRows {
			ok, err := tx.Variations.SetStock(ctx, row.SKU, row.Stock)
			if err != nil {
				return fmt.Errorf("set stock %s: %w", row.SKU, err)
			}
			if !ok {
				return apperr.NotFound("SKU not found: %s", row.SKU)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("inventory reconciliation rolled back", "path", s.csvPath, "rows", len(report.ValidRows), "error", err)
		return nil, err
	}

	metrics.ReconcileRows.WithLabelValues("applied").Add(float64(len(report.ValidRows)))
	metrics.ReconcileRows.WithLabelValues("unparsed").Add(float64(len(report.UnparsedRows)))
	attrs := []any{"applied", len(report.ValidRows), "unparsed", len(report.UnparsedRows)}
	if report.StockExportTime != nil {
		attrs = append(attrs, "stock_export_time", *report.StockExportTime)
	}
	log.Info("inventory reconciled", attrs...)
	if len(report.UnparsedRows) > 0 {
		log.Warn("inventory rows skipped", "rows", report.UnparsedRows)
	}

	if s.feeds != nil {
		at := s.now().UTC()
		for _, row := range report.ValidRows {
			_ = s.feeds.NotifyStock(ctx, StockEvent{SKU: row.SKU, NewStock: row.Stock, Source: SourceReconcile, At: at})
		}
	}

	s.writeReport(ctx, &report)
	return &report, nil
}

func (s *InventoryService) writeReport(ctx context.Context, report *csvstock.Report) {
	if s.reportDir == "" {
		return
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	name := path.Join(s.reportDir, "reconcile-"+s.now().UTC().Format("20060102T150405Z")+".json")
	if err := s.disk.Put(ctx, name, body); err != nil {
		logger.WithCtx(ctx).Warn("reconcile report not written", "path", name, "error", err)
	}
}
