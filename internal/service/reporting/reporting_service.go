package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
	"github.com/mamadbah2/coldstore/internal/repository/sheets"
)

const (
	dateLayout    = "2006-01-02"
	stockRange    = "Stock!A1"
	historyRange  = "History!A:E"
	sheetSections = 3
)

var reportModes = []inventory.Mode{inventory.ModeCurrent, inventory.ModeInitial, inventory.ModeOutgoing}

// Service exposes stock summaries, drill-downs and the daily report.
type Service struct {
	lots      mongodb.LotRepository
	snapshots mongodb.SnapshotRepository
	sheets    sheets.Repository
	sizes     []string
	logger    *zap.Logger
}

// NewService wires a new reporting service instance. sheetRepo may be nil
// when the sheet export is not configured.
func NewService(lots mongodb.LotRepository, snapshots mongodb.SnapshotRepository, sheetRepo sheets.Repository, sizes []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lots:      lots,
		snapshots: snapshots,
		sheets:    sheetRepo,
		sizes:     sizes,
		logger:    logger,
	}
}

// Sizes returns the configured size columns.
func (s *Service) Sizes() []string {
	return s.sizes
}

// Summary builds the variety by size table for mode over the lots matching filter.
func (s *Service) Summary(ctx context.Context, mode inventory.Mode, filter inventory.LocationFilter) (inventory.StockSummary, error) {
	lots, err := s.filteredLots(ctx, filter)
	if err != nil {
		return inventory.StockSummary{}, err
	}
	return inventory.Aggregate(lots, s.sizes, mode), nil
}

// Breakdown lists the lots behind one cell of the summary table.
func (s *Service) Breakdown(ctx context.Context, sel inventory.Selector, filter inventory.LocationFilter) (inventory.Breakdown, error) {
	lots, err := s.filteredLots(ctx, filter)
	if err != nil {
		return inventory.Breakdown{}, err
	}
	return inventory.Resolve(lots, s.sizes, sel), nil
}

// LotGroups returns receipt lots matching filter grouped by date.
func (s *Service) LotGroups(ctx context.Context, filter inventory.LocationFilter, order inventory.SortOrder) ([]inventory.DateGroup, error) {
	lots, err := s.filteredLots(ctx, filter)
	if err != nil {
		return nil, err
	}
	return inventory.GroupByDate(incomingOnly(lots), order), nil
}

// Locations returns the distinct chambers, floors and rows used by receipts.
func (s *Service) Locations(ctx context.Context) (inventory.LocationValues, error) {
	lots, err := s.lots.ListLots(ctx)
	if err != nil {
		return inventory.LocationValues{}, fmt.Errorf("load lots: %w", err)
	}
	return inventory.UniqueLocationValues(incomingOnly(lots)), nil
}

func incomingOnly(lots []models.Lot) []models.Lot {
	receipts := make([]models.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.Type.IsIncoming() {
			receipts = append(receipts, lot)
		}
	}
	return receipts
}

// Snapshot computes the three stock views for date without storing them.
func (s *Service) Snapshot(ctx context.Context, date time.Time) (models.StockSnapshot, []inventory.StockSummary, error) {
	lots, err := s.lots.ListLots(ctx)
	if err != nil {
		return models.StockSnapshot{}, nil, fmt.Errorf("load lots: %w", err)
	}

	summaries := make([]inventory.StockSummary, 0, len(reportModes))
	for _, mode := range reportModes {
		summaries = append(summaries, inventory.Aggregate(lots, s.sizes, mode))
	}
	return buildSnapshot(date, summaries), summaries, nil
}

// GenerateDailyReport stores the day's snapshot, exports the tables when
// sheets are configured, and returns the chat message for the manager.
func (s *Service) GenerateDailyReport(ctx context.Context, now time.Time) (string, error) {
	snapshot, summaries, err := s.Snapshot(ctx, now)
	if err != nil {
		return "", err
	}

	if err := s.snapshots.SaveStockSnapshot(ctx, snapshot); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	if s.sheets != nil {
		if err := s.ExportStock(ctx, snapshot, summaries); err != nil {
			// The chat report still goes out when the export fails.
			s.logger.Error("failed to export stock to sheets", zap.Error(err))
		}
	}

	s.logger.Info("daily report generated",
		zap.String("date", snapshot.Date.Format(dateLayout)),
		zap.Int("varieties", len(snapshot.Varieties)),
		zap.String("current", snapshot.Current.String()),
	)
	return FormatDailyReport(snapshot, summaries[0]), nil
}

// ExportStock rewrites the stock tab with one table per mode and appends the
// day's totals to the history tab.
func (s *Service) ExportStock(ctx context.Context, snapshot models.StockSnapshot, summaries []inventory.StockSummary) error {
	if s.sheets == nil {
		return nil
	}

	rows := make([][]interface{}, 0, sheetSections*(len(snapshot.Varieties)+4))
	for _, summary := range summaries {
		rows = append(rows, summaryRows(summary)...)
		rows = append(rows, []interface{}{})
	}
	if err := s.sheets.ReplaceRange(ctx, stockRange, rows); err != nil {
		return fmt.Errorf("export stock tables: %w", err)
	}

	history := []interface{}{
		snapshot.Date.Format(dateLayout),
		snapshot.Current.String(),
		snapshot.Initial.String(),
		snapshot.Outgoing.String(),
		len(snapshot.Varieties),
	}
	if err := s.sheets.AppendRow(ctx, historyRange, history); err != nil {
		return fmt.Errorf("append stock history: %w", err)
	}
	return nil
}

func (s *Service) filteredLots(ctx context.Context, filter inventory.LocationFilter) ([]models.Lot, error) {
	lots, err := s.lots.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}
	return inventory.FilterLots(lots, filter), nil
}

// buildSnapshot expects summaries in reportModes order.
func buildSnapshot(date time.Time, summaries []inventory.StockSummary) models.StockSnapshot {
	y, m, d := date.Date()
	snapshot := models.StockSnapshot{
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Current:   summaries[0].GrandTotal,
		Initial:   summaries[1].GrandTotal,
		Outgoing:  summaries[2].GrandTotal,
		CreatedAt: time.Now().UTC(),
	}

	for _, row := range summaries[0].Rows {
		snapshot.Varieties = append(snapshot.Varieties, models.VarietySnapshot{
			Variety:  row.Variety,
			Current:  row.Total,
			Initial:  rowTotal(summaries[1], row.Variety),
			Outgoing: rowTotal(summaries[2], row.Variety),
		})
	}
	return snapshot
}

func rowTotal(summary inventory.StockSummary, variety string) decimal.Decimal {
	for _, row := range summary.Rows {
		if row.Variety == variety {
			return row.Total
		}
	}
	return decimal.Zero
}

func summaryRows(summary inventory.StockSummary) [][]interface{} {
	header := []interface{}{fmt.Sprintf("Variety (%s)", summary.Mode)}
	for _, size := range summary.Sizes {
		header = append(header, size)
	}
	header = append(header, inventory.TotalLabel)

	rows := [][]interface{}{header}
	for _, row := range summary.Rows {
		line := []interface{}{row.Variety}
		for _, q := range row.Quantities {
			line = append(line, q.String())
		}
		line = append(line, row.Total.String())
		rows = append(rows, line)
	}

	totals := []interface{}{inventory.TotalLabel}
	for _, q := range summary.ColumnTotals {
		totals = append(totals, q.String())
	}
	totals = append(totals, summary.GrandTotal.String())
	return append(rows, totals)
}
