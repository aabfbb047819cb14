package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
)

// SnapshotRange is the tab the daily snapshot rows are appended to.
const SnapshotRange = "Snapshots!A:G"

// Repository appends daily snapshot rows to a spreadsheet.
type Repository interface {
	AppendSnapshot(ctx context.Context, snapshot models.DailySnapshot) error
}

// rowWriter is the slice of the Sheets API the repository needs.
type rowWriter interface {
	append(ctx context.Context, sheetRange string, values []interface{}) error
}

// GoogleSheetRepository implements Repository using the official Google Sheets API.
type GoogleSheetRepository struct {
	writer rowWriter
	logger *zap.Logger
}

type apiWriter struct {
	service       *sheetsapi.Service
	spreadsheetID string
}

func (w apiWriter) append(ctx context.Context, sheetRange string, values []interface{}) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	_, err := w.service.Spreadsheets.Values.Append(w.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return newRepository(apiWriter{service: service, spreadsheetID: cfg.SpreadsheetID}, logger), nil
}

func newRepository(w rowWriter, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetRepository{writer: w, logger: logger}
}

// AppendSnapshot writes one row per day:
// date, revenue, orders, units, average order value, top product, low stock.
func (r *GoogleSheetRepository) AppendSnapshot(ctx context.Context, snapshot models.DailySnapshot) error {
	if err := r.writer.append(ctx, SnapshotRange, SnapshotRow(snapshot)); err != nil {
		return fmt.Errorf("append row into range %s: %w", SnapshotRange, err)
	}

	r.logger.Debug("snapshot row appended to sheet",
		zap.String("range", SnapshotRange),
		zap.String("date", snapshot.Date.Format(models.DateLayout)))
	return nil
}

// SnapshotRow flattens a snapshot into sheet cells.
func SnapshotRow(s models.DailySnapshot) []interface{} {
	return []interface{}{
		s.Date.Format(models.DateLayout),
		fmt.Sprintf("%.2f", s.Revenue),
		s.Orders,
		s.UnitsSold,
		fmt.Sprintf("%.2f", s.AverageOrderValue),
		s.TopProduct,
		s.LowStockItems,
	}
}
