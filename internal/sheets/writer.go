package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/smsledger/internal/common"
)

// Scope is the OAuth2 scope the writer needs.
const Scope = sheets.SpreadsheetsScope

// Writer writes ledger reports to a spreadsheet tab, replacing its contents.
type Writer struct {
	service *sheets.Service
	config  Config
}

// NewService creates a Sheets API client authorized by source.
func NewService(ctx context.Context, source oauth2.TokenSource) (*sheets.Service, error) {
	srv, err := sheets.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// NewWriter creates a writer using an existing Sheets client.
func NewWriter(service *sheets.Service, config Config) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets config: %w", err)
	}
	return &Writer{service: service, config: config}, nil
}

// Write exports report and returns the spreadsheet ID it was written to. A
// new spreadsheet is created when none is configured.
func (w *Writer) Write(ctx context.Context, report Report) (string, error) {
	logger := slog.With("account", report.Account)
	logger.Info("Exporting ledger",
		"transactions", len(report.Transactions),
		"start", report.Start.Format("2006-01-02"),
		"end", report.End.Format("2006-01-02"))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", err
	}

	sheetID, err := w.ensureSheet(ctx, spreadsheetID)
	if err != nil {
		return "", err
	}

	if err := w.retry(ctx, func() error {
		_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.cellRange("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	}); err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := report.Values()
	if err := w.writeData(ctx, spreadsheetID, values); err != nil {
		return "", err
	}

	if w.config.EnableFormatting {
		if err := w.retry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetID, len(values))
		}); err != nil {
			logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	logger.Info("Ledger exported", "spreadsheet_id", spreadsheetID, "rows_written", len(values))
	return spreadsheetID, nil
}

func (w *Writer) retry(ctx context.Context, call func() error) error {
	return common.WithRetry(ctx, func() error {
		return common.ClassifyAPIError(call())
	}, w.config.Retry)
}

// cellRange qualifies a1 with the configured tab title.
func (w *Writer) cellRange(a1 string) string {
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, a1)
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
		},
	}

	var created *sheets.Spreadsheet
	err := w.retry(ctx, func() error {
		var err error
		created, err = w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	slog.Info("Created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

// ensureSheet returns the ID of the configured tab, adding the tab when the
// spreadsheet does not have it yet.
func (w *Writer) ensureSheet(ctx context.Context, spreadsheetID string) (int64, error) {
	var spreadsheet *sheets.Spreadsheet
	err := w.retry(ctx, func() error {
		var err error
		spreadsheet, err = w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == w.config.SheetTitle {
			return sheet.Properties.SheetId, nil
		}
	}

	add := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.SheetTitle},
			},
		}},
	}
	var resp *sheets.BatchUpdateSpreadsheetResponse
	err = w.retry(ctx, func() error {
		var err error
		resp, err = w.service.Spreadsheets.BatchUpdate(spreadsheetID, add).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("unable to add sheet %q: empty reply", w.config.SheetTitle)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := w.cellRange(fmt.Sprintf("A%d", i+1))

		err := w.retry(ctx, func() error {
			_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, batch).
				ValueInputOption("USER_ENTERED").
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		slog.Debug("Wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, totalRows int) error {
	requests := []*sheets.Request{
		// Title row
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Section labels
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Amount columns
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    3,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 1,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: w.config.CurrencyPattern,
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   8,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
