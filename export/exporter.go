// Package export publishes collected listings as a shared Google Sheet.
package export

import (
	"context"
	"fmt"
	"truck-scraper/models"
	"truck-scraper/utils"
)

// Export stages reported in models.ExportError.
const (
	StageCreate = "create"
	StageWrite  = "write"
	StageShare  = "share"
)

// Spreadsheet identifies a created spreadsheet and the tab rows go into.
type Spreadsheet struct {
	ID      string
	URL     string
	SheetID int64
	Tab     string
}

// SheetsClient is the spreadsheet service the exporter talks to.
type SheetsClient interface {
	CreateSpreadsheet(ctx context.Context, title string) (Spreadsheet, error)
	// WriteRows writes rows starting at the top left cell of the tab.
	WriteRows(ctx context.Context, sheet Spreadsheet, rows [][]string) error
	FormatHeader(ctx context.Context, sheet Spreadsheet, columns int) error
	// SharePublic lets anyone with the link view the spreadsheet.
	SharePublic(ctx context.Context, spreadsheetID string) error
}

type Exporter struct {
	client SheetsClient
	null   string
}

// NewExporter returns an exporter that writes null for absent fields.
func NewExporter(client SheetsClient, null string) *Exporter {
	return &Exporter{client: client, null: null}
}

// Export creates a spreadsheet named sheetName holding one header row in
// schema order followed by one row per record, shares it publicly and
// returns its link. Nothing is retried; a failure is returned as a
// *models.ExportError naming the stage that failed.
func (e *Exporter) Export(ctx context.Context, schema models.Schema, records []models.Listing, sheetName string) (models.ExportResult, error) {
	fail := func(stage string, err error) (models.ExportResult, error) {
		return models.ExportResult{}, &models.ExportError{Stage: stage, Collected: len(records), Err: err}
	}

	utils.Info("Creating Google Sheet %q...", sheetName)
	sheet, err := e.client.CreateSpreadsheet(ctx, sheetName)
	if err != nil {
		return fail(StageCreate, err)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, schema.Header())
	for _, r := range records {
		rows = append(rows, r.Row(schema, e.null))
	}

	if err := e.client.WriteRows(ctx, sheet, rows); err != nil {
		return fail(StageWrite, err)
	}
	utils.Success("Wrote %d rows to sheet", len(records))

	if err := e.client.FormatHeader(ctx, sheet, len(schema.Fields)); err != nil {
		utils.Warn("Could not format header row: %v", err)
	}

	if err := e.client.SharePublic(ctx, sheet.ID); err != nil {
		return fail(StageShare, fmt.Errorf("share %s: %w", sheet.ID, err))
	}
	utils.Success("Sheet shared: anyone with the link can view")

	return models.ExportResult{
		SheetURL: sheet.URL,
		SheetID:  sheet.ID,
		RowCount: len(records),
	}, nil
}
