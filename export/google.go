package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"truck-scraper/config"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultTab is the name of the single tab in a created spreadsheet.
const DefaultTab = "Listings"

var ErrNoCredentials = errors.New("google service account credentials not found")

var _ SheetsClient = (*GoogleClient)(nil)

// GoogleClient implements SheetsClient with the Sheets and Drive APIs.
type GoogleClient struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// Credentials returns the service account key from the injected JSON, or
// from the configured file when none was injected.
func Credentials(cfg *config.Config) ([]byte, error) {
	if cfg.GoogleCredentialsJSON != "" {
		return []byte(cfg.GoogleCredentialsJSON), nil
	}
	data, err := os.ReadFile(cfg.GoogleCredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentials, cfg.GoogleCredentialsFile)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return data, nil
}

func NewGoogleClient(ctx context.Context, cfg *config.Config) (*GoogleClient, error) {
	key, err := Credentials(cfg)
	if err != nil {
		return nil, err
	}

	// drive.file covers permissions on files this account created.
	creds, err := google.CredentialsFromJSON(ctx, key, sheets.SpreadsheetsScope, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	sheetsSvc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}

	return &GoogleClient{sheets: sheetsSvc, drive: driveSvc}, nil
}

func (g *GoogleClient) CreateSpreadsheet(ctx context.Context, title string) (Spreadsheet, error) {
	created, err := g.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: DefaultTab}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return Spreadsheet{}, fmt.Errorf("create spreadsheet: %w", err)
	}

	sheet := Spreadsheet{
		ID:  created.SpreadsheetId,
		URL: created.SpreadsheetUrl,
		Tab: DefaultTab,
	}
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheet.SheetID = created.Sheets[0].Properties.SheetId
		sheet.Tab = created.Sheets[0].Properties.Title
	}
	return sheet, nil
}

func (g *GoogleClient) WriteRows(ctx context.Context, sheet Spreadsheet, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	// RAW keeps values such as VINs and dates exactly as scraped.
	_, err := g.sheets.Spreadsheets.Values.Update(sheet.ID, fmt.Sprintf("'%s'!A1", sheet.Tab), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write values: %w", err)
	}
	return nil
}

// FormatHeader bolds and freezes the first row.
func (g *GoogleClient) FormatHeader(ctx context.Context, sheet Spreadsheet, columns int) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheet.SheetID,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   int64(columns),
						ForceSendFields:  []string{"SheetId"},
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			},
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         sheet.SheetID,
						GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}

	if _, err := g.sheets.Spreadsheets.BatchUpdate(sheet.ID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("format header: %w", err)
	}
	return nil
}

func (g *GoogleClient) SharePublic(ctx context.Context, spreadsheetID string) error {
	_, err := g.drive.Permissions.Create(spreadsheetID, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}
