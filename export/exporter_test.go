package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"truck-scraper/config"
	"truck-scraper/models"
	"truck-scraper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeSheets struct {
	createErr, writeErr, formatErr, shareErr error

	title  string
	rows   [][]string
	shared []string
	bolded int
}

func (f *fakeSheets) CreateSpreadsheet(_ context.Context, title string) (Spreadsheet, error) {
	if f.createErr != nil {
		return Spreadsheet{}, f.createErr
	}
	f.title = title
	return Spreadsheet{ID: "sheet-1", URL: "https://docs.google.com/spreadsheets/d/sheet-1/edit", Tab: DefaultTab}, nil
}

func (f *fakeSheets) WriteRows(_ context.Context, _ Spreadsheet, rows [][]string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.rows = rows
	return nil
}

func (f *fakeSheets) FormatHeader(_ context.Context, _ Spreadsheet, columns int) error {
	if f.formatErr != nil {
		return f.formatErr
	}
	f.bolded = columns
	return nil
}

func (f *fakeSheets) SharePublic(_ context.Context, id string) error {
	if f.shareErr != nil {
		return f.shareErr
	}
	f.shared = append(f.shared, id)
	return nil
}

func records() []models.Listing {
	a := models.NewListing(models.Facebook, "https://www.facebook.com/marketplace/item/1/")
	a.Set(models.FieldTitle, "2012 Ram 1500")
	a.Set(models.FieldPrice, "15500")
	a.Set(models.FieldLocation, "Boise, ID")

	b := models.NewListing(models.Facebook, "https://www.facebook.com/marketplace/item/2/")
	b.Set(models.FieldMileage, "120000")
	return []models.Listing{a, b}
}

func TestExportWritesHeaderAndRows(t *testing.T) {
	client := &fakeSheets{}
	res, err := NewExporter(client, "N/A").Export(context.Background(), models.FacebookSchema, records(), "Trucks Oct")
	require.NoError(t, err)

	assert.Equal(t, "Trucks Oct", client.title)
	assert.Equal(t, [][]string{
		{"url", "title", "price", "mileage", "location"},
		{"https://www.facebook.com/marketplace/item/1/", "2012 Ram 1500", "15500", "N/A", "Boise, ID"},
		{"https://www.facebook.com/marketplace/item/2/", "N/A", "N/A", "120000", "N/A"},
	}, client.rows)
	assert.Equal(t, 5, client.bolded)
	assert.Equal(t, []string{"sheet-1"}, client.shared)

	assert.Equal(t, models.ExportResult{
		SheetURL: "https://docs.google.com/spreadsheets/d/sheet-1/edit",
		SheetID:  "sheet-1",
		RowCount: 2,
	}, res)
}

func TestExportEmptyNullValue(t *testing.T) {
	client := &fakeSheets{}
	_, err := NewExporter(client, "").Export(context.Background(), models.FacebookSchema, records()[1:], "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.facebook.com/marketplace/item/2/", "", "", "120000", ""}, client.rows[1])
}

func TestExportHeaderFormatFailureIsNotFatal(t *testing.T) {
	client := &fakeSheets{formatErr: errors.New("quota")}
	res, err := NewExporter(client, "N/A").Export(context.Background(), models.FacebookSchema, records(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
}

func TestExportFailureStages(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		client *fakeSheets
		stage  string
	}{
		{"create", &fakeSheets{createErr: boom}, StageCreate},
		{"write", &fakeSheets{writeErr: boom}, StageWrite},
		{"share", &fakeSheets{shareErr: boom}, StageShare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExporter(tt.client, "N/A").Export(context.Background(), models.FacebookSchema, records(), "x")

			var exportErr *models.ExportError
			require.ErrorAs(t, err, &exportErr)
			assert.Equal(t, tt.stage, exportErr.Stage)
			assert.Equal(t, 2, exportErr.Collected)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GoogleCredentialsFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := Credentials(cfg)
	assert.ErrorIs(t, err, ErrNoCredentials)

	require.NoError(t, os.WriteFile(cfg.GoogleCredentialsFile, []byte(`{"type":"service_account"}`), 0o600))
	data, err := Credentials(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(data))

	cfg.GoogleCredentialsJSON = `{"type":"injected"}`
	data, err = Credentials(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"injected"}`, string(data))
}
