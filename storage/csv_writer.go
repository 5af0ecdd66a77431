package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"truck-scraper/models"
	"truck-scraper/utils"

	"github.com/google/uuid"
)

// CSVWriter keeps a local copy of every exported run.
type CSVWriter struct {
	path string
	null string
}

func NewCSVWriter(path, null string) *CSVWriter {
	return &CSVWriter{path: path, null: null}
}

func (w *CSVWriter) Path() string {
	return w.path
}

// RunPath names the CSV file for one run: "out/trucks.csv" becomes
// "out/trucks-1b4e28ba.csv" so runs do not overwrite each other.
func RunPath(path string, runID uuid.UUID) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".csv"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "-" + runID.String()[:8] + ext
}

// Write saves the listings to the CSV file, replacing any previous file.
// Creates the output directory if it does not exist.
//
// Columns follow the schema, the same layout as the exported sheet.
func (w *CSVWriter) Write(schema models.Schema, listings []models.Listing) error {
	if len(listings) == 0 {
		utils.Warn("No listings to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	// csv.Writer handles quoting, commas inside fields and line endings
	writer := csv.NewWriter(file)

	if err := writer.Write(schema.Header()); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	for _, l := range listings {
		if err := writer.Write(l.Row(schema, w.null)); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
	}

	// Flush before checking; buffered rows only fail here.
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d listings → %s", len(listings), w.path)
	return nil
}
