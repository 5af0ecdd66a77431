package services

import (
	"context"
	"fmt"
	"truck-scraper/config"
	"truck-scraper/models"
	"truck-scraper/scraper"
	"truck-scraper/storage"
	"truck-scraper/utils"

	"github.com/google/uuid"
)

type Collector interface {
	Collect(ctx context.Context, site scraper.Site, req models.SearchRequest, progress scraper.ProgressFunc) ([]models.Listing, error)
}

type Exporter interface {
	Export(ctx context.Context, schema models.Schema, records []models.Listing, sheetName string) (models.ExportResult, error)
}

// Sink archives a run's listings next to the spreadsheet export.
type Sink interface {
	Name() string
	Save(ctx context.Context, runID uuid.UUID, schema models.Schema, listings []models.Listing) error
}

// RunResult is what a completed run produced. Listings is set even when
// the export failed.
type RunResult struct {
	RunID    uuid.UUID
	Listings []models.Listing
	Export   models.ExportResult
}

// Runner turns a search request into a shared spreadsheet.
type Runner struct {
	cfg       *config.Config
	collector Collector
	exporter  Exporter
	sites     map[models.Site]scraper.Site
	sinks     []Sink
}

func NewRunner(cfg *config.Config, collector Collector, exporter Exporter, sites ...scraper.Site) *Runner {
	r := &Runner{
		cfg:       cfg,
		collector: collector,
		exporter:  exporter,
		sites:     make(map[models.Site]scraper.Site),
	}
	for _, s := range sites {
		r.sites[s.Name()] = s
	}
	return r
}

func (r *Runner) WithSinks(sinks ...Sink) *Runner {
	r.sinks = append(r.sinks, sinks...)
	return r
}

// Run validates req, collects listings, archives them and exports them.
// Cancelling ctx stops collection at the next listing; whatever was
// collected by then is still archived and exported.
func (r *Runner) Run(ctx context.Context, req models.SearchRequest, progress scraper.ProgressFunc) (RunResult, error) {
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}
	site, ok := r.sites[req.Site]
	if !ok {
		return RunResult{}, fmt.Errorf("%w: site %q is not configured", models.ErrInvalidRequest, req.Site)
	}

	result := RunResult{RunID: uuid.New()}
	utils.Section(fmt.Sprintf("%s run %s", req.Site, result.RunID.String()[:8]))
	utils.Info("Search: %s | limit=%d | sheet=%q", req.SearchURL, req.Limit, req.SheetName)

	listings, err := r.collector.Collect(ctx, site, req, progress)
	result.Listings = listings
	if err != nil {
		return result, err
	}
	if len(listings) == 0 {
		return result, fmt.Errorf("%s: %w", req.SearchURL, models.ErrNoListings)
	}
	utils.Success("Collected %d listings", len(listings))

	// A stop request ends collection, not the hand-off of what was found.
	detached := context.WithoutCancel(ctx)
	schema := site.Schema()

	for _, sink := range r.sinks {
		if err := sink.Save(detached, result.RunID, schema, listings); err != nil {
			utils.Warn("Could not archive listings to %s: %v", sink.Name(), err)
		}
	}

	exportCtx, cancel := context.WithTimeout(detached, 2*r.cfg.RequestTimeout)
	defer cancel()
	exported, err := r.exporter.Export(exportCtx, schema, listings, req.SheetName)
	if err != nil {
		return result, err
	}
	result.Export = exported
	utils.Success("Google Sheet ready: %s", exported.SheetURL)
	return result, nil
}

// CSVSink writes one CSV file per run next to the configured path.
type CSVSink struct {
	path string
	null string
}

func NewCSVSink(path, null string) *CSVSink {
	return &CSVSink{path: path, null: null}
}

func (s *CSVSink) Name() string { return "csv " + s.path }

func (s *CSVSink) Save(_ context.Context, runID uuid.UUID, schema models.Schema, listings []models.Listing) error {
	return storage.NewCSVWriter(storage.RunPath(s.path, runID), s.null).Write(schema, listings)
}

// PostgresSink upserts listings into the archive table.
type PostgresSink struct {
	writer *storage.PostgresWriter
}

func NewPostgresSink(w *storage.PostgresWriter) *PostgresSink {
	return &PostgresSink{writer: w}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Save(ctx context.Context, runID uuid.UUID, _ models.Schema, listings []models.Listing) error {
	if err := s.writer.WriteBatch(ctx, runID, listings); err != nil {
		return err
	}
	utils.Success("Saved %d listings to PostgreSQL", len(listings))
	return nil
}
