package cli

import (
	"context"
	"fmt"
	"io"
	"time"
	"truck-scraper/browser"
	"truck-scraper/config"
	"truck-scraper/export"
	"truck-scraper/models"
	"truck-scraper/scraper"
	"truck-scraper/scraper/craigslist"
	"truck-scraper/scraper/facebook"
	"truck-scraper/services"
	"truck-scraper/session"
	"truck-scraper/storage"
	"truck-scraper/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const defaultLimit = 10

func NewCraigslistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "craigslist",
		Short:   "Scrape a Craigslist search into a Google Sheet",
		Example: `  truck-scraper craigslist --url "https://portland.craigslist.org/search/cta?query=f250" --limit 25 --sheet "F250s"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, models.Craigslist)
		},
	}
	addSearchFlags(cmd)
	return cmd
}

func NewFacebookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "facebook",
		Short:   "Scrape a Facebook Marketplace search into a Google Sheet",
		Example: `  truck-scraper facebook --url "https://www.facebook.com/marketplace/seattle/search?query=tacoma" --scroll-attempts 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, models.Facebook)
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Int("scroll-attempts", 0, "Maximum scroll passes over the results (default from config)")
	cmd.Flags().String("account", "", "Saved session to use (default from config)")
	return cmd
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Search results URL")
	cmd.Flags().Int("limit", defaultLimit, "Maximum number of listings to collect")
	cmd.Flags().String("sheet", "", "Spreadsheet title (default: site and date)")
	_ = cmd.MarkFlagRequired("url")
}

// searchRequest builds the request for site from the command's flags.
func searchRequest(cmd *cobra.Command, cfg *config.Config, site models.Site) (models.SearchRequest, error) {
	flags := cmd.Flags()
	searchURL, err := flags.GetString("url")
	if err != nil {
		return models.SearchRequest{}, err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return models.SearchRequest{}, err
	}
	sheet, _ := flags.GetString("sheet")
	if sheet == "" {
		sheet = fmt.Sprintf("%s trucks %s", site, time.Now().Format("2006-01-02"))
	}

	req := models.SearchRequest{
		Site:      site,
		SearchURL: searchURL,
		Limit:     limit,
		SheetName: sheet,
	}
	if site == models.Facebook {
		req.ScrollAttempts = cfg.ScrollAttempts
		if n, _ := flags.GetInt("scroll-attempts"); n != 0 {
			req.ScrollAttempts = n
		}
		if account, _ := flags.GetString("account"); account != "" {
			cfg.FacebookAccount = account
		}
	}
	return req, req.Validate()
}

func runScrape(cmd *cobra.Command, site models.Site) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := searchRequest(cmd, cfg, site)
	if err != nil {
		return err
	}

	// Credentials are checked before a browser is started.
	sheets, err := export.NewGoogleClient(ctx, cfg)
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if cfg.DBEnabled {
		if pool, err = storage.Connect(ctx, cfg); err != nil {
			return err
		}
		defer pool.Close()
	}

	collector := scraper.NewCollector(cfg, browser.NewLauncher(cfg))
	if site == models.Facebook {
		manager, err := sessionManager(ctx, cfg, pool, site)
		if err != nil {
			return err
		}
		collector.WithSessions(manager, NewTerminalPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()))
	}

	sinks, err := archiveSinks(ctx, cfg, pool)
	if err != nil {
		return err
	}

	runner := services.NewRunner(cfg, collector, export.NewExporter(sheets, cfg.NullValue),
		craigslist.New(), facebook.New()).WithSinks(sinks...)

	result, err := runner.Run(ctx, req, logProgress)
	if len(result.Listings) > 0 {
		services.PrintReport(cmd.OutOrStdout(), services.GenerateReport(site, result.Listings))
	}
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func sessionManager(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, site models.Site) (*session.Manager, error) {
	var store session.Store
	switch cfg.SessionStore {
	case "postgres":
		pg := storage.NewPostgresSessionStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store = pg
	case "memory":
		store = session.NewMemoryStore()
	default:
		store = session.NewFileStore(cfg.SessionDir)
	}
	return session.NewManager(store, string(site), cfg.FacebookAccount), nil
}

func archiveSinks(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) ([]services.Sink, error) {
	var sinks []services.Sink
	if cfg.CSVPath != "" {
		sinks = append(sinks, services.NewCSVSink(cfg.CSVPath, cfg.NullValue))
	}
	if pool != nil {
		writer := storage.NewPostgresWriter(pool)
		if err := writer.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, services.NewPostgresSink(writer))
	}
	return sinks, nil
}

func logProgress(p models.Progress) {
	switch p.Phase {
	case models.PhaseDiscover:
		utils.Debug("%s: found %d listing links", p.Site, p.Found)
	case models.PhaseExtract:
		utils.Info("%s: %d/%d listings", p.Site, p.Collected, p.Target)
	}
}

func printResult(w io.Writer, result services.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Exported %d listings\n", result.Export.RowCount)
	fmt.Fprintf(w, "Sheet: %s\n", result.Export.SheetURL)
}
