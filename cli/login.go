package cli

import (
	"fmt"
	"truck-scraper/browser"
	"truck-scraper/models"
	"truck-scraper/scraper"
	"truck-scraper/scraper/facebook"
	"truck-scraper/storage"
	"truck-scraper/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a site by hand and save the session",
	}
	cmd.AddCommand(newFacebookLoginCmd())
	return cmd
}

func newFacebookLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facebook",
		Short: "Open a browser window to log in to Facebook",
		Long: `Opens a visible browser at facebook.com. Log in (including any two-factor
step), then press Enter in the terminal. The session cookies are saved and
reused by later "truck-scraper facebook" runs, including cloud runs that
share the same session store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if account, _ := cmd.Flags().GetString("account"); account != "" {
				cfg.FacebookAccount = account
			}
			if !cfg.Interactive() {
				return fmt.Errorf("login needs a person at the browser; run it with --env local: %w", models.ErrAuthenticationRequired)
			}

			var pool *pgxpool.Pool
			if cfg.SessionStore == "postgres" {
				if pool, err = storage.Connect(ctx, cfg); err != nil {
					return err
				}
				defer pool.Close()
			}
			manager, err := sessionManager(ctx, cfg, pool, models.Facebook)
			if err != nil {
				return err
			}

			collector := scraper.NewCollector(cfg, browser.NewLauncher(cfg)).
				WithSessions(manager, NewTerminalPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()))
			if err := collector.Login(ctx, facebook.New()); err != nil {
				return err
			}
			utils.Success("Facebook session saved for account %q", cfg.FacebookAccount)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Name to save the session under (default from config)")
	return cmd
}
