// Package cli is the truck-scraper command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"truck-scraper/config"
	"truck-scraper/utils"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truck-scraper",
		Short: "Scrape truck listings into a shared Google Sheet",
		Long: `truck-scraper drives Chrome through a Craigslist or Facebook Marketplace
search, extracts each vehicle listing into a fixed set of columns and
publishes the result as a new Google Sheet anyone with the link can view.

Facebook needs a logged in session. Run "truck-scraper login facebook" once
on a machine with a display; later runs reuse the saved session.

Settings come from truck-scraper.yaml (or $XDG_CONFIG_HOME/truck-scraper/config.yaml),
then .env, then TRUCKSCRAPER_* environment variables, then flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("env", "", `Runtime environment: "local" or "cloud"`)
	cmd.PersistentFlags().Bool("headed", false, "Show the browser window")

	cmd.AddCommand(NewCraigslistCmd())
	cmd.AddCommand(NewFacebookCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Ctrl-C stops a run after the listing in
// progress; what was collected is still exported.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the global flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("verbose") {
		if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
			return nil, err
		}
	}
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		cfg.Environment = config.Environment(env)
	}
	if headed, _ := cmd.Flags().GetBool("headed"); headed {
		cfg.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	utils.SetVerbose(cfg.Verbose)
	return cfg, nil
}
