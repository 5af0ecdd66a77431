package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const AppName = "truck-scraper"

// Environment decides whether a person is available to log in by hand.
type Environment string

const (
	Local Environment = "local"
	Cloud Environment = "cloud"
)

type Config struct {
	Environment Environment `yaml:"environment"`
	Verbose     bool        `yaml:"verbose"`

	Headless       bool          `yaml:"headless"`
	ChromePath     string        `yaml:"chrome_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ListingTimeout time.Duration `yaml:"listing_timeout"`
	ResultsWait    time.Duration `yaml:"results_wait"`
	PageSettle     time.Duration `yaml:"page_settle"`
	MinDelay       time.Duration `yaml:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	MaxSearchPages int           `yaml:"max_search_pages"`
	ScrollDelay    time.Duration `yaml:"scroll_delay"`
	LoadingWait    time.Duration `yaml:"loading_wait"`
	ScrollAttempts int           `yaml:"scroll_attempts"`

	FacebookAccount string `yaml:"facebook_account"`
	SessionStore    string `yaml:"session_store"`
	SessionDir      string `yaml:"session_dir"`

	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	// GoogleCredentialsJSON holds an injected service account key. It wins
	// over the file when both are set.
	GoogleCredentialsJSON string `yaml:"-"`
	NullValue             string `yaml:"null_value"`

	CSVPath    string `yaml:"csv_path"`
	DBEnabled  bool   `yaml:"db_enabled"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"-"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
}

func DefaultConfig() *Config {
	return &Config{
		Environment:           Local,
		Headless:              true,
		RequestTimeout:        60 * time.Second,
		ListingTimeout:        45 * time.Second,
		ResultsWait:           30 * time.Second,
		PageSettle:            3 * time.Second,
		MinDelay:              2 * time.Second,
		MaxDelay:              4 * time.Second,
		MaxSearchPages:        10,
		ScrollDelay:           3 * time.Second,
		LoadingWait:           5 * time.Second,
		ScrollAttempts:        15,
		FacebookAccount:       "default",
		SessionStore:          "file",
		SessionDir:            filepath.Join(xdg.DataHome, AppName, "sessions"),
		GoogleCredentialsFile: "service_account.json",
		NullValue:             "N/A",
		DBHost:                "localhost",
		DBPort:                5432,
		DBUser:                "postgres",
		DBPassword:            "postgres",
		DBName:                "truck_scraper",
		DBSSLMode:             "disable",
	}
}

// Interactive reports whether a headed browser can be shown for login.
func (c *Config) Interactive() bool {
	return c.Environment == Local
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	switch c.Environment {
	case Local, Cloud:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", Local, Cloud, c.Environment)
	}

	if c.RequestTimeout <= 0 || c.ListingTimeout <= 0 {
		return errors.New("request and listing timeouts must be positive")
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay range %v-%v is invalid", c.MinDelay, c.MaxDelay)
	}
	if c.ResultsWait < 0 || c.PageSettle < 0 || c.ScrollDelay < 0 || c.LoadingWait < 0 {
		return errors.New("results_wait, page_settle, scroll_delay and loading_wait must not be negative")
	}
	if c.MaxSearchPages <= 0 {
		return errors.New("max_search_pages must be positive")
	}
	if c.ScrollAttempts <= 0 {
		return errors.New("scroll_attempts must be positive")
	}

	switch c.SessionStore {
	case "file":
		if c.SessionDir == "" {
			return errors.New("session_dir is required for the file session store")
		}
	case "postgres":
		if !c.DBEnabled {
			return errors.New("the postgres session store needs db_enabled")
		}
	case "memory":
	default:
		return fmt.Errorf("session_store must be \"file\", \"postgres\" or \"memory\", got %q", c.SessionStore)
	}

	if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
		return errors.New("google credentials are not configured")
	}
	return nil
}
