package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "truck-scraper.yaml"
	envPrefix         = "TRUCKSCRAPER_"
)

var ErrConfigNotFound = errors.New("configuration file not found")

// Load builds the configuration in layers: defaults, then the YAML file,
// then environment variables (a .env file in the working directory is read
// first). An explicit path that does not exist is an error; a missing
// default file is not.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = FindConfigFile()
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			if !errors.Is(err, ErrConfigNotFound) || explicit {
				return nil, err
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile looks in the working directory, then the XDG config dir.
func FindConfigFile() string {
	candidates := []string{
		DefaultConfigFile,
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CHROME_PATH":             &cfg.ChromePath,
		"FACEBOOK_ACCOUNT":        &cfg.FacebookAccount,
		"SESSION_STORE":           &cfg.SessionStore,
		"SESSION_DIR":             &cfg.SessionDir,
		"GOOGLE_CREDENTIALS_FILE": &cfg.GoogleCredentialsFile,
		"GOOGLE_CREDENTIALS_JSON": &cfg.GoogleCredentialsJSON,
		"NULL_VALUE":              &cfg.NullValue,
		"CSV_PATH":                &cfg.CSVPath,
		"DB_HOST":                 &cfg.DBHost,
		"DB_USER":                 &cfg.DBUser,
		"DB_PASSWORD":             &cfg.DBPassword,
		"DB_NAME":                 &cfg.DBName,
		"DB_SSLMODE":              &cfg.DBSSLMode,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "ENVIRONMENT"); ok {
		cfg.Environment = Environment(v)
	}

	bools := map[string]*bool{
		"HEADLESS":   &cfg.Headless,
		"VERBOSE":    &cfg.Verbose,
		"DB_ENABLED": &cfg.DBEnabled,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"DB_PORT":          &cfg.DBPort,
		"MAX_SEARCH_PAGES": &cfg.MaxSearchPages,
		"SCROLL_ATTEMPTS":  &cfg.ScrollAttempts,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"LISTING_TIMEOUT": &cfg.ListingTimeout,
		"MIN_DELAY":       &cfg.MinDelay,
		"MAX_DELAY":       &cfg.MaxDelay,
		"RESULTS_WAIT":    &cfg.ResultsWait,
		"PAGE_SETTLE":     &cfg.PageSettle,
		"SCROLL_DELAY":    &cfg.ScrollDelay,
		"LOADING_WAIT":    &cfg.LoadingWait,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}

	return nil
}
