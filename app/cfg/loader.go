package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./citybeat.db" description:"Path to the sqlite catalog database"`

	// Application configuration
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SourcesDir     string `long:"sources-dir" env:"SOURCES_DIR" description:"Directory with extra source configuration files (optional)"`
	DefaultCity    string `long:"city" env:"DEFAULT_CITY" default:"Sydney" description:"Default target city for scheduled runs"`
	ScrapeInterval int    `long:"scrape-interval" env:"SCRAPE_INTERVAL" default:"360" description:"Minutes between scheduled scrape runs (0 disables)"`
	EnrichContent  bool   `long:"enrich-content" env:"ENRICH_CONTENT" description:"Enable background description enrichment"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Australia/Sydney)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		Port:           raw.Port,
		SourcesDir:     raw.SourcesDir,
		DefaultCity:    raw.DefaultCity,
		ScrapeInterval: raw.ScrapeInterval,
		EnrichContent:  raw.EnrichContent,
		APIAccessKey:   raw.APIAccessKey,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
