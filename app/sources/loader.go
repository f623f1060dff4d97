package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/citybeat/citybeat/app/scraper"
)

// LoadDir reads extra source definitions from *.yml files in dir and appends
// them to the registry's optional set. A missing directory is not an error.
// The source name defaults to the filename without its extension.
func (r *Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		source, err := parseSourceFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		r.optional = append(r.optional, source)
		slog.Debug("Source configuration loaded", "source", source.Name, "url", source.URL, "feed_url", source.FeedURL)
	}

	return nil
}

func parseSourceFile(file string) (scraper.Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return scraper.Source{}, fmt.Errorf("failed to read file: %w", err)
	}

	var source scraper.Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return scraper.Source{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if source.Name == "" {
		source.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	if err := validateSource(source); err != nil {
		return scraper.Source{}, fmt.Errorf("invalid source config: %w", err)
	}

	return source, nil
}

func validateSource(source scraper.Source) error {
	if source.URL == "" && source.FeedURL == "" {
		return fmt.Errorf("either url or feed_url is required")
	}
	if source.City == "" {
		return fmt.Errorf("city is required")
	}
	return nil
}
