package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port           string
	SourcesDir     string
	DefaultCity    string
	ScrapeInterval int // minutes between scheduled scrape runs, 0 disables
	EnrichContent  bool
	APIAccessKey   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
