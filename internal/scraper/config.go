package scraper

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Output format values accepted by output.format.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Write-error policies accepted by output.on_write_error.
const (
	WriteErrorFatal = "fatal"
	WriteErrorLog   = "log"
)

// Config captures every knob that influences a scrape run. It is resolved
// once from Viper at startup and passed explicitly to every component; no
// component reads ambient configuration.
type Config struct {
	// Scraper settings.
	MaxProfiles       int
	MaxSubscribers    int
	MinSubscribers    int
	BatchSize         int
	ScrollStableIters int
	ScrollMaxIters    int
	SourcesFile       string
	RememberSkipped   bool

	// Browser settings.
	Headless     bool
	UserAgent    string
	NavTimeout   time.Duration
	PageWait     time.Duration
	ScrollWait   time.Duration
	RequestDelay time.Duration
	ErrorDelay   time.Duration

	// Output settings.
	Format       string
	Filename     string
	OutputDir    string
	SkipLog      bool
	OnWriteError string

	// Filter settings.
	Platforms          []string
	RequireSocialLinks bool
}

// LoadConfig constructs a Config by reading from Viper. Durations configured
// in milliseconds are converted here so the rest of the code only ever sees
// time.Duration.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		MaxProfiles:       v.GetInt("scraper.max_profiles"),
		MaxSubscribers:    v.GetInt("scraper.max_subscribers"),
		MinSubscribers:    v.GetInt("scraper.min_subscribers"),
		BatchSize:         v.GetInt("scraper.concurrent_profiles"),
		ScrollStableIters: v.GetInt("scraper.scroll_stable_iterations"),
		ScrollMaxIters:    v.GetInt("scraper.scroll_max_iterations"),
		SourcesFile:       v.GetString("scraper.sources_file"),
		RememberSkipped:   v.GetBool("scraper.remember_skipped"),

		Headless:     v.GetBool("browser.headless"),
		UserAgent:    v.GetString("browser.user_agent"),
		NavTimeout:   time.Duration(v.GetInt("browser.timeout_ms")) * time.Millisecond,
		PageWait:     time.Duration(v.GetInt("browser.page_wait_ms")) * time.Millisecond,
		ScrollWait:   time.Duration(v.GetInt("browser.scroll_wait_ms")) * time.Millisecond,
		RequestDelay: time.Duration(v.GetInt("browser.request_delay_ms")) * time.Millisecond,
		ErrorDelay:   time.Duration(v.GetInt("browser.error_delay_ms")) * time.Millisecond,

		Format:       strings.ToLower(v.GetString("output.format")),
		Filename:     v.GetString("output.filename"),
		OutputDir:    v.GetString("output.output_dir"),
		SkipLog:      v.GetBool("output.skip_log"),
		OnWriteError: strings.ToLower(v.GetString("output.on_write_error")),

		Platforms:          splitPlatformList(v.GetString("filters.platforms")),
		RequireSocialLinks: v.GetBool("filters.require_social_links"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.MaxProfiles <= 0 {
		return fmt.Errorf("scraper.max_profiles must be > 0")
	}
	if c.MaxSubscribers < 0 || c.MinSubscribers < 0 {
		return fmt.Errorf("subscriber thresholds must be >= 0")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("scraper.concurrent_profiles must be >= 1")
	}
	if c.ScrollStableIters <= 0 {
		return fmt.Errorf("scraper.scroll_stable_iterations must be > 0")
	}
	if c.ScrollMaxIters < c.ScrollStableIters {
		return fmt.Errorf("scraper.scroll_max_iterations must be >= scroll_stable_iterations")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("browser.user_agent must be set")
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("browser.timeout_ms must be > 0")
	}
	if c.Format != FormatCSV && c.Format != FormatJSON {
		return fmt.Errorf("output.format must be %q or %q", FormatCSV, FormatJSON)
	}
	if c.Filename == "" {
		return fmt.Errorf("output.filename must be set")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output.output_dir must be set")
	}
	if c.OnWriteError != WriteErrorFatal && c.OnWriteError != WriteErrorLog {
		return fmt.Errorf("output.on_write_error must be %q or %q", WriteErrorFatal, WriteErrorLog)
	}
	return nil
}

// OutputPath returns the durable store location for the configured format.
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.Filename+"."+c.Format)
}

// SkipLogPath returns the sidecar location for skipped-identity records.
func (c Config) SkipLogPath() string {
	return filepath.Join(c.OutputDir, c.Filename+"_skipped.csv")
}

func splitPlatformList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
