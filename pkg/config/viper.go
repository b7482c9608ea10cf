// Package config is responsible for initializing the application's
// configuration. It uses the Viper library to read settings from a config
// file and environment variables, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// defaultUserAgent matches a mainstream desktop browser; leaderboard pages
// serve their full markup only to recognizable browsers.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// InitConfig initializes the application's configuration using Viper. It
// sets defaults, configures search paths, and enables environment variable
// overrides. Designed to be called once at startup. A non-empty cfgFile
// pins the config to that exact path instead of the search paths.
func InitConfig(cfgFile string, logger *zap.Logger) {
	// --- Set Search Paths ---
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/substackscout/")
		viper.AddConfigPath("$HOME/.substackscout")
	}

	// --- Set Defaults ---
	viper.SetDefault("scraper.max_profiles", 50)
	viper.SetDefault("scraper.max_subscribers", 20000)
	viper.SetDefault("scraper.min_subscribers", 0)
	viper.SetDefault("scraper.concurrent_profiles", 4)
	viper.SetDefault("scraper.scroll_stable_iterations", 5)
	viper.SetDefault("scraper.scroll_max_iterations", 50)
	viper.SetDefault("scraper.sources_file", "sources.txt")
	viper.SetDefault("scraper.remember_skipped", false)

	viper.SetDefault("browser.headless", false)
	viper.SetDefault("browser.user_agent", defaultUserAgent)
	viper.SetDefault("browser.timeout_ms", 60000)
	viper.SetDefault("browser.page_wait_ms", 3000)
	viper.SetDefault("browser.scroll_wait_ms", 2000)
	viper.SetDefault("browser.request_delay_ms", 3000)
	viper.SetDefault("browser.error_delay_ms", 10000)
	viper.SetDefault("browser.host_qps", 0.5)

	viper.SetDefault("output.format", "csv")
	viper.SetDefault("output.filename", "substack_profiles")
	viper.SetDefault("output.output_dir", ".")
	viper.SetDefault("output.skip_log", false)
	viper.SetDefault("output.on_write_error", "fatal")

	viper.SetDefault("filters.platforms", "")
	viper.SetDefault("filters.require_social_links", false)

	viper.SetDefault("viewer.addr", ":8080")
	viper.SetDefault("logging.development", false)

	// --- Environment Variables ---
	viper.SetEnvPrefix("SCOUT") // e.g. SCOUT_SCRAPER_MAX_PROFILES=100
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logger.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
