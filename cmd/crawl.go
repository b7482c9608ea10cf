package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/browser"
	"github.com/substackscout/substackscout/internal/metrics"
	"github.com/substackscout/substackscout/internal/scraper"
	"github.com/substackscout/substackscout/internal/store"
)

// runStore is what the crawl command needs from a store: the scraper's
// contract plus a Close for run teardown.
type runStore interface {
	scraper.Store
	Close() error
}

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Starts the leaderboard crawl",
		Long: `Discovers creator profiles on the configured leaderboard sources,
fetches them in bounded concurrent batches with a headless browser, filters
by subscriber thresholds, and appends accepted records incrementally to the
durable output.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	metrics.Init()

	cfg, err := scraper.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load scraper config: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir %s: %w", cfg.OutputDir, err)
	}

	engine, err := browser.New(browser.Config{
		Headless:    cfg.Headless,
		UserAgent:   cfg.UserAgent,
		NavTimeout:  cfg.NavTimeout,
		MaxSessions: cfg.BatchSize,
		HostQPS:     viper.GetFloat64("browser.host_qps"),
	}, logger)
	if err != nil {
		return fmt.Errorf("init browser: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			logger.Warn("Failed to close browser", zap.Error(cerr))
		}
	}()

	skips, err := openSkipLog(cfg)
	if err != nil {
		return err
	}
	if skips != nil {
		defer func() {
			if cerr := skips.Close(); cerr != nil {
				logger.Warn("Failed to close skip log", zap.Error(cerr))
			}
		}()
	}

	output, err := openStore(cfg)
	if err != nil {
		return err
	}

	var recorder scraper.SkipRecorder
	if skips != nil {
		recorder = skips
	}
	stats, runErr := scraper.New(cfg, engine, output, recorder, logger).Run(cmd.Context())

	if cerr := output.Close(); cerr != nil {
		if runErr == nil {
			runErr = fmt.Errorf("close store: %w", cerr)
		} else {
			logger.Error("Failed to close store", zap.Error(cerr))
		}
	}
	if runErr != nil {
		return fmt.Errorf("run scraper: %w", runErr)
	}

	logger.Info("Crawl command finished",
		zap.String("run_id", stats.RunID),
		zap.Int("collected", stats.Collected),
	)
	return nil
}

func openStore(cfg scraper.Config) (runStore, error) {
	if cfg.Format == scraper.FormatJSON {
		return store.OpenJSON(cfg.OutputPath(), logger), nil
	}
	output, err := store.OpenCSV(cfg.OutputPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open durable store: %w", err)
	}
	return output, nil
}

func openSkipLog(cfg scraper.Config) (*store.SkipLog, error) {
	if !cfg.SkipLog && !cfg.RememberSkipped {
		return nil, nil
	}
	skips, err := store.OpenSkipLog(cfg.SkipLogPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open skip log: %w", err)
	}
	return skips, nil
}
