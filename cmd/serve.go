package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/metrics"
	"github.com/substackscout/substackscout/internal/scraper"
	"github.com/substackscout/substackscout/internal/viewer"
)

// newServeCmd creates the 'serve' subcommand: the live viewer over the
// durable CSV that the crawl appends to.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the live profile viewer",
		Long: `Starts an HTTP server exposing the durable CSV: an auto-refreshing HTML
viewer at /, the raw file at /api/csv, parsed records at /api/profiles, and
Prometheus metrics at /metrics. Data refreshes as the crawl appends.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	metrics.Init()

	cfg, err := scraper.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load scraper config: %w", err)
	}

	addr := viper.GetString("viewer.addr")
	server := &http.Server{
		Addr:              addr,
		Handler:           viewer.NewServer(cfg.OutputPath(), cfg.SkipLogPath(), logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Viewer listening",
		zap.String("addr", addr),
		zap.String("csv", cfg.OutputPath()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("viewer server: %w", err)
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("viewer shutdown: %w", err)
		}
		return nil
	}
}
