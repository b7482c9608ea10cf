package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/extractor"
	"github.com/substackscout/substackscout/internal/scraper"
)

// newExtractCmd creates the 'extract' subcommand: email discovery over
// already-scraped profiles.
func newExtractCmd() *cobra.Command {
	var (
		scrape     bool
		limit      int
		inputPath  string
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extracts emails for already-scraped profiles",
		Long: `Scans every column of the durable CSV for email patterns. With --scrape
it also fetches each profile page over plain HTTP and harvests mailto links
and body-text addresses. Results are exported as the original rows plus an
Email column.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != scraper.FormatCSV && format != scraper.FormatJSON {
				return fmt.Errorf("--format must be %q or %q", scraper.FormatCSV, scraper.FormatJSON)
			}

			cfg, err := scraper.LoadConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load scraper config: %w", err)
			}
			if inputPath == "" {
				inputPath = cfg.OutputPath()
			}
			if outputPath == "" {
				base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
				outputPath = filepath.Join(filepath.Dir(inputPath), base+"_with_emails."+format)
			}

			csvEmails, err := extractor.ScanCSV(inputPath)
			if err != nil {
				return fmt.Errorf("scan csv: %w", err)
			}
			logger.Info("CSV scan finished", zap.Int("profiles_with_emails", len(csvEmails)))

			scraped := map[string][]string{}
			if scrape {
				refs, err := extractor.ReadProfileRefs(inputPath)
				if err != nil {
					return fmt.Errorf("read profile refs: %w", err)
				}
				scanner := extractor.NewPageScanner(cfg.UserAgent, 15*time.Second, 500*time.Millisecond, logger)
				scraped = scanner.Scan(cmd.Context(), refs, limit)
				logger.Info("Page scrape finished", zap.Int("profiles_with_emails", len(scraped)))
			}

			merged := extractor.MergeEmails(csvEmails, scraped)
			if err := extractor.Export(inputPath, outputPath, format, merged); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			logger.Info("Extraction complete",
				zap.String("output", outputPath),
				zap.Int("profiles_with_emails", len(merged)),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&scrape, "scrape", false, "also scrape profile pages for emails (slower)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max profiles to scrape (0 = all)")
	cmd.Flags().StringVar(&inputPath, "input", "", "input CSV path (default: configured output)")
	cmd.Flags().StringVar(&outputPath, "output", "", "output path (default: <input>_with_emails.<format>)")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or json")

	return cmd
}
