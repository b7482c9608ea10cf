package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/scraper"
)

// timeLayout is the "Scraped At" column format.
const timeLayout = "2006-01-02 15:04:05"

// CSVStore is the incremental durable store: an append-only CSV whose header
// is written exactly once and whose rows double as the dedup set on restart.
// Collaborators parse it positionally, so the column order is fixed.
type CSVStore struct {
	path   string
	file   *os.File
	writer *csv.Writer
	dedup  *DedupSet
	logger *zap.Logger
}

// OpenCSV opens (or creates) the durable store at path, loads the identity
// keys of every existing row, and positions the writer for appends. A
// missing or empty file is not an error; it just means an empty dedup set
// and a pending header.
func OpenCSV(path string, logger *zap.Logger) (*CSVStore, error) {
	dedup := NewDedupSet()
	if err := loadKeys(path, dedup); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &CSVStore{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
		dedup:  dedup,
		logger: logger,
	}
	if err := s.writeHeaderIfEmpty(); err != nil {
		file.Close() //nolint:errcheck
		return nil, err
	}

	logger.Info("Durable store opened",
		zap.String("path", path),
		zap.Int("known_identities", dedup.Len()),
	)
	return s, nil
}

// Contains reports whether the identity key has a persisted row.
func (s *CSVStore) Contains(key string) bool {
	return s.dedup.Contains(key)
}

// Append writes one accepted record, flushes it to the OS, and registers
// the identity key. The dedup set is updated only after the row is durably
// out of this process.
func (s *CSVStore) Append(rec scraper.ProfileRecord) error {
	if err := s.writer.Write(recordRow(rec)); err != nil {
		return fmt.Errorf("write row for %s: %w", rec.Username, err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush row for %s: %w", rec.Username, err)
	}
	s.dedup.Add(rec.Username)
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVStore) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close() //nolint:errcheck
		return fmt.Errorf("final flush: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// PreloadKeys registers extra identities (for example, from the skip log) as
// already processed for this run without writing anything durable.
func (s *CSVStore) PreloadKeys(keys []string) {
	for _, key := range keys {
		s.dedup.Add(key)
	}
}

func (s *CSVStore) writeHeaderIfEmpty() error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat store: %w", err)
	}
	if info.Size() > 0 {
		return nil
	}
	if err := s.writer.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}
	return nil
}

// Header returns the fixed column order of the durable CSV.
func Header() []string {
	header := []string{"Username", "Profile URL", "Subscribers"}
	for _, platform := range scraper.PlatformOrder() {
		header = append(header, scraper.PlatformTitle(platform))
	}
	return append(header, "Other", "Scraped At", "Category")
}

func recordRow(rec scraper.ProfileRecord) []string {
	row := []string{rec.Username, rec.ProfileURL, strconv.Itoa(rec.Subscribers)}
	for _, platform := range scraper.PlatformOrder() {
		row = append(row, rec.SocialLinks[platform])
	}
	return append(row,
		rec.SocialLinks[scraper.PlatformOther],
		rec.ScrapedAt.Format(timeLayout),
		rec.Category,
	)
}

// loadKeys scans an existing store once at startup. The username column is
// positional (column 0); ragged rows are tolerated so a partially written
// final line cannot wedge a restart.
func loadKeys(path string, dedup *DedupSet) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open existing store %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan existing store %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		if len(row) > 0 && row[0] != "" {
			dedup.Add(row[0])
		}
	}
}
