package store

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/scraper"
)

// JSONStore buffers accepted records in memory and writes a single array at
// Close. JSON mode is non-incremental: it does not support resume, so
// Contains always answers false and a crash loses the buffered run.
type JSONStore struct {
	path    string
	records []scraper.ProfileRecord
	logger  *zap.Logger
}

// OpenJSON creates a JSON store targeting path.
func OpenJSON(path string, logger *zap.Logger) *JSONStore {
	logger.Warn("JSON output is non-incremental; interrupted runs lose their records and never resume",
		zap.String("path", path),
	)
	return &JSONStore{path: path, logger: logger}
}

// Contains always reports false: nothing is durable until Close.
func (s *JSONStore) Contains(string) bool {
	return false
}

// Append buffers one accepted record.
func (s *JSONStore) Append(rec scraper.ProfileRecord) error {
	s.records = append(s.records, rec)
	return nil
}

// Close writes the whole run as one indented JSON array.
func (s *JSONStore) Close() error {
	payload, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write store %s: %w", s.path, err)
	}
	return nil
}
