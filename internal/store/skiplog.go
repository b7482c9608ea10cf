package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

var skipHeader = []string{"Username", "Reason", "Recorded At"}

// SkipLog is the optional sidecar recording skip and error outcomes keyed by
// identity, so the viewer can show why profiles were rejected and runs
// configured to remember skips can avoid re-fetching them.
type SkipLog struct {
	file   *os.File
	writer *csv.Writer
	keys   []string
	logger *zap.Logger
}

// OpenSkipLog opens (or creates) the sidecar at path and loads the
// identities it already holds.
func OpenSkipLog(path string, logger *zap.Logger) (*SkipLog, error) {
	keys, err := loadSkipKeys(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open skip log %s: %w", path, err)
	}

	l := &SkipLog{
		file:   file,
		writer: csv.NewWriter(file),
		keys:   keys,
		logger: logger,
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, fmt.Errorf("stat skip log: %w", err)
	}
	if info.Size() == 0 {
		if err := l.flushRow(skipHeader); err != nil {
			file.Close() //nolint:errcheck
			return nil, err
		}
	}
	return l, nil
}

// Record appends one rejected identity with its reason.
func (l *SkipLog) Record(username, reason string) error {
	return l.flushRow([]string{username, reason, time.Now().Format(timeLayout)})
}

// Keys returns the identities present in the sidecar when it was opened.
func (l *SkipLog) Keys() []string {
	return l.keys
}

// Close flushes and closes the sidecar.
func (l *SkipLog) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.file.Close() //nolint:errcheck
		return fmt.Errorf("flush skip log: %w", err)
	}
	return l.file.Close()
}

func (l *SkipLog) flushRow(row []string) error {
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("write skip log row: %w", err)
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return fmt.Errorf("flush skip log row: %w", err)
	}
	return nil
}

func loadSkipKeys(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open existing skip log %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var keys []string
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("scan skip log %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		if len(row) > 0 && row[0] != "" {
			keys = append(keys, row[0])
		}
	}
}
