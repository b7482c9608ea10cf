package extractor

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Export writes the original CSV rows augmented with an Email column
// (inserted after Username) to outputPath. Format must be "csv" or "json";
// the JSON form emits one object per row keyed by header column.
func Export(inputPath, outputPath, format string, emails map[string][]string) error {
	format = strings.ToLower(format)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown export format %q", format)
	}

	rows, err := readRows(inputPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("input csv %s is empty", inputPath)
	}

	augmented := make([][]string, 0, len(rows))
	header := insertAt(rows[0], 1, "Email")
	augmented = append(augmented, header)
	for _, row := range rows[1:] {
		joined := ""
		if len(row) > 0 {
			joined = strings.Join(emails[row[0]], ", ")
		}
		augmented = append(augmented, insertAt(row, 1, joined))
	}

	if format == "json" {
		return writeJSONRows(outputPath, augmented)
	}
	return writeCSVRows(outputPath, augmented)
}

func insertAt(row []string, index int, value string) []string {
	if index > len(row) {
		index = len(row)
	}
	out := make([]string, 0, len(row)+1)
	out = append(out, row[:index]...)
	out = append(out, value)
	return append(out, row[index:]...)
}

func writeCSVRows(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush export %s: %w", path, err)
	}
	return nil
}

func writeJSONRows(path string, rows [][]string) error {
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}
