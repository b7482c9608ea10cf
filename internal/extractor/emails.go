// Package extractor hunts email addresses for already-scraped profiles: a
// fast scan over the durable CSV plus an optional plain-HTTP page scrape.
package extractor

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// imageExtensions filters the usual false positives: asset filenames that
// look like addresses (logo@2x.png and friends).
var imageExtensions = []string{".png", ".jpg", ".gif", ".jpeg", ".svg", ".webp"}

// ProfileRef identifies one already-scraped profile in the durable CSV.
type ProfileRef struct {
	Username string
	URL      string
}

// ExtractEmails returns the unique, lowercased email addresses found in
// text, sorted for deterministic output.
func ExtractEmails(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, match := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimSpace(match))
		if isImageName(email) {
			continue
		}
		seen[email] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for email := range seen {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

// ScanCSV scans every column of every row of the durable CSV for email
// patterns. The result maps username (column 0) to the addresses found.
func ScanCSV(path string) (map[string][]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	found := make(map[string][]string)
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		emails := ExtractEmails(strings.Join(row, " "))
		if len(emails) > 0 {
			found[row[0]] = emails
		}
	}
	return found, nil
}

// ReadProfileRefs loads username and profile URL pairs from the durable CSV.
func ReadProfileRefs(path string) ([]ProfileRef, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var refs []ProfileRef
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		refs = append(refs, ProfileRef{Username: row[0], URL: row[1]})
	}
	return refs, nil
}

// MergeEmails unions per-username results from the CSV scan and the page
// scrape.
func MergeEmails(sets ...map[string][]string) map[string][]string {
	merged := make(map[string]map[string]struct{})
	for _, set := range sets {
		for username, emails := range set {
			if merged[username] == nil {
				merged[username] = make(map[string]struct{})
			}
			for _, email := range emails {
				merged[username][email] = struct{}{}
			}
		}
	}

	out := make(map[string][]string, len(merged))
	for username, emails := range merged {
		list := make([]string, 0, len(emails))
		for email := range emails {
			list = append(list, email)
		}
		sort.Strings(list)
		out[username] = list
	}
	return out
}

func isImageName(email string) bool {
	for _, ext := range imageExtensions {
		if strings.Contains(email, ext) {
			return true
		}
	}
	return false
}

func readRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return rows, nil
}
