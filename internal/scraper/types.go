// Package scraper implements the leaderboard crawl orchestrator and helpers.
package scraper

import (
	"time"
)

// Source is one leaderboard page to crawl together with the category label
// derived from its URL slug. The label is fixed at discovery time and carried
// unchanged onto every record produced from this source.
type Source struct {
	URL      string
	Category string
}

// Candidate is a profile discovered on a source page but not yet fetched.
// Key is the handle segment of the URL, lowercased for comparison against
// the dedup set; Username preserves the original casing for output.
type Candidate struct {
	URL      string
	Username string
	Key      string
}

// ProfileRecord is the immutable result of a successful fetch, extraction,
// and filter pass. It is created only for accepted candidates.
type ProfileRecord struct {
	Username       string            `json:"username"`
	ProfileURL     string            `json:"profile_url"`
	Subscribers    int               `json:"subscriber_count"`
	SubscriberText string            `json:"subscriber_text"`
	SocialLinks    map[string]string `json:"social_links"`
	Category       string            `json:"category"`
	ScrapedAt      time.Time         `json:"scraped_at"`
}

// Outcome classifies what happened to one candidate.
type Outcome string

// Candidate outcomes tracked in run statistics.
const (
	OutcomeCollected Outcome = "collected"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeErrored   Outcome = "errored"
)

// BatchResult is produced by the fetch pipeline for every candidate in a
// batch: either Record is set (extraction succeeded, filter not yet applied)
// or Err describes the candidate-level failure. Throttled marks candidates
// whose page carried a rate-limit marker.
type BatchResult struct {
	Candidate Candidate
	Record    *ProfileRecord
	Err       error
	Throttled bool
}

// RunStats aggregates candidate outcomes across the whole run.
type RunStats struct {
	RunID          string
	Collected      int
	Skipped        int
	Errored        int
	ByCategory     map[string]int
	ByPlatform     map[string]int
	SubscriberSum  int
	SourcesVisited int
}

// NewRunStats returns empty statistics for the given run ID.
func NewRunStats(runID string) RunStats {
	return RunStats{
		RunID:      runID,
		ByCategory: make(map[string]int),
		ByPlatform: make(map[string]int),
	}
}

// RecordAccept updates the aggregates for one accepted record.
func (s *RunStats) RecordAccept(rec ProfileRecord) {
	s.Collected++
	s.ByCategory[rec.Category]++
	for platform := range rec.SocialLinks {
		s.ByPlatform[platform]++
	}
	s.SubscriberSum += rec.Subscribers
}

// AverageSubscribers returns the mean subscriber count of accepted records.
func (s *RunStats) AverageSubscribers() int {
	if s.Collected == 0 {
		return 0
	}
	return s.SubscriberSum / s.Collected
}
