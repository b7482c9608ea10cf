package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// profileURLPattern matches a canonical profile URL and captures the handle.
var profileURLPattern = regexp.MustCompile(`^https://substack\.com/@([^/?#]+)`)

// throttleMarkers are substrings of a rendered page body that indicate the
// source is rate-limiting the crawler.
var throttleMarkers = []string{
	"too many requests",
	"rate limit",
}

// ProfileExtract carries the raw fields pulled from one rendered profile
// page, before parsing and filtering.
type ProfileExtract struct {
	SubscriberText string
	OutboundLinks  []string
}

// ExtractCandidates enumerates unique profile candidates visible in a
// rendered leaderboard page, in first-seen document order. Relative profile
// hrefs are resolved against the platform origin.
func ExtractCandidates(html string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse leaderboard html: %w", err)
	}

	var candidates []Candidate
	seen := make(map[string]struct{})
	doc.Find(`a[href*="/@"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		cand, ok := candidateFromHref(href)
		if !ok {
			return
		}
		if _, dup := seen[cand.Key]; dup {
			return
		}
		seen[cand.Key] = struct{}{}
		candidates = append(candidates, cand)
	})
	return candidates, nil
}

// ExtractProfile pulls the subscriber display text and the outbound link
// URLs from one rendered profile page. Classification of the links happens
// separately so it stays unit-testable without a rendering engine.
func ExtractProfile(html string) (ProfileExtract, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ProfileExtract{}, fmt.Errorf("parse profile html: %w", err)
	}

	extract := ProfileExtract{
		SubscriberText: strings.TrimSpace(doc.Find(`a[href*="/subscribers"]`).First().Text()),
	}
	doc.Find("button[data-href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("data-href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if strings.HasPrefix(strings.ToLower(href), "http") {
			extract.OutboundLinks = append(extract.OutboundLinks, href)
		}
	})
	return extract, nil
}

// IsThrottled reports whether the rendered body carries a throttling marker.
func IsThrottled(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range throttleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func candidateFromHref(href string) (Candidate, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/@") {
		href = "https://substack.com" + href
	}
	match := profileURLPattern.FindStringSubmatch(href)
	if match == nil {
		return Candidate{}, false
	}
	handle := match[1]
	return Candidate{
		URL:      "https://substack.com/@" + handle,
		Username: handle,
		Key:      strings.ToLower(handle),
	}, true
}
