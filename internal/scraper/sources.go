package scraper

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultSourceURL is crawled when no source list is configured or the
// configured file cannot be read.
const DefaultSourceURL = "https://substack.com/explore"

// categoryTitles resolves known leaderboard slugs to display labels.
// Unmapped slugs fall back to a title-cased version of the slug.
var categoryTitles = map[string]string{
	"explore":          "Explore",
	"technology":       "Technology",
	"culture":          "Culture",
	"business":         "Business",
	"politics":         "Politics",
	"finance":          "Finance",
	"food-drink":       "Food & Drink",
	"health-wellness":  "Health & Wellness",
	"climate":          "Climate",
	"science":          "Science",
	"faith":            "Faith & Spirituality",
	"sports":           "Sports",
	"music":            "Music",
	"literature":       "Literature",
	"art-illustration": "Art & Illustration",
	"parenting":        "Parenting",
	"travel":           "Travel",
	"education":        "Education",
	"crypto":           "Crypto",
	"fiction":          "Fiction",
	"history":          "History",
	"humor":            "Humor",
}

// LoadSources reads the line-oriented source list at path. Blank lines and
// lines beginning with '#' are ignored; remaining lines become sources in
// file order. A missing or empty file is not an error: the default source is
// returned instead so a bare checkout still produces a useful run.
func LoadSources(path string, logger *zap.Logger) []Source {
	if path == "" {
		return []Source{defaultSource()}
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Source list unreadable; falling back to default source",
			zap.String("path", path),
			zap.Error(err),
		)
		return []Source{defaultSource()}
	}
	defer f.Close() //nolint:errcheck

	var sources []Source
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, Source{URL: line, Category: CategoryForURL(line)})
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Source list read failed partway", zap.String("path", path), zap.Error(err))
	}
	if len(sources) == 0 {
		logger.Warn("Source list contained no sources; using default", zap.String("path", path))
		return []Source{defaultSource()}
	}
	return sources
}

// CategoryForURL derives the category label from the last path segment of a
// leaderboard URL.
func CategoryForURL(rawURL string) string {
	slug := categorySlug(rawURL)
	if slug == "" {
		return categoryTitles["explore"]
	}
	if title, ok := categoryTitles[slug]; ok {
		return title
	}
	return titleizeSlug(slug)
}

func defaultSource() Source {
	return Source{URL: DefaultSourceURL, Category: CategoryForURL(DefaultSourceURL)}
}

func categorySlug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return strings.ToLower(segments[i])
		}
	}
	return ""
}

func titleizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = capitalize(w)
	}
	if len(words) == 0 {
		return capitalize(slug)
	}
	return strings.Join(words, " ")
}

// String renders a source for logs.
func (s Source) String() string {
	return fmt.Sprintf("%s (%s)", s.URL, s.Category)
}
