package scraper

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseSubscriberCount converts display text such as "276K+ subscribers",
// "1.5M subscribers", or "12,345 subscribers" into an integer count. Any text
// that cannot be parsed yields 0 rather than an error, which biases filtering
// toward the minimum-threshold branch; callers relying on floors should be
// aware that unparseable profiles read as zero subscribers.
func ParseSubscriberCount(text string) int {
	if text == "" {
		return 0
	}

	cleaned := strings.ToLower(text)
	cleaned = strings.ReplaceAll(cleaned, "subscribers", "")
	cleaned = strings.ReplaceAll(cleaned, "+", "")
	cleaned = strings.ReplaceAll(cleaned, "see", "")
	cleaned = strings.TrimSpace(cleaned)

	switch {
	case strings.Contains(cleaned, "k"):
		return scaled(strings.ReplaceAll(cleaned, "k", ""), 1_000)
	case strings.Contains(cleaned, "m"):
		return scaled(strings.ReplaceAll(cleaned, "m", ""), 1_000_000)
	default:
		n, err := strconv.Atoi(strings.ReplaceAll(cleaned, ",", ""))
		if err != nil {
			return 0
		}
		return n
	}
}

func scaled(prefix string, factor float64) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	if err != nil {
		return 0
	}
	return int(n * factor)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + word[size:]
}
