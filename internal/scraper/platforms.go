package scraper

import "strings"

// PlatformOther is the bucket for outbound links whose domain matches no
// known platform.
const PlatformOther = "other"

// excludedDomain is the source platform's own domain; links pointing back at
// it are never treated as outbound.
const excludedDomain = "substack.com"

// platformDomains maps a URL substring to its platform name. Checked in
// the order given by platformDomainOrder so twitter.com and x.com collapse
// into one column.
var platformDomains = map[string]string{
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"instagram.com": "instagram",
	"facebook.com":  "facebook",
	"linkedin.com":  "linkedin",
	"tiktok.com":    "tiktok",
	"youtube.com":   "youtube",
	"linktr.ee":     "linktree",
	"threads.net":   "threads",
	"bsky.app":      "bluesky",
	"github.com":    "github",
	"medium.com":    "medium",
}

var platformDomainOrder = []string{
	"twitter.com",
	"x.com",
	"instagram.com",
	"facebook.com",
	"linkedin.com",
	"tiktok.com",
	"youtube.com",
	"linktr.ee",
	"threads.net",
	"bsky.app",
	"github.com",
	"medium.com",
}

// platformOrder fixes the column order of the durable output. Collaborators
// parse the CSV positionally, so this order must never change.
var platformOrder = []string{
	"twitter",
	"instagram",
	"tiktok",
	"linkedin",
	"facebook",
	"youtube",
	"linktree",
	"threads",
	"bluesky",
	"github",
	"medium",
}

var platformTitles = map[string]string{
	"twitter":   "Twitter",
	"instagram": "Instagram",
	"tiktok":    "TikTok",
	"linkedin":  "LinkedIn",
	"facebook":  "Facebook",
	"youtube":   "YouTube",
	"linktree":  "Linktree",
	"threads":   "Threads",
	"bluesky":   "Bluesky",
	"github":    "GitHub",
	"medium":    "Medium",
}

// PlatformOrder returns the fixed output order of platform names, excluding
// the trailing "other" bucket.
func PlatformOrder() []string {
	out := make([]string, len(platformOrder))
	copy(out, platformOrder)
	return out
}

// PlatformTitle returns the human-readable column title for a platform name.
func PlatformTitle(name string) string {
	if title, ok := platformTitles[name]; ok {
		return title
	}
	return capitalize(name)
}

// ClassifyLink maps an outbound URL to a platform name, or PlatformOther when
// no known domain matches. Links back to the source platform return false.
func ClassifyLink(rawURL string) (string, bool) {
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http") {
		return "", false
	}
	if strings.Contains(lower, excludedDomain) {
		return "", false
	}
	for _, domain := range platformDomainOrder {
		if strings.Contains(lower, domain) {
			return platformDomains[domain], true
		}
	}
	return PlatformOther, true
}

// ClassifyLinks folds a list of outbound URLs into a platform→URL mapping.
// The first link seen for a platform wins; later links to an already
// populated platform are discarded.
func ClassifyLinks(rawURLs []string) map[string]string {
	links := make(map[string]string)
	for _, raw := range rawURLs {
		platform, ok := ClassifyLink(raw)
		if !ok {
			continue
		}
		if _, taken := links[platform]; taken {
			continue
		}
		links[platform] = raw
	}
	return links
}
