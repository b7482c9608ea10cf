package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func filterConfig() Config {
	return Config{
		MaxSubscribers: 20_000,
		MinSubscribers: 100,
	}
}

func TestFilterChainAccepts(t *testing.T) {
	t.Parallel()

	chain := NewFilterChain(filterConfig())
	rec := &ProfileRecord{
		Subscribers: 5_000,
		SocialLinks: map[string]string{"twitter": "https://twitter.com/a"},
	}
	decision := chain.Evaluate(rec)
	require.True(t, decision.Accepted)
	require.Empty(t, decision.Reason)
}

func TestFilterChainCeiling(t *testing.T) {
	t.Parallel()

	chain := NewFilterChain(filterConfig())
	decision := chain.Evaluate(&ProfileRecord{Subscribers: 20_001})
	require.False(t, decision.Accepted)
	require.Contains(t, decision.Reason, "above max")

	// Exactly at the ceiling passes.
	decision = chain.Evaluate(&ProfileRecord{Subscribers: 20_000})
	require.True(t, decision.Accepted)
}

func TestFilterChainFloor(t *testing.T) {
	t.Parallel()

	chain := NewFilterChain(filterConfig())
	decision := chain.Evaluate(&ProfileRecord{Subscribers: 99})
	require.False(t, decision.Accepted)
	require.Contains(t, decision.Reason, "below min")
}

func TestFilterChainShortCircuits(t *testing.T) {
	t.Parallel()

	cfg := filterConfig()
	cfg.RequireSocialLinks = true
	cfg.Platforms = []string{"twitter"}
	chain := NewFilterChain(cfg)

	// A record over the ceiling must be rejected on subscribers before the
	// link projection runs: the disallowed platform survives untouched.
	rec := &ProfileRecord{
		Subscribers: 50_000,
		SocialLinks: map[string]string{"instagram": "https://instagram.com/a"},
	}
	decision := chain.Evaluate(rec)
	require.False(t, decision.Accepted)
	require.Contains(t, decision.Reason, "above max")
	require.Len(t, rec.SocialLinks, 1)
}

func TestFilterChainProjectsPlatforms(t *testing.T) {
	t.Parallel()

	cfg := filterConfig()
	cfg.Platforms = []string{"twitter", "github"}
	chain := NewFilterChain(cfg)

	rec := &ProfileRecord{
		Subscribers: 500,
		SocialLinks: map[string]string{
			"twitter":   "https://twitter.com/a",
			"instagram": "https://instagram.com/a",
			"github":    "https://github.com/a",
		},
	}
	decision := chain.Evaluate(rec)
	require.True(t, decision.Accepted)
	require.Equal(t, map[string]string{
		"twitter": "https://twitter.com/a",
		"github":  "https://github.com/a",
	}, rec.SocialLinks)
}

func TestFilterChainRequireLinks(t *testing.T) {
	t.Parallel()

	cfg := filterConfig()
	cfg.RequireSocialLinks = true
	cfg.Platforms = []string{"twitter"}
	chain := NewFilterChain(cfg)

	// The projection can empty the mapping; the required-link step then
	// rejects the record.
	rec := &ProfileRecord{
		Subscribers: 500,
		SocialLinks: map[string]string{"instagram": "https://instagram.com/a"},
	}
	decision := chain.Evaluate(rec)
	require.False(t, decision.Accepted)
	require.Equal(t, "no social links", decision.Reason)
}

func TestFilterChainZeroThresholdsDisabled(t *testing.T) {
	t.Parallel()

	chain := NewFilterChain(Config{})
	decision := chain.Evaluate(&ProfileRecord{Subscribers: 10_000_000})
	require.True(t, decision.Accepted)
}
