package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSubscriberCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want int
	}{
		{"thousands suffix", "276K+ subscribers", 276_000},
		{"fractional millions", "1.5M subscribers", 1_500_000},
		{"thousand separators", "12,345 subscribers", 12_345},
		{"empty text", "", 0},
		{"see prefix", "see 3 subscribers", 3},
		{"bare number", "42 subscribers", 42},
		{"lowercase k", "10k subscribers", 10_000},
		{"fractional thousands", "2.7k subscribers", 2_700},
		{"millions suffix", "3M+ subscribers", 3_000_000},
		{"no suffix word", "900", 900},
		{"unparseable", "hidden from view", 0},
		{"suffix without digits", "K subscribers", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ParseSubscriberCount(tc.text))
		})
	}
}
