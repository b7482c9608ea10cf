package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadSourcesParsesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sources.txt")
	content := `# leaderboards to crawl
https://substack.com/browse/technology

https://substack.com/browse/food-drink
  # trailing comment line
https://substack.com/browse/deep-dives
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources := LoadSources(path, zap.NewNop())
	require.Len(t, sources, 3)
	require.Equal(t, "https://substack.com/browse/technology", sources[0].URL)
	require.Equal(t, "Technology", sources[0].Category)
	require.Equal(t, "Food & Drink", sources[1].Category)
	require.Equal(t, "Deep Dives", sources[2].Category)
}

func TestLoadSourcesFallsBackToDefault(t *testing.T) {
	t.Parallel()

	sources := LoadSources(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop())
	require.Len(t, sources, 1)
	require.Equal(t, DefaultSourceURL, sources[0].URL)
	require.Equal(t, "Explore", sources[0].Category)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n\n"), 0o644))
	sources = LoadSources(empty, zap.NewNop())
	require.Len(t, sources, 1)
	require.Equal(t, DefaultSourceURL, sources[0].URL)

	sources = LoadSources("", zap.NewNop())
	require.Len(t, sources, 1)
	require.Equal(t, DefaultSourceURL, sources[0].URL)
}

func TestCategoryForURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://substack.com/browse/technology", "Technology"},
		{"https://substack.com/browse/health-wellness", "Health & Wellness"},
		{"https://substack.com/browse/faith", "Faith & Spirituality"},
		{"https://substack.com/browse/custom-topic", "Custom Topic"},
		{"https://substack.com/browse/économie", "Économie"},
		{"https://substack.com/browse/über-tech", "Über Tech"},
		{"https://substack.com/explore", "Explore"},
		{"https://substack.com/", "Explore"},
		{"https://substack.com/browse/Technology/", "Technology"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CategoryForURL(tc.url), tc.url)
	}
}
