package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pipelineConfig() Config {
	return Config{BatchSize: 4}
}

func batchOf(handles ...string) []Candidate {
	batch := make([]Candidate, 0, len(handles))
	for _, h := range handles {
		batch = append(batch, Candidate{URL: profileURL(h), Username: h, Key: h})
	}
	return batch
}

func TestFetchBatchProducesRecords(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.pages[profileURL("alice")] = profileHTML("1.2K subscribers", "https://twitter.com/alice")
	browser.pages[profileURL("bob")] = profileHTML("See 500 subscribers")

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	pipeline.now = func() time.Time { return fixed }

	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	results, throttled := pipeline.FetchBatch(context.Background(), batchOf("alice", "bob"), src)
	require.False(t, throttled)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Record)
	require.Equal(t, "alice", results[0].Record.Username)
	require.Equal(t, 1_200, results[0].Record.Subscribers)
	require.Equal(t, "1.2K subscribers", results[0].Record.SubscriberText)
	require.Equal(t, map[string]string{"twitter": "https://twitter.com/alice"}, results[0].Record.SocialLinks)
	require.Equal(t, "Explore", results[0].Record.Category)
	require.Equal(t, fixed, results[0].Record.ScrapedAt)

	require.NoError(t, results[1].Err)
	require.Equal(t, 500, results[1].Record.Subscribers)
	require.Empty(t, results[1].Record.SocialLinks)
}

func TestFetchBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.pages[profileURL("alice")] = profileHTML("100 subscribers")
	browser.navErr[profileURL("broken")] = errors.New("net::ERR_CONNECTION_RESET")
	browser.pages[profileURL("carol")] = profileHTML("200 subscribers")
	browser.pages[profileURL("dave")] = profileHTML("300 subscribers")
	browser.pages[profileURL("erin")] = profileHTML("400 subscribers")

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	results, throttled := pipeline.FetchBatch(context.Background(), batchOf("alice", "broken", "carol", "dave", "erin"), src)
	require.False(t, throttled)
	require.Len(t, results, 5)

	require.Error(t, results[1].Err)
	require.Nil(t, results[1].Record)
	for _, i := range []int{0, 2, 3, 4} {
		require.NoError(t, results[i].Err)
		require.NotNil(t, results[i].Record)
	}
	require.Equal(t, 200, results[2].Record.Subscribers)
	require.Equal(t, 400, results[4].Record.Subscribers)
}

func TestFetchBatchFlagsThrottling(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.pages[profileURL("alice")] = profileHTML("100 subscribers")
	browser.pages[profileURL("bob")] = `<html><body>Too many requests</body></html>`
	browser.pages[profileURL("carol")] = `<html><body>rate limit exceeded</body></html>`

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	results, throttled := pipeline.FetchBatch(context.Background(), batchOf("alice", "bob", "carol"), src)

	// Throttling is reported once for the batch, not once per candidate.
	require.True(t, throttled)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrThrottled)
	require.True(t, results[1].Throttled)
	require.ErrorIs(t, results[2].Err, ErrThrottled)
}

func TestFetchBatchClosesSessions(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.pages[profileURL("alice")] = profileHTML("100 subscribers")
	browser.navErr[profileURL("broken")] = errors.New("timeout")

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	pipeline.FetchBatch(context.Background(), batchOf("alice", "broken"), src)

	require.Equal(t, 0, browser.openSessions(), "every session must be released")
}

func TestFetchBatchSessionOpenFailure(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.sessErr = errors.New("browser gone")

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	results, throttled := pipeline.FetchBatch(context.Background(), batchOf("alice"), src)
	require.False(t, throttled)
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
}

func TestFetchBatchCancelledContext(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser()
	browser.pages[profileURL("alice")] = profileHTML("100 subscribers")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := NewPipeline(browser, pipelineConfig(), zap.NewNop())
	src := Source{URL: "https://substack.com/explore", Category: "Explore"}
	results, _ := pipeline.FetchBatch(ctx, batchOf("alice"), src)
	require.ErrorIs(t, results[0].Err, context.Canceled)
}
