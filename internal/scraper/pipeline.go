package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrThrottled marks a candidate whose page carried a rate-limit marker.
var ErrThrottled = errors.New("source is throttling requests")

// Pipeline fetches a bounded batch of candidates: every candidate gets an
// isolated session, navigation runs concurrently across the batch, then
// extraction runs sequentially in batch order once the settle delay has
// elapsed. A failure stays confined to its candidate.
type Pipeline struct {
	browser Browser
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewPipeline constructs a Pipeline.
func NewPipeline(browser Browser, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		browser: browser,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

type batchSlot struct {
	sess   Session
	navErr error
}

// FetchBatch processes one batch for the given source and returns a result
// per candidate, in batch order, plus whether any candidate was throttled.
// Sessions are released on every exit path.
func (p *Pipeline) FetchBatch(ctx context.Context, batch []Candidate, src Source) ([]BatchResult, bool) {
	slots := make([]batchSlot, len(batch))
	defer func() {
		for i := range slots {
			if slots[i].sess == nil {
				continue
			}
			if err := slots[i].sess.Close(); err != nil {
				p.logger.Warn("Session close failed",
					zap.String("profile", batch[i].Username),
					zap.Error(err),
				)
			}
		}
	}()

	p.navigateBatch(ctx, batch, slots)
	Pause(ctx, p.cfg.PageWait)

	results := make([]BatchResult, len(batch))
	throttled := false
	for i, cand := range batch {
		results[i] = p.extractOne(ctx, cand, slots[i], src)
		if results[i].Throttled {
			throttled = true
		}
	}
	return results, throttled
}

// navigateBatch opens a session per candidate and issues every navigation
// before any extraction happens. Each goroutine touches only its own slot,
// and the WaitGroup join publishes the writes back to the orchestration
// goroutine.
func (p *Pipeline) navigateBatch(ctx context.Context, batch []Candidate, slots []batchSlot) {
	var wg sync.WaitGroup
	for i, cand := range batch {
		sess, err := p.browser.NewSession(ctx)
		if err != nil {
			slots[i].navErr = fmt.Errorf("open session: %w", err)
			continue
		}
		slots[i].sess = sess

		wg.Add(1)
		go func(slot *batchSlot, url string) {
			defer wg.Done()
			if err := slot.sess.Navigate(ctx, url); err != nil {
				slot.navErr = fmt.Errorf("navigate: %w", err)
			}
		}(&slots[i], cand.URL)
	}
	wg.Wait()
}

func (p *Pipeline) extractOne(ctx context.Context, cand Candidate, slot batchSlot, src Source) BatchResult {
	result := BatchResult{Candidate: cand}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if slot.navErr != nil {
		result.Err = slot.navErr
		return result
	}

	html, err := slot.sess.HTML(ctx)
	if err != nil {
		result.Err = fmt.Errorf("read page: %w", err)
		return result
	}
	if IsThrottled(html) {
		result.Err = ErrThrottled
		result.Throttled = true
		return result
	}

	extract, err := ExtractProfile(html)
	if err != nil {
		result.Err = err
		return result
	}

	result.Record = &ProfileRecord{
		Username:       cand.Username,
		ProfileURL:     cand.URL,
		Subscribers:    ParseSubscriberCount(extract.SubscriberText),
		SubscriberText: extract.SubscriberText,
		SocialLinks:    ClassifyLinks(extract.OutboundLinks),
		Category:       src.Category,
		ScrapedAt:      p.now(),
	}
	return result
}
