package scraper

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dedup answers membership queries against the durable store's identity set.
type Dedup interface {
	Contains(key string) bool
}

// DiscoverCandidates drives one source page to reveal its frontier: after the
// initial navigation it repeatedly scrolls and re-enumerates visible profile
// links, stopping once ScrollStableIters consecutive iterations reveal no new
// identity or ScrollMaxIters is reached. The returned candidates are in
// first-seen order with identities already present in dedup removed.
func DiscoverCandidates(
	ctx context.Context,
	sess Session,
	src Source,
	cfg Config,
	dedup Dedup,
	logger *zap.Logger,
) ([]Candidate, error) {
	if err := sess.Navigate(ctx, src.URL); err != nil {
		return nil, fmt.Errorf("navigate source %s: %w", src.URL, err)
	}
	Pause(ctx, cfg.PageWait)

	var frontier []Candidate
	seen := make(map[string]struct{})
	stable := 0

	for iteration := 1; iteration <= cfg.ScrollMaxIters; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sess.Scroll(ctx); err != nil {
			return nil, fmt.Errorf("scroll source %s: %w", src.URL, err)
		}
		Pause(ctx, cfg.ScrollWait)

		html, err := sess.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", src.URL, err)
		}
		visible, err := ExtractCandidates(html)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, cand := range visible {
			if _, ok := seen[cand.Key]; ok {
				continue
			}
			seen[cand.Key] = struct{}{}
			frontier = append(frontier, cand)
			fresh++
		}

		if fresh == 0 {
			stable++
			if stable >= cfg.ScrollStableIters {
				logger.Debug("Frontier stabilized",
					zap.String("source", src.URL),
					zap.Int("iterations", iteration),
					zap.Int("discovered", len(frontier)),
				)
				break
			}
		} else {
			stable = 0
		}
	}

	known := 0
	unseen := frontier[:0]
	for _, cand := range frontier {
		if dedup.Contains(cand.Key) {
			known++
			continue
		}
		unseen = append(unseen, cand)
	}

	logger.Info("Discovery finished",
		zap.String("source", src.URL),
		zap.String("category", src.Category),
		zap.Int("discovered", len(unseen)+known),
		zap.Int("already_processed", known),
	)
	return unseen, nil
}
