package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/metrics"
)

// ErrPersistence wraps a durable-write failure. Depending on
// output.on_write_error it aborts the run: an accepted record that cannot be
// persisted is a consistency violation, not a candidate-level hiccup.
var ErrPersistence = errors.New("persistence failure")

// Scraper sequences sources through discovery, batched fetching, filtering,
// and persistence. All shared state (dedup set, quota counter, statistics)
// is mutated only by the orchestration goroutine after each batch's
// concurrent phase has fully joined.
type Scraper struct {
	cfg      Config
	browser  Browser
	store    Store
	skips    SkipRecorder
	pipeline *Pipeline
	filter   FilterChain
	backoff  *Backoff
	logger   *zap.Logger

	// remembered holds skip/error identities treated as processed when
	// scraper.remember_skipped is enabled.
	remembered map[string]struct{}
}

// New constructs a Scraper. skips may be nil when no skip log is configured.
func New(cfg Config, browser Browser, store Store, skips SkipRecorder, logger *zap.Logger) *Scraper {
	s := &Scraper{
		cfg:        cfg,
		browser:    browser,
		store:      store,
		skips:      skips,
		pipeline:   NewPipeline(browser, cfg, logger),
		filter:     NewFilterChain(cfg),
		backoff:    NewBackoff(cfg.RequestDelay, cfg.ErrorDelay),
		logger:     logger,
		remembered: make(map[string]struct{}),
	}
	if cfg.RememberSkipped && skips != nil {
		for _, key := range skips.Keys() {
			s.remembered[strings.ToLower(key)] = struct{}{}
		}
	}
	return s
}

// Run crawls every configured source in order until the quota is met or the
// source list is exhausted. The returned statistics are valid even when the
// error is non-nil; the summary has already been logged in both cases.
func (s *Scraper) Run(ctx context.Context) (RunStats, error) {
	stats := NewRunStats(uuid.NewString())
	sources := LoadSources(s.cfg.SourcesFile, s.logger)

	s.logger.Info("Starting run",
		zap.String("run_id", stats.RunID),
		zap.Int("sources", len(sources)),
		zap.Int("max_profiles", s.cfg.MaxProfiles),
		zap.Int("batch_size", s.cfg.BatchSize),
		zap.String("output", s.cfg.OutputPath()),
	)

	var runErr error
	for i, src := range sources {
		if stats.Collected >= s.cfg.MaxProfiles {
			s.logger.Info("Quota met; skipping remaining sources",
				zap.Int("remaining", len(sources)-i),
			)
			break
		}
		if i > 0 {
			Pause(ctx, s.backoff.Base())
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		stats.SourcesVisited++
		if err := s.crawlSource(ctx, src, &stats); err != nil {
			if errors.Is(err, ErrPersistence) || errors.Is(err, context.Canceled) {
				runErr = err
				break
			}
			// Source-level failures stay isolated: log and move on.
			s.logger.Error("Source failed", zap.String("source", src.URL), zap.Error(err))
		}
	}

	s.logSummary(stats)
	return stats, runErr
}

// crawlSource discovers one source's frontier and works through it in
// strictly sequential batches.
func (s *Scraper) crawlSource(ctx context.Context, src Source, stats *RunStats) error {
	frontier, err := s.discover(ctx, src)
	if err != nil {
		return err
	}
	metrics.SetFrontierSize(src.URL, len(frontier))
	if len(frontier) == 0 {
		return nil
	}

	for start := 0; start < len(frontier); {
		remaining := s.cfg.MaxProfiles - stats.Collected
		if remaining <= 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if start > 0 {
			Pause(ctx, s.backoff.Base())
		}

		end := min(start+s.cfg.BatchSize, len(frontier))
		batch := frontier[start:end]
		if len(batch) > remaining {
			batch = batch[:remaining]
		}
		// Advance by what this batch actually consumed: a batch trimmed to
		// the remaining quota must not displace the candidates it cut off.
		start += len(batch)

		metrics.ObserveBatch()
		results, throttled := s.pipeline.FetchBatch(ctx, batch, src)
		for _, result := range results {
			metrics.ObservePageFetch("profile")
			if err := s.recordOutcome(result, src, stats); err != nil {
				return err
			}
		}
		if throttled {
			metrics.ObserveThrottle()
			delay := s.backoff.Escalated()
			s.logger.Warn("Throttling detected; backing off",
				zap.String("source", src.URL),
				zap.Duration("delay", delay),
			)
			Pause(ctx, delay)
		}
	}
	return nil
}

func (s *Scraper) discover(ctx context.Context, src Source) ([]Candidate, error) {
	sess, err := s.browser.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open discovery session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn("Discovery session close failed", zap.Error(cerr))
		}
	}()

	metrics.ObservePageFetch("leaderboard")
	return DiscoverCandidates(ctx, sess, src, s.cfg, s.dedup(), s.logger)
}

// dedup combines the durable store's identity set with skip/error
// identities remembered for this run.
func (s *Scraper) dedup() Dedup {
	return dedupChain{store: s.store, remembered: s.remembered}
}

type dedupChain struct {
	store      Store
	remembered map[string]struct{}
}

func (d dedupChain) Contains(key string) bool {
	if d.store.Contains(key) {
		return true
	}
	_, ok := d.remembered[strings.ToLower(key)]
	return ok
}

// recordOutcome applies the filter chain to one batch result and persists
// accepts. Only a persistence failure under the fatal policy returns an
// error; everything else is counted and logged.
func (s *Scraper) recordOutcome(result BatchResult, src Source, stats *RunStats) error {
	cand := result.Candidate
	switch {
	case result.Err != nil:
		stats.Errored++
		metrics.ObserveProfile(src.Category, string(OutcomeErrored))
		s.logger.Warn("Profile errored",
			zap.String("profile", cand.Username),
			zap.Error(result.Err),
		)
		s.noteRejected(cand, "error: "+result.Err.Error())
		return nil

	case result.Record == nil:
		// Defensive: a result must carry either a record or an error.
		stats.Errored++
		metrics.ObserveProfile(src.Category, string(OutcomeErrored))
		return nil
	}

	decision := s.filter.Evaluate(result.Record)
	if !decision.Accepted {
		stats.Skipped++
		metrics.ObserveProfile(src.Category, string(OutcomeSkipped))
		s.logger.Info("Profile skipped",
			zap.String("profile", cand.Username),
			zap.String("reason", decision.Reason),
		)
		s.noteRejected(cand, decision.Reason)
		return nil
	}

	if err := s.store.Append(*result.Record); err != nil {
		if s.cfg.OnWriteError == WriteErrorFatal {
			return fmt.Errorf("%w: append %s: %v", ErrPersistence, cand.Username, err)
		}
		stats.Errored++
		metrics.ObserveProfile(src.Category, string(OutcomeErrored))
		s.logger.Error("Append failed; record lost",
			zap.String("profile", cand.Username),
			zap.Error(err),
		)
		return nil
	}

	stats.RecordAccept(*result.Record)
	metrics.ObserveProfile(src.Category, string(OutcomeCollected))
	s.logger.Info("Profile collected",
		zap.String("profile", cand.Username),
		zap.Int("subscribers", result.Record.Subscribers),
		zap.Int("social_links", len(result.Record.SocialLinks)),
		zap.String("category", src.Category),
	)
	return nil
}

// noteRejected feeds the skip log and, when configured, the remembered set
// so later discoveries treat the identity as processed.
func (s *Scraper) noteRejected(cand Candidate, reason string) {
	if s.skips != nil {
		if err := s.skips.Record(cand.Username, reason); err != nil {
			s.logger.Warn("Skip log write failed",
				zap.String("profile", cand.Username),
				zap.Error(err),
			)
		}
	}
	if s.cfg.RememberSkipped {
		s.remembered[cand.Key] = struct{}{}
	}
}

func (s *Scraper) logSummary(stats RunStats) {
	fields := []zap.Field{
		zap.String("run_id", stats.RunID),
		zap.Int("collected", stats.Collected),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errored", stats.Errored),
		zap.Int("sources_visited", stats.SourcesVisited),
		zap.Int("avg_subscribers", stats.AverageSubscribers()),
	}
	if len(stats.ByCategory) > 0 {
		fields = append(fields, zap.Any("by_category", stats.ByCategory))
	}
	if len(stats.ByPlatform) > 0 {
		fields = append(fields, zap.Any("by_platform", stats.ByPlatform))
	}
	s.logger.Info("Run summary", fields...)
}
