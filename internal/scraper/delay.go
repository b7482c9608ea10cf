package scraper

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// jitterVariance is the fraction of the base delay by which each pause is
// randomized, matching the crawl cadence humans would not flag as a bot.
const jitterVariance = 0.3

// Backoff computes the jittered inter-action delay and the escalated pause
// applied when a batch trips a throttling signal.
type Backoff struct {
	base      time.Duration
	escalated time.Duration
	variance  float64
}

// NewBackoff builds a Backoff from the configured request and error delays.
func NewBackoff(base, escalated time.Duration) *Backoff {
	return &Backoff{base: base, escalated: escalated, variance: jitterVariance}
}

// Base returns the jittered delay applied between batches and sources.
func (b *Backoff) Base() time.Duration {
	return b.jittered(b.base)
}

// Escalated returns the jittered pause applied once per throttled batch.
func (b *Backoff) Escalated() time.Duration {
	return b.jittered(b.escalated)
}

// jittered spreads d uniformly across [d*(1-variance), d*(1+variance)].
func (b *Backoff) jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	span := time.Duration(float64(d) * b.variance * 2)
	low := time.Duration(float64(d) * (1 - b.variance))
	return low + randomWithin(span)
}

func randomWithin(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// Pause sleeps for delay or until the context finishes, whichever comes
// first. It never mutates shared state, so it is safe at every suspension
// point of the orchestration loop.
func Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
