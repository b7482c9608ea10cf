// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	profilesTotal       *prometheus.CounterVec
	pagesFetchedTotal   *prometheus.CounterVec
	throttleEventsTotal prometheus.Counter
	batchesTotal        prometheus.Counter
	frontierSize        *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		profilesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_profiles_total",
				Help: "Profiles processed, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_pages_fetched_total",
				Help: "Pages navigated by the browser engine, labeled by kind.",
			},
			[]string{"kind"},
		)

		throttleEventsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scout_throttle_events_total",
				Help: "Batches that tripped a rate-limit marker.",
			},
		)

		batchesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scout_batches_total",
				Help: "Candidate batches fetched.",
			},
		)

		frontierSize = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scout_frontier_size",
				Help: "Candidates discovered per source after dedup.",
			},
			[]string{"source"},
		)
	})
}

// ObserveProfile counts one candidate outcome.
func ObserveProfile(category, outcome string) {
	if profilesTotal == nil {
		return
	}
	profilesTotal.WithLabelValues(category, outcome).Inc()
}

// ObservePageFetch counts one navigation of the given kind
// ("leaderboard" or "profile").
func ObservePageFetch(kind string) {
	if pagesFetchedTotal == nil {
		return
	}
	pagesFetchedTotal.WithLabelValues(kind).Inc()
}

// ObserveThrottle counts one throttled batch.
func ObserveThrottle() {
	if throttleEventsTotal == nil {
		return
	}
	throttleEventsTotal.Inc()
}

// ObserveBatch counts one fetched batch.
func ObserveBatch() {
	if batchesTotal == nil {
		return
	}
	batchesTotal.Inc()
}

// SetFrontierSize records the post-dedup frontier size for a source.
func SetFrontierSize(source string, size int) {
	if frontierSize == nil {
		return
	}
	frontierSize.WithLabelValues(source).Set(float64(size))
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
