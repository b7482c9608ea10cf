package scraper

import (
	"fmt"
)

// FilterDecision is the outcome of running a record through the filter
// chain. Reason is set only for rejected records.
type FilterDecision struct {
	Accepted bool
	Reason   string
}

// FilterChain evaluates extracted records against the configured thresholds
// in a fixed order, short-circuiting on the first failing step so the
// cheaper subscriber checks run before the link projection.
type FilterChain struct {
	maxSubscribers int
	minSubscribers int
	platforms      map[string]struct{}
	requireLinks   bool
}

// NewFilterChain builds the chain from resolved configuration.
func NewFilterChain(cfg Config) FilterChain {
	var allow map[string]struct{}
	if len(cfg.Platforms) > 0 {
		allow = make(map[string]struct{}, len(cfg.Platforms))
		for _, p := range cfg.Platforms {
			allow[p] = struct{}{}
		}
	}
	return FilterChain{
		maxSubscribers: cfg.MaxSubscribers,
		minSubscribers: cfg.MinSubscribers,
		platforms:      allow,
		requireLinks:   cfg.RequireSocialLinks,
	}
}

// Evaluate runs the chain over rec. The platform allow-list step projects
// rec.SocialLinks in place; a record that survives every step carries the
// projected mapping.
func (f FilterChain) Evaluate(rec *ProfileRecord) FilterDecision {
	if f.maxSubscribers > 0 && rec.Subscribers > f.maxSubscribers {
		return FilterDecision{
			Reason: fmt.Sprintf("%d subscribers above max %d", rec.Subscribers, f.maxSubscribers),
		}
	}
	if f.minSubscribers > 0 && rec.Subscribers < f.minSubscribers {
		return FilterDecision{
			Reason: fmt.Sprintf("%d subscribers below min %d", rec.Subscribers, f.minSubscribers),
		}
	}
	if f.platforms != nil {
		for platform := range rec.SocialLinks {
			if _, ok := f.platforms[platform]; !ok {
				delete(rec.SocialLinks, platform)
			}
		}
	}
	if f.requireLinks && len(rec.SocialLinks) == 0 {
		return FilterDecision{Reason: "no social links"}
	}
	return FilterDecision{Accepted: true}
}
