package scraper

import (
	"context"
)

// Session is one isolated fetch scope: its own cookie and storage state,
// released via Close on every exit path.
type Session interface {
	// Navigate loads the URL and blocks until the document is ready or the
	// navigation timeout elapses.
	Navigate(ctx context.Context, url string) error
	// Scroll triggers one reveal action (scroll to the bottom of the page).
	Scroll(ctx context.Context) error
	// HTML returns the current rendered DOM.
	HTML(ctx context.Context) (string, error)
	// Close releases the session and its storage scope.
	Close() error
}

// Browser creates isolated sessions backed by a shared rendering engine.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// Store is the durable output plus the dedup gate loaded from it. Append
// must write the record durably before returning and must register the
// record's key so Contains answers true for it afterwards.
type Store interface {
	Contains(key string) bool
	Append(rec ProfileRecord) error
}

// SkipRecorder persists skip/error outcomes keyed by identity. Optional;
// the driver tolerates a nil recorder. Keys returns the identities already
// recorded, so runs configured to remember skips can treat them as
// processed.
type SkipRecorder interface {
	Record(username, reason string) error
	Keys() []string
}
