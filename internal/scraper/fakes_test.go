package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeBrowser hands out scripted sessions. Profile pages come from pages;
// source pages reveal one HTML snapshot per scroll from reveals, repeating
// the last snapshot once exhausted.
type fakeBrowser struct {
	mu       sync.Mutex
	pages    map[string]string
	reveals  map[string][]string
	navErr   map[string]error
	sessErr  error
	sessions []*fakeSession
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		pages:   make(map[string]string),
		reveals: make(map[string][]string),
		navErr:  make(map[string]error),
	}
}

func (b *fakeBrowser) NewSession(_ context.Context) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessErr != nil {
		return nil, b.sessErr
	}
	sess := &fakeSession{browser: b}
	b.sessions = append(b.sessions, sess)
	return sess, nil
}

func (b *fakeBrowser) openSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	open := 0
	for _, sess := range b.sessions {
		if !sess.closed {
			open++
		}
	}
	return open
}

func (b *fakeBrowser) navigated() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var urls []string
	for _, sess := range b.sessions {
		if sess.url != "" {
			urls = append(urls, sess.url)
		}
	}
	return urls
}

type fakeSession struct {
	browser *fakeBrowser
	url     string
	scrolls int
	closed  bool
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.browser.mu.Lock()
	defer s.browser.mu.Unlock()
	s.url = url
	return s.browser.navErr[url]
}

func (s *fakeSession) Scroll(_ context.Context) error {
	s.browser.mu.Lock()
	defer s.browser.mu.Unlock()
	s.scrolls++
	return nil
}

func (s *fakeSession) HTML(_ context.Context) (string, error) {
	s.browser.mu.Lock()
	defer s.browser.mu.Unlock()
	if snapshots, ok := s.browser.reveals[s.url]; ok {
		idx := s.scrolls - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(snapshots) {
			idx = len(snapshots) - 1
		}
		return snapshots[idx], nil
	}
	return s.browser.pages[s.url], nil
}

func (s *fakeSession) Close() error {
	s.browser.mu.Lock()
	defer s.browser.mu.Unlock()
	s.closed = true
	return nil
}

// memStore is an in-memory Store that mirrors the CSV store's contract:
// the key joins the dedup set only after a successful append.
type memStore struct {
	mu        sync.Mutex
	keys      map[string]struct{}
	rows      []ProfileRecord
	appendErr error
}

func newMemStore(preloaded ...string) *memStore {
	st := &memStore{keys: make(map[string]struct{})}
	for _, key := range preloaded {
		st.keys[strings.ToLower(key)] = struct{}{}
	}
	return st
}

func (m *memStore) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

func (m *memStore) Append(rec ProfileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, rec)
	m.keys[strings.ToLower(rec.Username)] = struct{}{}
	return nil
}

type skipEntry struct {
	username string
	reason   string
}

type memSkipLog struct {
	mu       sync.Mutex
	entries  []skipEntry
	preKeys  []string
	writeErr error
}

func (m *memSkipLog) Record(username, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.entries = append(m.entries, skipEntry{username: username, reason: reason})
	return nil
}

func (m *memSkipLog) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.preKeys)+len(m.entries))
	keys = append(keys, m.preKeys...)
	for _, e := range m.entries {
		keys = append(keys, e.username)
	}
	return keys
}

func leaderboardHTML(handles ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, h := range handles {
		fmt.Fprintf(&b, `<a href="/@%s">%s</a>`, h, h)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

func profileHTML(subscriberText string, links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><a href="/profile/42-test/subscribers">`)
	b.WriteString(subscriberText)
	b.WriteString(`</a>`)
	for _, l := range links {
		fmt.Fprintf(&b, `<button data-href=%q>visit</button>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func profileURL(handle string) string {
	return "https://substack.com/@" + handle
}
