package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// session is one isolated tab. It implements scraper.Session.
type session struct {
	engine           *Engine
	ctx              context.Context
	cancel           context.CancelFunc
	browserContextID cdp.BrowserContextID
	release          func()
	closed           bool
}

// Navigate loads the URL and waits for the document body, bounded by the
// configured navigation timeout and the caller's context.
func (s *session) Navigate(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if err := s.engine.waitHostBudget(ctx, strings.ToLower(parsed.Host)); err != nil {
		return err
	}

	taskCtx, cancelTask := context.WithTimeout(s.ctx, s.engine.cfg.NavTimeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	tasks := chromedp.Tasks{
		network.Enable(),
	}
	if ua := s.engine.cfg.UserAgent; ua != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(ua))
	}
	tasks = append(tasks,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

// Scroll triggers one reveal action.
func (s *session) Scroll(ctx context.Context) error {
	taskCtx, cancelTask := context.WithTimeout(s.ctx, s.engine.cfg.NavTimeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	if err := chromedp.Run(taskCtx, chromedp.Evaluate(scrollScript, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// HTML returns the rendered DOM snapshot.
func (s *session) HTML(ctx context.Context) (string, error) {
	taskCtx, cancelTask := context.WithTimeout(s.ctx, s.engine.cfg.NavTimeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot dom: %w", err)
	}
	return html, nil
}

// Close disposes the tab and its browser context and frees the session slot.
// Idempotent so deferred cleanup on error paths stays safe.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.release()
	s.cancel()

	c := chromedp.FromContext(s.engine.browserCtx)
	executor := cdp.WithExecutor(context.Background(), c.Browser)
	if err := target.DisposeBrowserContext(s.browserContextID).Do(executor); err != nil {
		return fmt.Errorf("dispose browser context: %w", err)
	}
	return nil
}
