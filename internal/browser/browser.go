// Package browser drives headless Chrome via chromedp, handing out isolated
// fetch sessions backed by a single shared browser process.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/substackscout/substackscout/internal/scraper"
)

// scrollScript reveals more of a leaderboard page; pages lazy-load on scroll.
const scrollScript = `window.scrollBy(0, document.body.scrollHeight)`

// Config controls the browser engine.
type Config struct {
	Headless    bool
	UserAgent   string
	NavTimeout  time.Duration
	MaxSessions int
	HostQPS     float64
}

// Engine owns the Chrome process. Sessions share it but each one runs in its
// own browser context, so cookies and storage never leak between candidates.
type Engine struct {
	cfg             Config
	logger          *zap.Logger
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	sem             chan struct{}
	hostLimiters    sync.Map
}

// New launches the browser process and warms it up.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("max sessions must be > 0")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Engine{
		cfg:             cfg,
		logger:          logger,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		sem:             make(chan struct{}, cfg.MaxSessions),
	}, nil
}

// Close cancels the browser and allocator contexts, which signals Chrome to
// exit. Nil-safe so failed construction paths can defer it.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.browserCancel()
	e.allocatorCancel()
	return nil
}

// NewSession opens an isolated session: a fresh browser context (independent
// cookie/storage scope) with one tab attached to it. Blocks while the
// configured number of sessions is already open.
func (e *Engine) NewSession(ctx context.Context) (scraper.Session, error) {
	release, err := e.acquireSlot(ctx)
	if err != nil {
		return nil, err
	}

	browserContextID, targetID, err := e.createIsolatedTarget(ctx)
	if err != nil {
		release()
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx, chromedp.WithTargetID(targetID))
	return &session{
		engine:           e,
		ctx:              tabCtx,
		cancel:           tabCancel,
		browserContextID: browserContextID,
		release:          release,
	}, nil
}

// createIsolatedTarget asks the browser for a new browser context and a
// blank tab inside it. Both commands run against the browser target, not a
// page target.
func (e *Engine) createIsolatedTarget(ctx context.Context) (cdp.BrowserContextID, target.ID, error) {
	c := chromedp.FromContext(e.browserCtx)
	executor := cdp.WithExecutor(ctx, c.Browser)

	browserContextID, err := target.CreateBrowserContext().Do(executor)
	if err != nil {
		return "", "", fmt.Errorf("create browser context: %w", err)
	}
	targetID, err := target.CreateTarget("about:blank").
		WithBrowserContextID(browserContextID).
		Do(executor)
	if err != nil {
		return "", "", fmt.Errorf("create target: %w", err)
	}
	return browserContextID, targetID, nil
}

func (e *Engine) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case e.sem <- struct{}{}:
		return func() { <-e.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire session slot: %w", ctx.Err())
	}
}

// waitHostBudget paces navigations per host so bursts of batch navigation
// do not exceed the configured QPS.
func (e *Engine) waitHostBudget(ctx context.Context, host string) error {
	if e.cfg.HostQPS <= 0 {
		return nil
	}
	val, _ := e.hostLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(e.cfg.HostQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait host budget: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
