package extractor

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/scraper"
)

// hostedDomain filters the platform's own addresses, which are no use for
// direct outreach.
const hostedDomain = "substack.com"

// PageScanner fetches profile pages over plain HTTP and harvests mailto
// links plus email patterns in the body text. Profiles whose addresses only
// render via JavaScript are missed; that is the accepted trade-off for not
// needing a browser here.
type PageScanner struct {
	userAgent string
	timeout   time.Duration
	delay     time.Duration
	logger    *zap.Logger
}

// NewPageScanner constructs a scanner.
func NewPageScanner(userAgent string, timeout, delay time.Duration, logger *zap.Logger) *PageScanner {
	return &PageScanner{
		userAgent: userAgent,
		timeout:   timeout,
		delay:     delay,
		logger:    logger,
	}
}

// Scan visits each profile page and returns the addresses found, keyed by
// username. A limit of 0 scans every profile; per-profile failures are
// logged and skipped.
func (p *PageScanner) Scan(ctx context.Context, refs []ProfileRef, limit int) map[string][]string {
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	base := colly.NewCollector(colly.UserAgent(p.userAgent))
	base.SetRequestTimeout(p.timeout)
	base.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	found := make(map[string][]string)
	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			scraper.Pause(ctx, p.delay)
		}
		emails := p.scanOne(base, ref)
		if len(emails) > 0 {
			found[ref.Username] = emails
			p.logger.Info("Emails found",
				zap.String("profile", ref.Username),
				zap.Int("count", len(emails)),
			)
		}
	}
	return found
}

func (p *PageScanner) scanOne(base *colly.Collector, ref ProfileRef) []string {
	collector := base.Clone()
	seen := make(map[string]struct{})
	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || strings.Contains(email, hostedDomain) || isImageName(email) {
			return
		}
		seen[email] = struct{}{}
	}

	collector.OnHTML(`a[href^="mailto:"]`, func(e *colly.HTMLElement) {
		addr := strings.TrimPrefix(e.Attr("href"), "mailto:")
		if i := strings.Index(addr, "?"); i >= 0 {
			addr = addr[:i]
		}
		add(addr)
	})
	collector.OnResponse(func(r *colly.Response) {
		for _, email := range ExtractEmails(string(r.Body)) {
			add(email)
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		p.logger.Warn("Profile page fetch failed",
			zap.String("profile", ref.Username),
			zap.Error(err),
		)
	})

	if err := collector.Visit(ref.URL); err != nil {
		p.logger.Warn("Profile page visit failed",
			zap.String("profile", ref.Username),
			zap.Error(err),
		)
		return nil
	}
	collector.Wait()

	if len(seen) == 0 {
		return nil
	}
	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
