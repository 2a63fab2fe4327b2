package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// ReadySelector marks the main region of a rendered detail page.
const ReadySelector = "article.product_page"

// DefaultWaitTimeout bounds every wait on a detail page.
const DefaultWaitTimeout = 10 * time.Second

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	WaitTimeout time.Duration
	// NavigationRate caps navigations per second; zero means no cap.
	NavigationRate float64
	// OnNavigate, when set, observes every navigation attempt.
	OnNavigate func(url string, elapsed time.Duration, err error)
}

// Fetcher opens detail pages on a shared Session. It is not safe for
// concurrent use: one navigation completes before the next begins.
type Fetcher struct {
	session    Session
	wait       time.Duration
	limiter    *rate.Limiter
	onNavigate func(string, time.Duration, error)
	generation uint64
}

// NewFetcher wraps session.
func NewFetcher(session Session, opts FetcherOptions) *Fetcher {
	wait := opts.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	f := &Fetcher{
		session:    session,
		wait:       wait,
		onNavigate: opts.OnNavigate,
	}
	if opts.NavigationRate > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.NavigationRate), 1)
	}
	return f
}

// Open navigates the session to url and waits for ReadySelector. It always
// returns a handle: when navigation or the ready wait fails, reads against the
// handle fail instead. Opening a page invalidates every earlier handle.
func (f *Fetcher) Open(ctx context.Context, url string) *DetailPage {
	f.generation++
	page := &DetailPage{fetcher: f, url: url, generation: f.generation}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			page.err = fmt.Errorf("wait for navigation slot: %w", err)
			return page
		}
	}

	start := time.Now()
	err := f.session.Navigate(ctx, url)
	if f.onNavigate != nil {
		f.onNavigate(url, time.Since(start), err)
	}
	if err != nil {
		page.err = fmt.Errorf("navigate: %w", err)
		slog.Debug("detail navigation failed", slog.String("url", url), slog.Any("error", err))
		return page
	}

	if _, err := f.session.WaitFor(ctx, ReadySelector, f.wait); err != nil {
		slog.Debug("detail page not ready", slog.String("url", url), slog.Any("error", err))
	}
	return page
}

// DetailPage is a handle on one navigation of the shared session.
type DetailPage struct {
	fetcher    *Fetcher
	url        string
	generation uint64
	err        error
}

// URL returns the absolute URL the page was opened with.
func (p *DetailPage) URL() string {
	return p.url
}

// WaitFor waits for selector on this page within the fetcher's wait timeout.
func (p *DetailPage) WaitFor(ctx context.Context, selector string) (Element, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	return p.fetcher.session.WaitFor(ctx, selector, p.fetcher.wait)
}

// WaitForAll waits for at least one match of selector and returns all of them.
func (p *DetailPage) WaitForAll(ctx context.Context, selector string) ([]Element, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	return p.fetcher.session.WaitForAll(ctx, selector, p.fetcher.wait)
}

func (p *DetailPage) check() error {
	if p.generation != p.fetcher.generation {
		return ErrStalePage
	}
	return p.err
}
