package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures the playwright-backed session.
type Options struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	Args              []string
}

// DefaultOptions returns headless Chromium settings.
func DefaultOptions() *Options {
	return &Options{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		NavigationTimeout: 30 * time.Second,
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
}

// PlaywrightLauncher launches Chromium through playwright-go.
type PlaywrightLauncher struct {
	opts *Options
}

// NewPlaywrightLauncher returns a launcher using opts, or DefaultOptions when nil.
func NewPlaywrightLauncher(opts *Options) *PlaywrightLauncher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &PlaywrightLauncher{opts: opts}
}

// Launch starts the driver, a browser, a context and the single page the session reuses.
func (l *PlaywrightLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     l.opts.Args,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:       playwright.String(l.opts.UserAgent),
		AcceptDownloads: playwright.Bool(false),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	slog.Debug("rendering session started", slog.Bool("headless", l.opts.Headless))
	return &playwrightSession{
		pw:                pw,
		browser:           browser,
		context:           bctx,
		page:              page,
		navigationTimeout: l.opts.NavigationTimeout,
	}, nil
}

type playwrightSession struct {
	pw                *playwright.Playwright
	browser           playwright.Browser
	context           playwright.BrowserContext
	page              playwright.Page
	navigationTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.navigationTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, translateError(err))
	}
	return nil
}

func (s *playwrightSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	loc := s.page.Locator(selector).First()
	if err := waitAttached(loc, timeout); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}
	return locatorElement{loc: loc}, nil
}

func (s *playwrightSession) WaitForAll(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	all := s.page.Locator(selector)
	if err := waitAttached(all.First(), timeout); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}
	locs, err := all.All()
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", selector, translateError(err))
	}
	return wrapLocators(locs), nil
}

// Close tears down page, context, browser and driver; later calls are no-ops.
func (s *playwrightSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	slog.Debug("rendering session closed")
	return errors.Join(errs...)
}

func (s *playwrightSession) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

type locatorElement struct {
	loc playwright.Locator
}

func (e locatorElement) Text() (string, error) {
	text, err := e.loc.InnerText()
	if err != nil {
		return "", translateError(err)
	}
	return text, nil
}

func (e locatorElement) Children(tag string) ([]Element, error) {
	locs, err := e.loc.Locator(tag).All()
	if err != nil {
		return nil, translateError(err)
	}
	return wrapLocators(locs), nil
}

func wrapLocators(locs []playwright.Locator) []Element {
	out := make([]Element, 0, len(locs))
	for _, loc := range locs {
		out = append(out, locatorElement{loc: loc})
	}
	return out
}

func waitAttached(loc playwright.Locator, timeout time.Duration) error {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translateError(err)
}

// translateError maps playwright timeouts onto ErrWaitTimeout, keeping its message.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrWaitTimeout, err)
	}
	return err
}
