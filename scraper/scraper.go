package scraper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-books-records/browser"
	"github.com/aluiziolira/go-scrape-books-records/config"
	"github.com/aluiziolira/go-scrape-books-records/models"
	"github.com/aluiziolira/go-scrape-books-records/pipeline"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Scraper walks the catalog with colly and assembles records on a rendering
// session. Everything runs on the calling goroutine, one request at a time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	launcher  browser.Launcher
	cache     *lru.Cache[string, detailFields]
	Metrics   *Metrics

	requestCount int
	pageCount    int
	errorCount   int
	recordCount  int
	errorsByType map[string]int
	fallbacks    map[string]int

	handlersOnce sync.Once
	current      *ListingPage
	lastStatus   int
}

// NewScraper builds a scraper configured from cfg. launcher starts the
// rendering session used for detail pages.
func NewScraper(cfg *config.Config, launcher browser.Launcher) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if launcher == nil {
		return nil, fmt.Errorf("launcher cannot be nil")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	var cache *lru.Cache[string, detailFields]
	if cfg.DetailCacheSize > 0 {
		cache, err = lru.New[string, detailFields](cfg.DetailCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create detail cache: %w", err)
		}
	}

	return &Scraper{
		cfg:          cfg,
		collector:    collector,
		launcher:     launcher,
		cache:        cache,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
		fallbacks:    make(map[string]int),
	}, nil
}

// Walk fetches listing pages starting at startURL, following next links until
// a page has none. A fetch failure is yielded as a *TransportError and ends
// the sequence. Every iteration fetches afresh.
func (s *Scraper) Walk(ctx context.Context, startURL string) iter.Seq2[*ListingPage, error] {
	return func(yield func(*ListingPage, error) bool) {
		s.configureHandlers()

		seen := make(map[string]struct{})
		next := startURL
		for walked := 0; next != ""; walked++ {
			if s.cfg.MaxPages > 0 && walked >= s.cfg.MaxPages {
				slog.Info("max pages reached", slog.Int("pages", walked))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if _, ok := seen[next]; ok {
				slog.Warn("next link points at a walked page, stopping", slog.String("url", next))
				return
			}
			seen[next] = struct{}{}

			page, err := s.fetchListing(next)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			next = page.Next
		}
	}
}

// Records is the crawl entry point: it launches the rendering session, walks
// the catalog and yields one record per listing fragment in page order, then
// fragment order. The session is closed exactly once when the sequence ends,
// whether it completes, fails, or the consumer stops early.
func (s *Scraper) Records(ctx context.Context, startURL string) iter.Seq2[*models.Record, error] {
	return func(yield func(*models.Record, error) bool) {
		session, err := s.launcher.Launch(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("launch rendering session: %w", err))
			return
		}
		defer func() {
			if err := session.Close(); err != nil {
				slog.Error("close rendering session", slog.Any("error", err))
			}
		}()

		assembler := s.newAssembler(session)
		for page, err := range s.Walk(ctx, startURL) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, fragment := range page.Fragments {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				record := assembler.Assemble(ctx, fragment)
				// Fields read after cancellation hold fallbacks that say nothing about the page.
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				s.recordCount++
				s.Metrics.IncRecords()
				if !yield(record, nil) {
					return
				}
			}
		}
	}
}

// Run crawls from the configured base URL and streams records through the
// pipeline. The result is returned even when the crawl stops on an error.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	var runErr error
	for record, err := range s.Records(ctx, s.cfg.BaseURL) {
		if err != nil {
			runErr = err
			break
		}
		if err := p.Process(record); err != nil {
			runErr = fmt.Errorf("pipeline process: %w", err)
			break
		}
	}

	result := &models.CrawlResult{
		StartTime:      start,
		EndTime:        time.Now(),
		RecordCount:    s.recordCount,
		PageCount:      s.pageCount,
		RequestCount:   s.requestCount,
		ErrorCount:     s.errorCount,
		ErrorsByType:   copyCounts(s.errorsByType),
		FallbackCounts: copyCounts(s.fallbacks),
	}
	return result, runErr
}

func (s *Scraper) newAssembler(session browser.Session) *Assembler {
	fetcher := browser.NewFetcher(session, browser.FetcherOptions{
		WaitTimeout:    s.cfg.WaitTimeout,
		NavigationRate: s.cfg.NavigationRate,
		OnNavigate: func(_ string, elapsed time.Duration, err error) {
			s.Metrics.ObserveNavigation(elapsed, err)
		},
	})
	a := NewAssembler(fetcher, s.Metrics)
	a.cache = s.cache
	a.counts = s.fallbacks
	return a
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			slog.Debug("fetching listing page", slog.String("url", r.URL.String()))
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			if r != nil {
				s.lastStatus = r.StatusCode
			}
		})

		s.collector.OnHTML("article.product_pod", func(e *colly.HTMLElement) {
			if s.current == nil {
				return
			}
			s.current.Fragments = append(s.current.Fragments, NewListingFragment(e.DOM, e.Request.URL))
		})

		s.collector.OnHTML("li.next a", func(e *colly.HTMLElement) {
			if s.current == nil || s.current.Next != "" {
				return
			}
			if href := e.Attr("href"); href != "" {
				s.current.Next = e.Request.AbsoluteURL(href)
			}
		})
	})
}

func (s *Scraper) fetchListing(pageURL string) (*ListingPage, error) {
	s.current = &ListingPage{URL: pageURL}
	s.lastStatus = 0
	defer func() { s.current = nil }()

	s.requestCount++
	if err := s.collector.Visit(pageURL); err != nil {
		classified := classifyError(err, s.lastStatus)
		category := errorTypeLabel(classified)
		s.errorCount++
		s.errorsByType[category]++
		s.Metrics.IncError(category)
		slog.Error("listing fetch failed",
			slog.String("url", pageURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return nil, &TransportError{URL: pageURL, Err: classified}
	}

	page := s.current
	s.pageCount++
	s.Metrics.IncPages()
	slog.Info("listing page parsed",
		slog.String("url", pageURL),
		slog.Int("items", len(page.Fragments)),
		slog.Bool("has_next", page.Next != ""),
	)
	return page, nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
