package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-books-records/browser"
	"github.com/aluiziolira/go-scrape-books-records/config"
	"github.com/aluiziolira/go-scrape-books-records/models"
	"github.com/aluiziolira/go-scrape-books-records/pipeline"
	"github.com/aluiziolira/go-scrape-books-records/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("headless", cfg.Headless),
	)

	launcher := browser.NewPlaywrightLauncher(&browser.Options{
		Headless:          cfg.Headless,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.Timeout,
		Args:              browser.DefaultOptions().Args,
	})

	s, err := scraper.NewScraper(cfg, launcher)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		return 1
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)

	// The pipeline keeps its own context so records already assembled are
	// still written after a shutdown signal.
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start()
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	result, runErr := s.Run(ctx, p)
	exitCode := 0
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		slog.Info("shutdown signal received, stopped crawling")
	default:
		slog.Error("crawl failed", slog.Any("error", runErr))
		exitCode = 1
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		exitCode = 1
	}
	if exitCode == 0 && result.RecordCount > 0 {
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			exitCode = 1
		}
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		exitCode = 1
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile, p.GetMetrics())
	return exitCode
}

// loadConfig layers defaults, SCRAPER_* environment variables and flags, in
// that order of precedence.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Catalog URL to start crawling from")
	fs.IntVar(&cfg.MaxPages, "pages", cfg.MaxPages, "Maximum listing pages to walk (0 walks them all)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Listing request and navigation timeout")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "Maximum wait for a detail page region")
	fs.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Delay between listing requests")
	fs.DurationVar(&cfg.RandomDelay, "random-delay", cfg.RandomDelay, "Random jitter added to the listing delay")
	fs.BoolVar(&cfg.RespectRobotsTxt, "respect-robots", cfg.RespectRobotsTxt, "Respect robots.txt directives")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run the browser without a window")
	fs.Float64Var(&cfg.NavigationRate, "nav-rate", cfg.NavigationRate, "Detail navigations per second (0 is unlimited)")
	fs.IntVar(&cfg.DetailCacheSize, "detail-cache", cfg.DetailCacheSize, "Detail pages remembered by URL (0 disables)")
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path")
	fs.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: csv, json, or dual")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	ints := map[string]*int{
		"SCRAPER_PAGES":        &cfg.MaxPages,
		"SCRAPER_DETAIL_CACHE": &cfg.DetailCacheSize,
	}
	for key, dst := range ints {
		value, ok, err := config.EnvInt(key)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if ok {
			*dst = value
		}
	}

	value, ok, err := config.EnvDuration("SCRAPER_WAIT_TIMEOUT")
	if err != nil {
		return fmt.Errorf("invalid SCRAPER_WAIT_TIMEOUT: %w", err)
	}
	if ok {
		cfg.WaitTimeout = value
	}

	headless, ok, err := config.EnvBool("SCRAPER_HEADLESS")
	if err != nil {
		return fmt.Errorf("invalid SCRAPER_HEADLESS: %w", err)
	}
	if ok {
		cfg.Headless = headless
	}
	return nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")

	duration := result.EndTime.Sub(result.StartTime)
	written, _ := metrics["written_records"].(int64)
	perSec := 0.0
	if duration.Seconds() > 0 {
		perSec = float64(result.RecordCount) / duration.Seconds()
	}

	fmt.Printf("  Records:       %d\n", result.RecordCount)
	fmt.Printf("  Written:       %d\n", written)
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if len(result.FallbackCounts) > 0 {
		fmt.Printf("  Fallbacks:     %v\n", result.FallbackCounts)
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Records/sec:   %.2f\n", perSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
