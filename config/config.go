package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL            string
	MaxPages           int // 0 walks until a page has no next link
	Timeout            time.Duration
	WaitTimeout        time.Duration
	Delay              time.Duration
	RandomDelay        time.Duration
	UserAgent          string
	RespectRobotsTxt   bool
	Headless           bool
	NavigationRate     float64 // detail navigations per second, 0 is unlimited
	DetailCacheSize    int
	OutputFile         string
	OutputFormat       string // csv, json, or dual
	BatchSize          int
	PipelineBufferSize int
	MetricsAddr        string
	Verbose            bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://books.toscrape.com/",
		MaxPages:           0,
		Timeout:            10 * time.Second,
		WaitTimeout:        10 * time.Second,
		Delay:              0,
		RandomDelay:        0,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt:   false,
		Headless:           true,
		NavigationRate:     0,
		DetailCacheSize:    256,
		OutputFile:         "output/books.csv",
		OutputFormat:       "csv",
		BatchSize:          64,
		PipelineBufferSize: 512,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.NavigationRate < 0 {
		return fmt.Errorf("navigation rate cannot be negative")
	}
	if c.DetailCacheSize < 0 {
		return fmt.Errorf("detail cache size cannot be negative")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
