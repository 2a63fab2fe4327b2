package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-books-records/pipeline"
)

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "5")
	t.Setenv("SCRAPER_WAIT_TIMEOUT", "3s")
	t.Setenv("SCRAPER_HEADLESS", "false")
	t.Setenv("SCRAPER_OUTPUT", "env.csv")

	cfg, err := loadConfig([]string{"-pages", "2", "-format", "JSON"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.MaxPages != 2 {
		t.Fatalf("max pages = %d, want flag value 2", cfg.MaxPages)
	}
	if cfg.WaitTimeout != 3*time.Second {
		t.Fatalf("wait timeout = %v, want 3s from env", cfg.WaitTimeout)
	}
	if cfg.Headless {
		t.Fatalf("headless = true, want false from env")
	}
	if cfg.OutputFile != "env.csv" {
		t.Fatalf("output = %q, want env.csv", cfg.OutputFile)
	}
	if cfg.OutputFormat != "json" {
		t.Fatalf("format = %q, want json", cfg.OutputFormat)
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "many")
	if _, err := loadConfig(nil); err == nil {
		t.Fatalf("expected error for non-numeric SCRAPER_PAGES")
	}
}

func TestCreateWriter(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: "csv"},
		{format: "json"},
		{format: "dual"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			writer, err := createWriter(tt.format, filepath.Join(dir, tt.format, "books.csv"))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for format %q", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("create writer: %v", err)
			}
			var _ pipeline.OutputWriter = writer
			if err := writer.Close(); err != nil {
				t.Fatalf("close writer: %v", err)
			}
		})
	}
}
