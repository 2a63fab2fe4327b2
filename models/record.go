// Package models defines data structures for the scraper.
package models

import "time"

// Sentinel values substituted by the detail-page extractors.
const (
	UnknownCategory      = "Unknown Category"
	NoDescription        = "No description available"
	UPCNotFound          = "UPC not found"
	UPCError             = "Error"
	DefaultAmountInStock = 0
)

// Record is one product extracted from the catalog. Every field is always
// populated, falling back to the sentinels above when extraction fails.
type Record struct {
	Title         string  `csv:"title" json:"title"`
	Price         float64 `csv:"price" json:"price"`
	AmountInStock int     `csv:"amount_in_stock" json:"amount_in_stock"`
	Rating        string  `csv:"rating" json:"rating"`
	Category      string  `csv:"category" json:"category"`
	Description   string  `csv:"description" json:"description"`
	UPC           string  `csv:"upc" json:"upc"`
}

// CrawlResult holds the overall result of a crawl.
type CrawlResult struct {
	StartTime      time.Time
	EndTime        time.Time
	RecordCount    int
	PageCount      int
	RequestCount   int
	ErrorCount     int
	ErrorsByType   map[string]int
	FallbackCounts map[string]int
}
