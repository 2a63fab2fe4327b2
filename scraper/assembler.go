package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aluiziolira/go-scrape-books-records/browser"
	"github.com/aluiziolira/go-scrape-books-records/extract"
	"github.com/aluiziolira/go-scrape-books-records/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// detailFields are the values read from one detail page.
type detailFields struct {
	AmountInStock int
	Category      string
	Description   string
	UPC           string
}

var unreachableDetail = detailFields{
	AmountInStock: models.DefaultAmountInStock,
	Category:      models.UnknownCategory,
	Description:   models.NoDescription,
	UPC:           models.UPCError,
}

// Assembler turns listing fragments into records. It opens each detail page
// once and runs every detail extractor against that single handle.
type Assembler struct {
	fetcher *browser.Fetcher
	// cache holds detail reads by URL; detail pages are stable across loads.
	cache   *lru.Cache[string, detailFields]
	metrics *Metrics
	counts  map[string]int
}

// NewAssembler builds an uncached assembler reading detail pages through
// fetcher. metrics may be nil.
func NewAssembler(fetcher *browser.Fetcher, metrics *Metrics) *Assembler {
	return &Assembler{
		fetcher: fetcher,
		metrics: metrics,
		counts:  make(map[string]int),
	}
}

// Assemble builds the record for fragment. It never fails: fields that cannot
// be read carry their fallback value. When ctx is cancelled mid-record the
// result is incomplete and callers should drop it.
func (a *Assembler) Assemble(ctx context.Context, fragment *ListingFragment) *models.Record {
	record := &models.Record{}

	title, err := extract.Title(fragment)
	a.observe(extract.FieldTitle, err)
	record.Title = title

	price, err := extract.Price(fragment)
	a.observe(extract.FieldPrice, err)
	record.Price = price

	rating, err := extract.Rating(fragment)
	a.observe(extract.FieldRating, err)
	record.Rating = rating

	fields := unreachableDetail
	detailURL, err := fragment.DetailURL()
	if err != nil {
		slog.Error("cannot derive detail url, using fallbacks",
			slog.String("title", title),
			slog.Any("error", err),
		)
		for _, field := range []string{extract.FieldAmountInStock, extract.FieldCategory, extract.FieldDescription, extract.FieldUPC} {
			a.observe(field, err)
		}
	} else {
		fields = a.details(ctx, detailURL)
	}

	record.AmountInStock = fields.AmountInStock
	record.Category = fields.Category
	record.Description = fields.Description
	record.UPC = fields.UPC
	return record
}

// FallbackCounts returns how many fields fell back, keyed by field name.
func (a *Assembler) FallbackCounts() map[string]int {
	return copyCounts(a.counts)
}

func (a *Assembler) details(ctx context.Context, detailURL string) detailFields {
	if a.cache != nil {
		if cached, ok := a.cache.Get(detailURL); ok {
			a.metrics.IncCacheHit()
			return cached
		}
	}

	page := a.fetcher.Open(ctx, detailURL)

	stock := extract.AmountInStock(ctx, page)
	category := extract.Category(ctx, page)
	description := extract.Description(ctx, page)
	upc := extract.UPC(ctx, page)

	cacheable := true
	for field, err := range map[string]error{
		extract.FieldAmountInStock: stock.Err,
		extract.FieldCategory:      category.Err,
		extract.FieldDescription:   description.Err,
		extract.FieldUPC:           upc.Err,
	} {
		a.observe(field, err)
		if err != nil && !errors.Is(err, extract.ErrFieldAbsent) {
			cacheable = false
		}
	}

	fields := detailFields{
		AmountInStock: stock.Value,
		Category:      category.Value,
		Description:   description.Value,
		UPC:           upc.Value,
	}
	if cacheable && a.cache != nil {
		a.cache.Add(detailURL, fields)
	}
	return fields
}

func (a *Assembler) observe(field string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	reason := "error"
	if errors.Is(err, extract.ErrFieldAbsent) {
		reason = "absent"
	}
	a.counts[field]++
	a.metrics.IncFallback(field, reason)
	if !isDetailField(field) {
		slog.Error("listing field extraction failed",
			slog.String("field", field),
			slog.Any("error", err),
		)
	}
}

func isDetailField(field string) bool {
	switch field {
	case extract.FieldAmountInStock, extract.FieldCategory, extract.FieldDescription, extract.FieldUPC:
		return true
	}
	return false
}
