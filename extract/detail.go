package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-books-records/browser"
	"github.com/aluiziolira/go-scrape-books-records/models"
	"github.com/aluiziolira/go-scrape-books-records/parser"
)

// Selectors on a rendered detail page.
const (
	StockSelector       = ".instock.availability"
	BreadcrumbSelector  = ".breadcrumb li"
	DescriptionSelector = "#product_description ~ p"
	SpecTableSelector   = ".table.table-striped"
)

const upcHeader = "UPC"

var errMissingCell = errors.New("extract: table row is missing a cell")

// AmountInStock parses the count out of the availability text, falling back to 0.
func AmountInStock(ctx context.Context, src RenderedSource) Result[int] {
	el, err := src.WaitFor(ctx, StockSelector)
	if err != nil {
		return fallback(src, FieldAmountInStock, models.DefaultAmountInStock, err)
	}
	text, err := el.Text()
	if err != nil {
		return fallback(src, FieldAmountInStock, models.DefaultAmountInStock, err)
	}
	amount, err := parser.ParseAmountInStock(text)
	if err != nil {
		return fallback(src, FieldAmountInStock, models.DefaultAmountInStock, err)
	}
	return Result[int]{Value: amount}
}

// Category returns the second-to-last breadcrumb label.
func Category(ctx context.Context, src RenderedSource) Result[string] {
	trail, err := src.WaitForAll(ctx, BreadcrumbSelector)
	if err != nil {
		return fallback(src, FieldCategory, models.UnknownCategory, err)
	}
	entry, ok := parser.CategoryFromBreadcrumbs(trail)
	if !ok {
		return absent(src, FieldCategory, models.UnknownCategory)
	}
	text, err := entry.Text()
	if err != nil {
		return fallback(src, FieldCategory, models.UnknownCategory, err)
	}
	return Result[string]{Value: text}
}

// Description returns the trimmed paragraph following #product_description.
func Description(ctx context.Context, src RenderedSource) Result[string] {
	el, err := src.WaitFor(ctx, DescriptionSelector)
	if err != nil {
		return fallback(src, FieldDescription, models.NoDescription, err)
	}
	text, err := el.Text()
	if err != nil {
		return fallback(src, FieldDescription, models.NoDescription, err)
	}
	return Result[string]{Value: strings.TrimSpace(text)}
}

// UPC scans the product information table for the first row headed exactly "UPC".
// A table without such a row yields models.UPCNotFound; any failure while
// scanning yields models.UPCError.
func UPC(ctx context.Context, src RenderedSource) Result[string] {
	table, err := src.WaitFor(ctx, SpecTableSelector)
	if err != nil {
		return fallback(src, FieldUPC, models.UPCError, err)
	}
	rows, err := table.Children("tr")
	if err != nil {
		return fallback(src, FieldUPC, models.UPCError, err)
	}
	for i, row := range rows {
		header, err := cellText(row, "th")
		if err != nil {
			return fallback(src, FieldUPC, models.UPCError, fmt.Errorf("row %d: %w", i, err))
		}
		if header != upcHeader {
			continue
		}
		upc, err := cellText(row, "td")
		if err != nil {
			return fallback(src, FieldUPC, models.UPCError, fmt.Errorf("row %d: %w", i, err))
		}
		return Result[string]{Value: upc}
	}
	return absent(src, FieldUPC, models.UPCNotFound)
}

func cellText(row browser.Element, tag string) (string, error) {
	cells, err := row.Children(tag)
	if err != nil {
		return "", err
	}
	if len(cells) == 0 {
		return "", fmt.Errorf("%w: no %s", errMissingCell, tag)
	}
	return cells[0].Text()
}
