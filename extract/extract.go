// Package extract reads record fields out of listing fragments and rendered
// detail pages.
//
// Listing extractors read a StaticSource and return an error on malformed
// input. Detail extractors read a RenderedSource and never fail: they return a
// Result whose Value is the field's fallback when extraction did not succeed.
package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aluiziolira/go-scrape-books-records/browser"
)

// ErrFieldAbsent marks a fallback chosen because the page structurally lacks
// the field, as opposed to a timeout or parse failure.
var ErrFieldAbsent = errors.New("extract: field absent")

// Field names used in logs and metrics.
const (
	FieldTitle         = "title"
	FieldPrice         = "price"
	FieldRating        = "rating"
	FieldAmountInStock = "amount_in_stock"
	FieldCategory      = "category"
	FieldDescription   = "description"
	FieldUPC           = "upc"
)

// StaticSource is an already-parsed listing fragment.
type StaticSource interface {
	// Attr returns the attribute of the first node matching selector.
	Attr(selector, name string) (string, bool)
	// Text returns the combined text of the nodes matching selector.
	Text(selector string) string
}

// RenderedSource is a detail page loaded in the rendering session.
type RenderedSource interface {
	URL() string
	WaitFor(ctx context.Context, selector string) (browser.Element, error)
	WaitForAll(ctx context.Context, selector string) ([]browser.Element, error)
}

// Result carries an extracted value. Value is always usable; Err is non-nil
// when Value is a fallback.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether Value was extracted rather than substituted.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Absent reports whether the fallback was caused by structural absence.
func (r Result[T]) Absent() bool {
	return errors.Is(r.Err, ErrFieldAbsent)
}

func fallback[T any](src RenderedSource, field string, value T, err error) Result[T] {
	if errors.Is(err, context.Canceled) {
		slog.Debug("field extraction cancelled",
			slog.String("field", field),
			slog.String("url", src.URL()),
		)
		return Result[T]{Value: value, Err: err}
	}
	slog.Error("field extraction failed, using fallback",
		slog.String("field", field),
		slog.String("url", src.URL()),
		slog.Any("fallback", value),
		slog.Any("error", err),
	)
	return Result[T]{Value: value, Err: err}
}

func absent[T any](src RenderedSource, field string, value T) Result[T] {
	slog.Debug("field absent, using sentinel",
		slog.String("field", field),
		slog.String("url", src.URL()),
	)
	return Result[T]{Value: value, Err: ErrFieldAbsent}
}
