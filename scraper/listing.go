package scraper

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-books-records/extract"
)

var errMissingLink = errors.New("listing fragment has no detail link")

// ListingPage is one parsed catalog page.
type ListingPage struct {
	URL       string
	Fragments []*ListingFragment
	// Next is the absolute URL of the following page, empty on the last one.
	Next string
}

// ListingFragment is the markup of one article.product_pod together with the
// URL of the page it was found on. It is only valid for the walk that produced it.
type ListingFragment struct {
	sel  *goquery.Selection
	base *url.URL
}

// NewListingFragment wraps sel, resolving links against base.
func NewListingFragment(sel *goquery.Selection, base *url.URL) *ListingFragment {
	return &ListingFragment{sel: sel, base: base}
}

// Attr implements extract.StaticSource.
func (f *ListingFragment) Attr(selector, name string) (string, bool) {
	return f.sel.Find(selector).First().Attr(name)
}

// Text implements extract.StaticSource.
func (f *ListingFragment) Text(selector string) string {
	return f.sel.Find(selector).Text()
}

// DetailURL resolves the item link against the listing page URL.
func (f *ListingFragment) DetailURL() (string, error) {
	href, ok := extract.Link(f)
	if !ok {
		return "", errMissingLink
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse detail link %q: %w", href, err)
	}
	if f.base == nil {
		return ref.String(), nil
	}
	return f.base.ResolveReference(ref).String(), nil
}
