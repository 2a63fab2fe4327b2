package scraper

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func fragmentFrom(t *testing.T, html, pageURL string) *ListingFragment {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return NewListingFragment(doc.Find("article.product_pod").First(), base)
}

func TestListingFragmentDetailURL(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		pageURL  string
		expected string
		err      error
	}{
		{
			name:     "relative to root page",
			html:     `<article class="product_pod"><h3><a href="catalogue/a-light-in-the-attic_1000/index.html">A Light</a></h3></article>`,
			pageURL:  "https://books.toscrape.com/",
			expected: "https://books.toscrape.com/catalogue/a-light-in-the-attic_1000/index.html",
		},
		{
			name:     "relative to catalogue page",
			html:     `<article class="product_pod"><h3><a href="tipping-the-velvet_999/index.html">Tipping</a></h3></article>`,
			pageURL:  "https://books.toscrape.com/catalogue/page-2.html",
			expected: "https://books.toscrape.com/catalogue/tipping-the-velvet_999/index.html",
		},
		{
			name:     "parent reference",
			html:     `<article class="product_pod"><h3><a href="../../../soumission_998/index.html">Soumission</a></h3></article>`,
			pageURL:  "https://books.toscrape.com/catalogue/category/books/poetry_23/index.html",
			expected: "https://books.toscrape.com/catalogue/soumission_998/index.html",
		},
		{
			name:    "no link",
			html:    `<article class="product_pod"><p class="price_color">£1.00</p></article>`,
			pageURL: "https://books.toscrape.com/",
			err:     errMissingLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fragmentFrom(t, tt.html, tt.pageURL).DetailURL()
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("DetailURL() error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetailURL() error = %v", err)
			}
			if got != tt.expected {
				t.Fatalf("DetailURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestListingFragmentReadsOnlyItsArticle(t *testing.T) {
	html := `<section>` +
		`<article class="product_pod"><h3><a href="a/index.html" title="First">F</a></h3><p class="price_color">£1.00</p></article>` +
		`<article class="product_pod"><h3><a href="b/index.html" title="Second">S</a></h3><p class="price_color">£2.00</p></article>` +
		`</section>`
	fragment := fragmentFrom(t, html, "https://books.toscrape.com/")

	if title, ok := fragment.Attr("h3 a", "title"); !ok || title != "First" {
		t.Fatalf("title = %q, %v; want First", title, ok)
	}
	if price := fragment.Text("p.price_color"); price != "£1.00" {
		t.Fatalf("price text = %q, want £1.00", price)
	}
	if _, ok := fragment.Attr("img", "src"); ok {
		t.Fatalf("expected missing attribute to report false")
	}
}
