package extract

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-books-records/parser"
)

// Selectors inside an article.product_pod fragment.
const (
	LinkSelector   = "h3 a"
	PriceSelector  = "p.price_color"
	RatingSelector = "p.star-rating"
)

// ErrMissingTitle is returned when the item link has no title attribute.
var ErrMissingTitle = errors.New("extract: item link has no title")

// Title reads the display title attribute of the item link.
func Title(src StaticSource) (string, error) {
	title, ok := src.Attr(LinkSelector, "title")
	if !ok {
		return "", ErrMissingTitle
	}
	return title, nil
}

// Link returns the item link href, relative to the listing page.
func Link(src StaticSource) (string, bool) {
	href, ok := src.Attr(LinkSelector, "href")
	if !ok || href == "" {
		return "", false
	}
	return href, true
}

// Price reads the price text and parses it with the currency symbol stripped.
func Price(src StaticSource) (float64, error) {
	price, err := parser.ParsePrice(src.Text(PriceSelector))
	if err != nil {
		return 0, fmt.Errorf("extract price: %w", err)
	}
	return price, nil
}

// Rating returns the rating word encoded in the star-rating class.
func Rating(src StaticSource) (string, error) {
	class, _ := src.Attr(RatingSelector, "class")
	rating, err := parser.ParseRating(class)
	if err != nil {
		return "", fmt.Errorf("extract rating: %w", err)
	}
	return rating, nil
}
