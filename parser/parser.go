// Package parser holds the text rules that turn raw catalog strings into record fields.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The catalog serves the pound sign mis-decoded as "Â£"; correctly decoded
// pages carry a plain "£". Both are stripped, the two-character form first.
const (
	mojibakePound = "Â£"
	pound         = "£"
)

var (
	// ErrEmpty is returned when there is no text to parse.
	ErrEmpty = errors.New("parser: empty input")
	// ErrNoParenthesis is returned when stock text has no "(" group.
	ErrNoParenthesis = errors.New("parser: no parenthesis group")
	// ErrNoRatingWord is returned when the rating class has no second word.
	ErrNoRatingWord = errors.New("parser: rating class has no second word")
	// ErrNegativeAmount is returned when the stock count is below zero.
	ErrNegativeAmount = errors.New("parser: negative stock count")
)

// NormalizePrice removes the currency symbol and surrounding whitespace.
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	price = strings.ReplaceAll(price, mojibakePound, "")
	price = strings.ReplaceAll(price, pound, "")
	return strings.TrimSpace(price)
}

// ParsePrice strips the currency symbol and parses the rest as a float.
func ParsePrice(raw string) (float64, error) {
	clean := NormalizePrice(raw)
	if clean == "" {
		return 0, ErrEmpty
	}
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return value, nil
}

// ParseRating returns the second space-separated word of a class attribute,
// e.g. "star-rating Three" -> "Three".
func ParseRating(class string) (string, error) {
	words := strings.Fields(class)
	if len(words) < 2 {
		return "", fmt.Errorf("%w: %q", ErrNoRatingWord, class)
	}
	return words[1], nil
}

// ParseAmountInStock reads the count between the first "(" and the space that
// follows it: "In stock (22 available)" -> 22.
func ParseAmountInStock(text string) (int, error) {
	_, rest, found := strings.Cut(text, "(")
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrNoParenthesis, text)
	}
	number, _, _ := strings.Cut(rest, " ")
	amount, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return 0, fmt.Errorf("parse stock count %q: %w", number, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return amount, nil
}

// CategoryFromBreadcrumbs picks the second-to-last breadcrumb entry. It
// reports false when the trail has fewer than two entries.
func CategoryFromBreadcrumbs[T any](trail []T) (T, bool) {
	if len(trail) < 2 {
		var zero T
		return zero, false
	}
	return trail[len(trail)-2], true
}
