package parser

import (
	"errors"
	"testing"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "with currency symbol",
			input:    "£51.77",
			expected: "51.77",
		},
		{
			name:     "mis-decoded currency symbol",
			input:    "Â£51.77",
			expected: "51.77",
		},
		{
			name:     "with whitespace",
			input:    "  £10.50  ",
			expected: "10.50",
		},
		{
			name:     "already clean",
			input:    "25.99",
			expected: "25.99",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePrice(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePrice(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "pound", input: "£51.77", expected: 51.77},
		{name: "mis-decoded pound", input: "Â£51.77", expected: 51.77},
		{name: "integer", input: "£10", expected: 10},
		{name: "empty", input: "", wantErr: true},
		{name: "symbol only", input: "Â£", wantErr: true},
		{name: "not a number", input: "£abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "three", input: "star-rating Three", expected: "Three"},
		{name: "one", input: "star-rating One", expected: "One"},
		{name: "extra spacing", input: "  star-rating   Five ", expected: "Five"},
		{name: "no word", input: "star-rating", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRating(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRating(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNoRatingWord) {
				t.Fatalf("ParseRating(%q) error = %v, want ErrNoRatingWord", tt.input, err)
			}
			if got != tt.expected {
				t.Fatalf("ParseRating(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseAmountInStock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  error
	}{
		{name: "available count", input: "In stock (22 available)", expected: 22},
		{name: "surrounding whitespace", input: "\n   In stock (1 available)\n", expected: 1},
		{name: "no parenthesis", input: "In stock", wantErr: ErrNoParenthesis},
		{name: "non numeric", input: "In stock (many available)"},
		{name: "empty group", input: "In stock ()"},
		{name: "negative count", input: "In stock (-3 available)", wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountInStock(tt.input)
			if tt.expected != 0 {
				if err != nil || got != tt.expected {
					t.Fatalf("ParseAmountInStock(%q) = %d, %v; want %d", tt.input, got, err, tt.expected)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseAmountInStock(%q) expected error", tt.input)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseAmountInStock(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCategoryFromBreadcrumbs(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		expected string
		ok       bool
	}{
		{name: "empty", labels: nil},
		{name: "single entry", labels: []string{"Home"}},
		{name: "two entries", labels: []string{"Home", "Books"}, expected: "Home", ok: true},
		{name: "full trail", labels: []string{"Home", "Books", "Poetry", "A Light in the Attic"}, expected: "Poetry", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CategoryFromBreadcrumbs(tt.labels)
			if got != tt.expected || ok != tt.ok {
				t.Fatalf("CategoryFromBreadcrumbs(%v) = %q, %v; want %q, %v", tt.labels, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
