package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// SearchField selects which book attribute a linear search matches against.
type SearchField string

const (
	SearchFieldTitle  SearchField = "title"
	SearchFieldAuthor SearchField = "author"
)

// IsValid reports whether the value is a known SearchField.
func (f SearchField) IsValid() bool {
	return f == SearchFieldTitle || f == SearchFieldAuthor
}

// ParseSearchField converts raw input into a SearchField.
func ParseSearchField(value string) (SearchField, error) {
	switch SearchField(value) {
	case SearchFieldTitle:
		return SearchFieldTitle, nil
	case SearchFieldAuthor:
		return SearchFieldAuthor, nil
	}
	return "", fmt.Errorf("invalid search field %q", value)
}

// SortOrder selects the direction of a value report.
type SortOrder string

const (
	SortOrderAscending  SortOrder = "asc"
	SortOrderDescending SortOrder = "desc"
)

// IsValid reports whether the value is a known SortOrder.
func (o SortOrder) IsValid() bool {
	return o == SortOrderAscending || o == SortOrderDescending
}

// ParseSortOrder converts raw input into a SortOrder.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case SortOrderAscending:
		return SortOrderAscending, nil
	case SortOrderDescending:
		return SortOrderDescending, nil
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}

// NormalizeISBN reduces an ISBN to its bare digit string so that
// lexicographic comparison is stable regardless of hyphenation. The index
// never validates the format; any string is an opaque sort key.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	b.Grow(len(isbn))
	for _, r := range isbn {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// SortedByISBN returns a copy of books stably sorted ascending by normalized
// ISBN. The input slice is left untouched.
func SortedByISBN(books []models.Book) []models.Book {
	sorted := make([]models.Book, len(books))
	copy(sorted, books)
	sort.SliceStable(sorted, func(i, j int) bool {
		return NormalizeISBN(sorted[i].ISBN) < NormalizeISBN(sorted[j].ISBN)
	})
	return sorted
}

// BinarySearchByISBN locates a book by ISBN in O(log n). The input must
// already be sorted ascending by normalized ISBN (see SortedByISBN); the
// caller owns that precondition.
func BinarySearchByISBN(sorted []models.Book, isbn string) (*models.Book, error) {
	target := NormalizeISBN(isbn)

	lo, hi := 0, len(sorted)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		key := NormalizeISBN(sorted[mid].ISBN)
		switch {
		case key == target:
			found := sorted[mid]
			return &found, nil
		case key < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("no book with isbn %q", isbn))
}

// LinearSearch returns every book whose selected field contains term,
// case-insensitively, preserving the original collection order. An empty
// result is not an error.
func LinearSearch(books []models.Book, term string, field SearchField) ([]models.Book, error) {
	if !field.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid search field %q", field))
	}

	needle := strings.ToLower(term)
	matches := make([]models.Book, 0)
	for _, book := range books {
		var haystack string
		switch field {
		case SearchFieldTitle:
			haystack = book.Title
		case SearchFieldAuthor:
			haystack = book.Author
		}
		if strings.Contains(strings.ToLower(haystack), needle) {
			matches = append(matches, book)
		}
	}
	return matches, nil
}

// ValueReport returns a copy of books stably sorted by monetary value.
// Stability means ties keep their original relative order, so repeated calls
// over unchanged input are reproducible.
func ValueReport(books []models.Book, order SortOrder) ([]models.Book, error) {
	if !order.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid sort order %q", order))
	}

	sorted := make([]models.Book, len(books))
	copy(sorted, books)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].Value.Cmp(sorted[j].Value)
		if order == SortOrderAscending {
			return cmp < 0
		}
		return cmp > 0
	})
	return sorted, nil
}
