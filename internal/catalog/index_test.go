package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

func book(isbn, title, author, value string) models.Book {
	return models.Book{
		ID:       uuid.New(),
		ISBN:     isbn,
		Title:    title,
		Author:   author,
		Category: enums.BookCategoryFiction,
		WeightKG: decimal.NewFromFloat(0.5),
		Value:    decimal.RequireFromString(value),
	}
}

func sampleBooks() []models.Book {
	return []models.Book{
		book("978-0-13-468599-1", "The Go Programming Language", "Alan Donovan", "32.99"),
		book("978-0-452-28423-4", "Nineteen Eighty-Four", "George Orwell", "9.99"),
		book("978-0-7432-7356-5", "The Great Gatsby", "F. Scott Fitzgerald", "10.50"),
		book("978-0-06-112008-4", "To Kill a Mockingbird", "Harper Lee", "9.99"),
	}
}

func TestNormalizeISBN(t *testing.T) {
	if got := NormalizeISBN("978-0-306-40615-7"); got != "9780306406157" {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if got := NormalizeISBN("0 8044 2957 x"); got != "080442957X" {
		t.Fatalf("check digit should uppercase: %q", got)
	}
}

func TestSortedByISBNIsStableAndIdempotent(t *testing.T) {
	books := sampleBooks()
	sorted := SortedByISBN(books)

	for i := 1; i < len(sorted); i++ {
		if NormalizeISBN(sorted[i-1].ISBN) > NormalizeISBN(sorted[i].ISBN) {
			t.Fatalf("not sorted at %d: %s > %s", i, sorted[i-1].ISBN, sorted[i].ISBN)
		}
	}

	again := SortedByISBN(sorted)
	for i := range sorted {
		if again[i].ID != sorted[i].ID {
			t.Fatalf("sorting a sorted collection changed order at %d", i)
		}
	}

	// Input order untouched.
	if books[0].ISBN != "978-0-13-468599-1" {
		t.Fatal("input slice was mutated")
	}
}

func TestBinarySearchAgreesWithLinearSearch(t *testing.T) {
	sorted := SortedByISBN(sampleBooks())

	for _, want := range sorted {
		found, err := BinarySearchByISBN(sorted, want.ISBN)
		if err != nil {
			t.Fatalf("binary search missed %s: %v", want.ISBN, err)
		}
		if found.ID != want.ID {
			t.Fatalf("binary search returned wrong record for %s", want.ISBN)
		}

		// The O(n) path over the same data must agree with the O(log n) path.
		matches, err := LinearSearch(sorted, want.Title, SearchFieldTitle)
		if err != nil {
			t.Fatalf("linear search error: %v", err)
		}
		if len(matches) == 0 || matches[0].ID != want.ID {
			t.Fatalf("linear search disagreed for %s", want.Title)
		}
	}

	if _, err := BinarySearchByISBN(sorted, "999-9-99-999999-9"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for absent isbn, got %v", err)
	}
}

func TestBinarySearchTreatsMalformedISBNAsOpaqueKey(t *testing.T) {
	sorted := SortedByISBN(sampleBooks())
	if _, err := BinarySearchByISBN(sorted, "not-an-isbn"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("malformed isbn should simply not match, got %v", err)
	}
}

func TestLinearSearch(t *testing.T) {
	books := sampleBooks()

	matches, err := LinearSearch(books, "the", SearchFieldTitle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 title matches, got %d", len(matches))
	}
	// Original collection order preserved.
	if matches[0].Title != "The Go Programming Language" || matches[1].Title != "The Great Gatsby" {
		t.Fatalf("unexpected match order: %s, %s", matches[0].Title, matches[1].Title)
	}

	matches, err = LinearSearch(books, "ORWELL", SearchFieldAuthor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Author != "George Orwell" {
		t.Fatalf("author search should be case-insensitive: %+v", matches)
	}

	matches, err = LinearSearch(books, "zzz", SearchFieldTitle)
	if err != nil {
		t.Fatalf("no match should not be an error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result, got %d", len(matches))
	}

	if _, err := LinearSearch(books, "x", SearchField("publisher")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad field, got %v", err)
	}
}

func TestValueReportStability(t *testing.T) {
	books := sampleBooks()

	asc, err := ValueReport(books, SortOrderAscending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two books share value 9.99; stability keeps Orwell (earlier in input) first.
	if asc[0].Author != "George Orwell" || asc[1].Author != "Harper Lee" {
		t.Fatalf("tie not broken by original order: %s, %s", asc[0].Author, asc[1].Author)
	}
	if asc[len(asc)-1].Value.String() != "32.99" {
		t.Fatalf("ascending report should end at the most valuable book")
	}

	// Repeated calls over unchanged input are reproducible.
	again, err := ValueReport(books, SortOrderAscending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range asc {
		if asc[i].ID != again[i].ID {
			t.Fatalf("value report not reproducible at %d", i)
		}
	}

	desc, err := ValueReport(books, SortOrderDescending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc[0].Value.String() != "32.99" {
		t.Fatalf("descending report should start at the most valuable book")
	}
	// Descending keeps tied values in original relative order too.
	if desc[2].Author != "George Orwell" || desc[3].Author != "Harper Lee" {
		t.Fatalf("descending tie order wrong: %s, %s", desc[2].Author, desc[3].Author)
	}
}
