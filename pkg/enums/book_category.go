package enums

import "fmt"

// BookCategory represents the canonical catalog categories.
type BookCategory string

const (
	BookCategoryFiction    BookCategory = "fiction"
	BookCategoryNonFiction BookCategory = "non_fiction"
	BookCategoryScience    BookCategory = "science"
	BookCategoryHistory    BookCategory = "history"
	BookCategoryBiography  BookCategory = "biography"
	BookCategoryChildren   BookCategory = "children"
	BookCategoryReference  BookCategory = "reference"
	BookCategoryPoetry     BookCategory = "poetry"
	BookCategoryComics     BookCategory = "comics"
	BookCategoryTechnology BookCategory = "technology"
)

var validBookCategories = []BookCategory{
	BookCategoryFiction,
	BookCategoryNonFiction,
	BookCategoryScience,
	BookCategoryHistory,
	BookCategoryBiography,
	BookCategoryChildren,
	BookCategoryReference,
	BookCategoryPoetry,
	BookCategoryComics,
	BookCategoryTechnology,
}

// String implements fmt.Stringer.
func (c BookCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BookCategory.
func (c BookCategory) IsValid() bool {
	for _, candidate := range validBookCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBookCategory converts raw input into a BookCategory.
func ParseBookCategory(value string) (BookCategory, error) {
	for _, candidate := range validBookCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid book category %q", value)
}
