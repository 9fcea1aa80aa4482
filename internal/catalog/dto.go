package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// CreateBookInput carries the attributes of a new catalog entry.
type CreateBookInput struct {
	ISBN     string
	Title    string
	Author   string
	Category enums.BookCategory
	Tags     []string
	WeightKG decimal.Decimal
	Value    decimal.Decimal
}

// BookSummary is the caller-facing projection of a catalog record.
type BookSummary struct {
	ID        uuid.UUID          `json:"id"`
	ISBN      string             `json:"isbn"`
	Title     string             `json:"title"`
	Author    string             `json:"author"`
	Category  enums.BookCategory `json:"category"`
	Tags      []string           `json:"tags"`
	WeightKG  decimal.Decimal    `json:"weight_kg"`
	Value     decimal.Decimal    `json:"value"`
	Available bool               `json:"available"`
	CreatedAt time.Time          `json:"created_at"`
}

// BookPage is one cursor page of catalog entries.
type BookPage struct {
	Books      []BookSummary `json:"books"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

func summarize(book models.Book) BookSummary {
	return BookSummary{
		ID:        book.ID,
		ISBN:      book.ISBN,
		Title:     book.Title,
		Author:    book.Author,
		Category:  book.Category,
		Tags:      []string(book.Tags),
		WeightKG:  book.WeightKG,
		Value:     book.Value,
		Available: book.Available,
		CreatedAt: book.CreatedAt,
	}
}

func summarizeAll(books []models.Book) []BookSummary {
	summaries := make([]BookSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, summarize(book))
	}
	return summaries
}
