package shelving

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
)

// CreateShelfInput carries the attributes of a new shelf.
type CreateShelfInput struct {
	Code        string
	MaxWeightKG decimal.Decimal
}

// ShelfSummary is the caller-facing projection of a shelf and its load.
type ShelfSummary struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	MaxWeightKG    decimal.Decimal `json:"max_weight_kg"`
	AssignedWeight decimal.Decimal `json:"assigned_weight_kg"`
	BookCount      int             `json:"book_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

func summarize(shelf models.Shelf) ShelfSummary {
	summary := ShelfSummary{
		ID:             shelf.ID,
		Code:           shelf.Code,
		MaxWeightKG:    shelf.MaxWeightKG,
		AssignedWeight: decimal.Zero,
		BookCount:      len(shelf.Assignments),
		CreatedAt:      shelf.CreatedAt,
	}
	for _, assignment := range shelf.Assignments {
		if assignment.Book != nil {
			summary.AssignedWeight = summary.AssignedWeight.Add(assignment.Book.WeightKG)
		}
	}
	return summary
}

func snapshot(shelf models.Shelf) ShelfSnapshot {
	snap := ShelfSnapshot{
		Code:        shelf.Code,
		MaxWeightKG: shelf.MaxWeightKG,
	}
	for _, assignment := range shelf.Assignments {
		if assignment.Book != nil {
			snap.Books = append(snap.Books, *assignment.Book)
		}
	}
	return snap
}
