package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
)

// LoanSummary is the caller-facing projection of a loan. Status carries the
// effective state at the time the summary was built.
type LoanSummary struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	BookID     uuid.UUID       `json:"book_id"`
	LoanDate   time.Time       `json:"loan_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	Status     EffectiveStatus `json:"status"`
	LateFee    decimal.Decimal `json:"late_fee"`
	Notes      *string         `json:"notes,omitempty"`
}

// ReturnInput identifies the loan to settle, either directly by loan ID or
// by the user/book pair of the open loan.
type ReturnInput struct {
	LoanID *uuid.UUID
	UserID *uuid.UUID
	BookID *uuid.UUID
	Notes  *string
}

// Stats aggregates loan counts. Active excludes loans that are past due;
// those are counted under Overdue.
type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Returned int64 `json:"returned"`
	Overdue  int64 `json:"overdue"`
}

func summarize(loan models.Loan, now time.Time) LoanSummary {
	return LoanSummary{
		ID:         loan.ID,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		LoanDate:   loan.LoanDate,
		DueDate:    loan.DueDate,
		ReturnDate: loan.ReturnDate,
		Status:     Status(loan, now),
		LateFee:    loan.LateFee,
		Notes:      loan.Notes,
	}
}
