package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// Loan records one checkout of one book by one member. Mutated only by the
// circulation service; terminal once Status is returned.
type Loan struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	BookID     uuid.UUID        `gorm:"column:book_id;type:uuid;not null;index"`
	LoanDate   time.Time        `gorm:"column:loan_date;not null"`
	DueDate    time.Time        `gorm:"column:due_date;not null"`
	ReturnDate *time.Time       `gorm:"column:return_date"`
	Status     enums.LoanStatus `gorm:"column:status;type:loan_status;not null;default:'active'"`
	LateFee    decimal.Decimal  `gorm:"column:late_fee;type:numeric(12,2);not null;default:0"`
	Notes      *string          `gorm:"column:notes"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
