package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// Reservation is one entry in a book's FIFO waiting list. Priority is 1-based
// and contiguous among pending entries for the same book; it is re-sequenced
// on every removal.
type Reservation struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	BookID      uuid.UUID               `gorm:"column:book_id;type:uuid;not null;index"`
	RequestDate time.Time               `gorm:"column:request_date;not null"`
	ExpiresAt   time.Time               `gorm:"column:expires_at;not null"`
	Status      enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'pending'"`
	Priority    int                     `gorm:"column:priority;not null"`
	NotifiedAt  *time.Time              `gorm:"column:notified_at"`
	FulfilledAt *time.Time              `gorm:"column:fulfilled_at"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
