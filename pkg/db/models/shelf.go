package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shelf is a physical shelf with a hard weight limit. The shelf owns the
// assignment relation; books know nothing about where they sit.
type Shelf struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string            `gorm:"column:code;not null;uniqueIndex"`
	MaxWeightKG decimal.Decimal   `gorm:"column:max_weight_kg;type:numeric(8,3);not null"`
	Assignments []ShelfAssignment `gorm:"foreignKey:ShelfID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ShelfAssignment links a book to at most one shelf.
type ShelfAssignment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShelfID   uuid.UUID `gorm:"column:shelf_id;type:uuid;not null;index"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex"`
	Book      *Book     `gorm:"foreignKey:BookID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
