package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// Book represents a single physical copy in the catalog. Everything except
// Available is immutable after creation; Available is flipped only by the
// circulation service.
type Book struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ISBN      string             `gorm:"column:isbn;not null;uniqueIndex"`
	Title     string             `gorm:"column:title;not null"`
	Author    string             `gorm:"column:author;not null"`
	Category  enums.BookCategory `gorm:"column:category;type:book_category;not null"`
	Tags      pq.StringArray     `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	WeightKG  decimal.Decimal    `gorm:"column:weight_kg;type:numeric(8,3);not null"`
	Value     decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	Available bool               `gorm:"column:available;not null;default:true"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
