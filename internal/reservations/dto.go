package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// ReservationSummary is the caller-facing projection of a hold.
type ReservationSummary struct {
	ID          uuid.UUID               `json:"id"`
	UserID      uuid.UUID               `json:"user_id"`
	BookID      uuid.UUID               `json:"book_id"`
	RequestDate time.Time               `json:"request_date"`
	ExpiresAt   time.Time               `json:"expires_at"`
	Status      enums.ReservationStatus `json:"status"`
	Priority    int                     `json:"priority"`
	NotifiedAt  *time.Time              `json:"notified_at,omitempty"`
	FulfilledAt *time.Time              `json:"fulfilled_at,omitempty"`
}

// Stats aggregates reservation counts by status.
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Fulfilled int64 `json:"fulfilled"`
	Cancelled int64 `json:"cancelled"`
	Expired   int64 `json:"expired"`
}

func summarize(reservation models.Reservation) ReservationSummary {
	return ReservationSummary{
		ID:          reservation.ID,
		UserID:      reservation.UserID,
		BookID:      reservation.BookID,
		RequestDate: reservation.RequestDate,
		ExpiresAt:   reservation.ExpiresAt,
		Status:      reservation.Status,
		Priority:    reservation.Priority,
		NotifiedAt:  reservation.NotifiedAt,
		FulfilledAt: reservation.FulfilledAt,
	}
}
