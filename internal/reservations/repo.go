package reservations

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// Repository encapsulates reservation persistence. Transition applies a
// status change and the queue re-sequencing it causes in one transaction.
type Repository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ListPendingByBook(ctx context.Context, bookID uuid.UUID) ([]models.Reservation, error)
	ListPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	Transition(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error
	FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	HasOpenLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	CountStats(ctx context.Context) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a reservations repository bound to the provided gorm DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, reservation *models.Reservation) error {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return errors.Wrap(errors.CodeConflict, err, "user already holds a pending reservation for this book")
		}
		return errors.Wrap(errors.CodeInternal, err, "creating reservation")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "reservation not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "finding reservation")
	}
	return &reservation, nil
}

func (r *repository) ListPendingByBook(ctx context.Context, bookID uuid.UUID) ([]models.Reservation, error) {
	var pending []models.Reservation
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND status = ?", bookID, enums.ReservationStatusPending).
		Order("priority ASC, request_date ASC, id ASC").
		Find(&pending).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing pending reservations")
	}
	return pending, nil
}

func (r *repository) ListPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var expired []models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ReservationStatusPending, cutoff).
		Order("expires_at ASC, id ASC").
		Find(&expired).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing expired reservations")
	}
	return expired, nil
}

func (r *repository) Transition(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", reservation.ID, enums.ReservationStatusPending).
			Updates(map[string]any{
				"status":       reservation.Status,
				"notified_at":  reservation.NotifiedAt,
				"fulfilled_at": reservation.FulfilledAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, sibling := range resequenced {
			if err := tx.Model(&models.Reservation{}).
				Where("id = ?", sibling.ID).
				Update("priority", sibling.Priority).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(errors.CodeStateConflict, err, "reservation no longer pending")
		}
		return errors.Wrap(errors.CodeInternal, err, "transitioning reservation")
	}
	return nil
}

func (r *repository) FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "book not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "finding book")
	}
	return &book, nil
}

func (r *repository) HasOpenLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, enums.LoanStatusActive).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "checking open loan")
	}
	return count > 0, nil
}

func (r *repository) CountStats(ctx context.Context) (Stats, error) {
	var stats Stats
	conn := r.db.WithContext(ctx).Model(&models.Reservation{})

	if err := conn.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting reservations")
	}
	counts := []struct {
		status enums.ReservationStatus
		target *int64
	}{
		{enums.ReservationStatusPending, &stats.Pending},
		{enums.ReservationStatusFulfilled, &stats.Fulfilled},
		{enums.ReservationStatusCancelled, &stats.Cancelled},
		{enums.ReservationStatusExpired, &stats.Expired},
	}
	for _, c := range counts {
		if err := conn.Session(&gorm.Session{}).
			Where("status = ?", c.status).
			Count(c.target).Error; err != nil {
			return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting reservations by status")
		}
	}
	return stats, nil
}
