package circulation

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

// Repository encapsulates loan persistence. Checkout and Settle run inside a
// transaction so the loan row and the book's availability flip together.
type Repository interface {
	Checkout(ctx context.Context, loan *models.Loan) error
	Settle(ctx context.Context, loan *models.Loan) error
	FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	FindOpenLoan(ctx context.Context, userID, bookID uuid.UUID) (*models.Loan, error)
	FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]models.Loan, error)
	ListOpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]models.Loan, error)
	CountStats(ctx context.Context, now time.Time) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a circulation repository bound to the provided gorm DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Checkout(ctx context.Context, loan *models.Loan) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Book{}).
			Where("id = ? AND available = TRUE", loan.BookID).
			Update("available", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		// idx_loans_book_active makes a concurrent second checkout a
		// unique violation rather than a double loan.
		if db.IsUniqueViolation(err, "") {
			return errors.Wrap(errors.CodeConflict, err, "book already on loan")
		}
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(errors.CodeConflict, err, "book not available")
		}
		return errors.Wrap(errors.CodeInternal, err, "creating loan")
	}
	return nil
}

func (r *repository) Settle(ctx context.Context, loan *models.Loan) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ?", loan.ID, enums.LoanStatusActive).
			Updates(map[string]any{
				"status":      loan.Status,
				"return_date": loan.ReturnDate,
				"late_fee":    loan.LateFee,
				"notes":       loan.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Book{}).
			Where("id = ?", loan.BookID).
			Update("available", true).Error
	})
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(errors.CodeStateConflict, err, "loan already settled")
		}
		return errors.Wrap(errors.CodeInternal, err, "settling loan")
	}
	return nil
}

func (r *repository) FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, "id = ?", id).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "loan not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "finding loan")
	}
	return &loan, nil
}

func (r *repository) FindOpenLoan(ctx context.Context, userID, bookID uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, enums.LoanStatusActive).
		First(&loan).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "no open loan for user and book")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "finding open loan")
	}
	return &loan, nil
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

func (r *repository) ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("loan_date DESC, id ASC").
		Find(&loans).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing loans")
	}
	return loans, nil
}

func (r *repository) ListOpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", enums.LoanStatusActive, cutoff).
		Order("due_date ASC, id ASC").
		Find(&loans).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing overdue loans")
	}
	return loans, nil
}

func (r *repository) CountStats(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats
	conn := r.db.WithContext(ctx).Model(&models.Loan{})

	if err := conn.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting loans")
	}
	if err := conn.Session(&gorm.Session{}).
		Where("status = ?", enums.LoanStatusReturned).
		Count(&stats.Returned).Error; err != nil {
		return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting returned loans")
	}
	if err := conn.Session(&gorm.Session{}).
		Where("status = ? AND due_date >= ?", enums.LoanStatusActive, now).
		Count(&stats.Active).Error; err != nil {
		return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting active loans")
	}
	if err := conn.Session(&gorm.Session{}).
		Where("status = ? AND due_date < ?", enums.LoanStatusActive, now).
		Count(&stats.Overdue).Error; err != nil {
		return Stats{}, errors.Wrap(errors.CodeInternal, err, "counting overdue loans")
	}
	return stats, nil
}
