package catalog

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence.
type Repository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListAll(ctx context.Context) ([]models.Book, error)
	ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return errors.Wrap(errors.CodeConflict, err, "isbn already in catalog")
		}
		return errors.Wrap(errors.CodeInternal, err, "creating book")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
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

func (r *repository) ListAll(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&books).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing books")
	}
	return books, nil
}

func (r *repository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Book, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing books")
	}
	return books, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(errors.CodeInternal, result.Error, "deleting book")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "book not found")
	}
	return nil
}
