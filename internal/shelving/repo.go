package shelving

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// Repository encapsulates shelf and assignment persistence.
type Repository interface {
	CreateShelf(ctx context.Context, shelf *models.Shelf) error
	FindShelfByID(ctx context.Context, id uuid.UUID) (*models.Shelf, error)
	ListShelves(ctx context.Context) ([]models.Shelf, error)
	CreateAssignment(ctx context.Context, assignment *models.ShelfAssignment) error
	DeleteAssignmentByBook(ctx context.Context, bookID uuid.UUID) error
	ListUnassignedAvailableBooks(ctx context.Context) ([]models.Book, error)
	FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a shelving repository bound to the provided gorm DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) CreateShelf(ctx context.Context, shelf *models.Shelf) error {
	if err := r.db.WithContext(ctx).Create(shelf).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return errors.Wrap(errors.CodeConflict, err, "shelf code already exists")
		}
		return errors.Wrap(errors.CodeInternal, err, "creating shelf")
	}
	return nil
}

func (r *repository) FindShelfByID(ctx context.Context, id uuid.UUID) (*models.Shelf, error) {
	var shelf models.Shelf
	err := r.db.WithContext(ctx).
		Preload("Assignments.Book").
		First(&shelf, "id = ?", id).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "shelf not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "finding shelf")
	}
	return &shelf, nil
}

func (r *repository) ListShelves(ctx context.Context) ([]models.Shelf, error) {
	var shelves []models.Shelf
	err := r.db.WithContext(ctx).
		Preload("Assignments.Book").
		Order("code ASC").
		Find(&shelves).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing shelves")
	}
	return shelves, nil
}

func (r *repository) CreateAssignment(ctx context.Context, assignment *models.ShelfAssignment) error {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return errors.Wrap(errors.CodeConflict, err, "book is already shelved")
		}
		return errors.Wrap(errors.CodeInternal, err, "creating assignment")
	}
	return nil
}

func (r *repository) DeleteAssignmentByBook(ctx context.Context, bookID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShelfAssignment{}, "book_id = ?", bookID)
	if result.Error != nil {
		return errors.Wrap(errors.CodeInternal, result.Error, "deleting assignment")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "book is not shelved")
	}
	return nil
}

func (r *repository) ListUnassignedAvailableBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Where("id NOT IN (?)", r.db.Model(&models.ShelfAssignment{}).Select("book_id")).
		Order("isbn ASC").
		Find(&books).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing unassigned books")
	}
	return books, nil
}

func (r *repository) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []models.Book
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "finding books")
	}
	return books, nil
}
