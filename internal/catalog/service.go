package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/pagination"
)

// Service exposes catalog management and the search index.
type Service interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*BookSummary, error)
	GetBook(ctx context.Context, id uuid.UUID) (*BookSummary, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context, params pagination.Params) (*BookPage, error)

	// BrowseInventory returns the whole catalog sorted ascending by ISBN.
	BrowseInventory(ctx context.Context) ([]BookSummary, error)
	// FindByISBN answers point lookups through the binary-search path.
	FindByISBN(ctx context.Context, isbn string) (*BookSummary, error)
	// Search answers substring queries through the linear path.
	Search(ctx context.Context, term string, field SearchField) ([]BookSummary, error)
	// ValueReport lists the catalog ordered by monetary value.
	ValueReport(ctx context.Context, order SortOrder) ([]BookSummary, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*BookSummary, error) {
	if strings.TrimSpace(input.ISBN) == "" {
		return nil, errors.New(errors.CodeValidation, "isbn is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New(errors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Author) == "" {
		return nil, errors.New(errors.CodeValidation, "author is required")
	}
	if !input.Category.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid category %q", input.Category))
	}
	if input.WeightKG.Sign() <= 0 {
		return nil, errors.New(errors.CodeValidation, "weight must be positive")
	}
	if input.Value.Sign() < 0 {
		return nil, errors.New(errors.CodeValidation, "value cannot be negative")
	}

	book := &models.Book{
		ISBN:      strings.TrimSpace(input.ISBN),
		Title:     strings.TrimSpace(input.Title),
		Author:    strings.TrimSpace(input.Author),
		Category:  input.Category,
		Tags:      input.Tags,
		WeightKG:  input.WeightKG,
		Value:     input.Value,
		Available: true,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	summary := summarize(*book)
	return &summary, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*BookSummary, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "book id is required")
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := summarize(*book)
	return &summary, nil
}

func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New(errors.CodeValidation, "book id is required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) ListBooks(ctx context.Context, params pagination.Params) (*BookPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	books, err := s.repo.ListPage(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}

	page := &BookPage{}
	if len(books) > limit {
		books = books[:limit]
		last := books[len(books)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	page.Books = summarizeAll(books)
	return page, nil
}

func (s *service) BrowseInventory(ctx context.Context) ([]BookSummary, error) {
	books, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeAll(SortedByISBN(books)), nil
}

func (s *service) FindByISBN(ctx context.Context, isbn string) (*BookSummary, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, errors.New(errors.CodeValidation, "isbn is required")
	}

	books, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	found, err := BinarySearchByISBN(SortedByISBN(books), isbn)
	if err != nil {
		return nil, err
	}
	summary := summarize(*found)
	return &summary, nil
}

func (s *service) Search(ctx context.Context, term string, field SearchField) ([]BookSummary, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.New(errors.CodeValidation, "search term is required")
	}

	books, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := LinearSearch(books, term, field)
	if err != nil {
		return nil, err
	}
	return summarizeAll(matches), nil
}

func (s *service) ValueReport(ctx context.Context, order SortOrder) ([]BookSummary, error) {
	books, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	sorted, err := ValueReport(books, order)
	if err != nil {
		return nil, err
	}
	return summarizeAll(sorted), nil
}
