package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/pagination"
)

type fakeRepository struct {
	books    []models.Book
	createFn func(ctx context.Context, book *models.Book) error
}

func (f *fakeRepository) Create(ctx context.Context, book *models.Book) error {
	if f.createFn != nil {
		return f.createFn(ctx, book)
	}
	f.books = append(f.books, *book)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	for _, book := range f.books {
		if book.ID == id {
			found := book
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.Book, error) {
	return f.books, nil
}

func (f *fakeRepository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Book, error) {
	if limit > len(f.books) {
		limit = len(f.books)
	}
	return f.books[:limit], nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for i, book := range f.books {
		if book.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
}

func TestCreateBookValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input CreateBookInput
	}{
		{
			name: "missing isbn",
			input: CreateBookInput{
				Title:    "A Title",
				Author:   "An Author",
				Category: enums.BookCategoryFiction,
				WeightKG: decimal.NewFromFloat(0.4),
				Value:    decimal.NewFromInt(10),
			},
		},
		{
			name: "bad category",
			input: CreateBookInput{
				ISBN:     "978-0-00-000000-1",
				Title:    "A Title",
				Author:   "An Author",
				Category: enums.BookCategory("cooking"),
				WeightKG: decimal.NewFromFloat(0.4),
				Value:    decimal.NewFromInt(10),
			},
		},
		{
			name: "zero weight",
			input: CreateBookInput{
				ISBN:     "978-0-00-000000-1",
				Title:    "A Title",
				Author:   "An Author",
				Category: enums.BookCategoryFiction,
				Value:    decimal.NewFromInt(10),
			},
		},
		{
			name: "negative value",
			input: CreateBookInput{
				ISBN:     "978-0-00-000000-1",
				Title:    "A Title",
				Author:   "An Author",
				Category: enums.BookCategoryFiction,
				WeightKG: decimal.NewFromFloat(0.4),
				Value:    decimal.NewFromInt(-1),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateBook(context.Background(), tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateBookDefaultsToAvailable(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	summary, err := svc.CreateBook(context.Background(), CreateBookInput{
		ISBN:     "  978-0-13-468599-1 ",
		Title:    "The Go Programming Language",
		Author:   "Alan Donovan",
		Category: enums.BookCategoryTechnology,
		WeightKG: decimal.NewFromFloat(0.9),
		Value:    decimal.RequireFromString("32.99"),
	})
	if err != nil {
		t.Fatalf("CreateBook error: %v", err)
	}
	if !summary.Available {
		t.Fatal("new books must start available")
	}
	if summary.ISBN != "978-0-13-468599-1" {
		t.Fatalf("isbn should be trimmed: %q", summary.ISBN)
	}
}

func TestFindByISBNUsesIndex(t *testing.T) {
	repo := &fakeRepository{books: sampleBooks()}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	summary, err := svc.FindByISBN(context.Background(), "978-0-452-28423-4")
	if err != nil {
		t.Fatalf("FindByISBN error: %v", err)
	}
	if summary.Author != "George Orwell" {
		t.Fatalf("wrong record: %s", summary.Author)
	}

	if _, err := svc.FindByISBN(context.Background(), "978-9-99-999999-9"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBrowseInventorySortsByISBN(t *testing.T) {
	repo := &fakeRepository{books: sampleBooks()}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	inventory, err := svc.BrowseInventory(context.Background())
	if err != nil {
		t.Fatalf("BrowseInventory error: %v", err)
	}
	for i := 1; i < len(inventory); i++ {
		if NormalizeISBN(inventory[i-1].ISBN) > NormalizeISBN(inventory[i].ISBN) {
			t.Fatalf("inventory not sorted at %d", i)
		}
	}
}

func TestSearchRequiresTerm(t *testing.T) {
	svc, err := NewService(&fakeRepository{books: sampleBooks()})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if _, err := svc.Search(context.Background(), "   ", SearchFieldTitle); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
