package shelving

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// Service exposes shelf management, the packing optimizer and the safety scan.
type Service interface {
	CreateShelf(ctx context.Context, input CreateShelfInput) (*ShelfSummary, error)
	ListShelves(ctx context.Context) ([]ShelfSummary, error)
	GetShelf(ctx context.Context, id uuid.UUID) (*ShelfSummary, error)

	// AssignBook places a book on a shelf, refusing any assignment that
	// would push the committed load over the shelf's weight limit.
	AssignBook(ctx context.Context, shelfID, bookID uuid.UUID) error
	UnassignBook(ctx context.Context, bookID uuid.UUID) error

	// Optimize computes the best-value packing of candidate books for a
	// shelf. With no explicit candidates, every unshelved available book is
	// considered.
	Optimize(ctx context.Context, shelfID uuid.UUID, candidateIDs []uuid.UUID) (*OptimizeResult, error)

	// DangerScan audits every shelf for book combinations over the safety
	// threshold.
	DangerScan(ctx context.Context) (*DangerReport, error)
}

type service struct {
	repo      Repository
	allocator *Allocator
}

// NewService wires a shelving service with the provided repository and allocator.
func NewService(repo Repository, allocator *Allocator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shelving repository required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("allocator required")
	}
	return &service{repo: repo, allocator: allocator}, nil
}

func (s *service) CreateShelf(ctx context.Context, input CreateShelfInput) (*ShelfSummary, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, errors.New(errors.CodeValidation, "shelf code is required")
	}
	if input.MaxWeightKG.Sign() <= 0 {
		return nil, errors.New(errors.CodeValidation, "max weight must be positive")
	}

	shelf := &models.Shelf{
		Code:        strings.TrimSpace(input.Code),
		MaxWeightKG: input.MaxWeightKG,
	}
	if err := s.repo.CreateShelf(ctx, shelf); err != nil {
		return nil, err
	}
	summary := summarize(*shelf)
	return &summary, nil
}

func (s *service) ListShelves(ctx context.Context) ([]ShelfSummary, error) {
	shelves, err := s.repo.ListShelves(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ShelfSummary, 0, len(shelves))
	for _, shelf := range shelves {
		summaries = append(summaries, summarize(shelf))
	}
	return summaries, nil
}

func (s *service) GetShelf(ctx context.Context, id uuid.UUID) (*ShelfSummary, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "shelf id is required")
	}
	shelf, err := s.repo.FindShelfByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := summarize(*shelf)
	return &summary, nil
}

func (s *service) AssignBook(ctx context.Context, shelfID, bookID uuid.UUID) error {
	if shelfID == uuid.Nil || bookID == uuid.Nil {
		return errors.New(errors.CodeValidation, "shelf id and book id are required")
	}

	shelf, err := s.repo.FindShelfByID(ctx, shelfID)
	if err != nil {
		return err
	}

	books, err := s.repo.FindBooksByIDs(ctx, []uuid.UUID{bookID})
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return errors.New(errors.CodeNotFound, "book not found")
	}
	book := books[0]

	if book.WeightKG.Cmp(shelf.MaxWeightKG) > 0 {
		return errors.New(errors.CodeConflict,
			fmt.Sprintf("book %s alone exceeds shelf %s weight limit", book.ISBN, shelf.Code))
	}

	current := summarize(*shelf).AssignedWeight
	if current.Cmp(shelf.MaxWeightKG) > 0 {
		// Every assignment is gatekept here, so a committed overload means a
		// writer bypassed the allocator.
		return errors.New(errors.CodeInvariant,
			fmt.Sprintf("shelf %s committed load %s already exceeds limit %s", shelf.Code, current, shelf.MaxWeightKG))
	}
	if current.Add(book.WeightKG).Cmp(shelf.MaxWeightKG) > 0 {
		return errors.New(errors.CodeConflict,
			fmt.Sprintf("assigning %s would exceed shelf %s weight limit", book.ISBN, shelf.Code))
	}

	return s.repo.CreateAssignment(ctx, &models.ShelfAssignment{
		ShelfID: shelfID,
		BookID:  bookID,
	})
}

func (s *service) UnassignBook(ctx context.Context, bookID uuid.UUID) error {
	if bookID == uuid.Nil {
		return errors.New(errors.CodeValidation, "book id is required")
	}
	return s.repo.DeleteAssignmentByBook(ctx, bookID)
}

func (s *service) Optimize(ctx context.Context, shelfID uuid.UUID, candidateIDs []uuid.UUID) (*OptimizeResult, error) {
	if shelfID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "shelf id is required")
	}

	shelf, err := s.repo.FindShelfByID(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	var candidates []models.Book
	if len(candidateIDs) > 0 {
		unique := dedupeIDs(candidateIDs)
		candidates, err = s.repo.FindBooksByIDs(ctx, unique)
		if err != nil {
			return nil, err
		}
		if len(candidates) != len(unique) {
			return nil, errors.New(errors.CodeNotFound, "one or more candidate books not found")
		}
	} else {
		candidates, err = s.repo.ListUnassignedAvailableBooks(ctx)
		if err != nil {
			return nil, err
		}
	}

	return s.allocator.Optimize(shelf.MaxWeightKG, candidates)
}

// dedupeIDs drops repeated IDs while keeping first-seen order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func (s *service) DangerScan(ctx context.Context) (*DangerReport, error) {
	shelves, err := s.repo.ListShelves(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]ShelfSnapshot, 0, len(shelves))
	for _, shelf := range shelves {
		snapshots = append(snapshots, snapshot(shelf))
	}
	return s.allocator.FindDangerousCombinations(snapshots), nil
}
