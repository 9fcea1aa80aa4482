package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// HoldFulfiller is the hook the reservation queue implements so a returned
// book can be offered to the next waiting member.
type HoldFulfiller interface {
	OnBookReturned(ctx context.Context, bookID uuid.UUID, now time.Time) error
}

// Service exposes the circulation operations.
type Service interface {
	Checkout(ctx context.Context, userID, bookID uuid.UUID, now time.Time) (*LoanSummary, error)
	Return(ctx context.Context, input ReturnInput, now time.Time) (*LoanSummary, error)

	// LoanStatus derives the effective state of a loan without mutating it.
	LoanStatus(ctx context.Context, loanID uuid.UUID, now time.Time) (EffectiveStatus, error)
	ListUserLoans(ctx context.Context, userID uuid.UUID, now time.Time) ([]LoanSummary, error)
	LoanStats(ctx context.Context, now time.Time) (*Stats, error)
}

type service struct {
	repo      Repository
	engine    *Engine
	fulfiller HoldFulfiller
	log       *logger.Logger
}

// NewService wires the circulation service. The fulfiller may be nil when no
// reservation queue is attached.
func NewService(repo Repository, engine *Engine, fulfiller HoldFulfiller, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("circulation repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("circulation engine required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, fulfiller: fulfiller, log: log}, nil
}

func (s *service) Checkout(ctx context.Context, userID, bookID uuid.UUID, now time.Time) (*LoanSummary, error) {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id and book id are required")
	}

	book, err := s.repo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Available {
		return nil, errors.New(errors.CodeConflict, "book is not available for checkout")
	}

	loan := s.engine.NewLoan(userID, bookID, now)
	if err := s.repo.Checkout(ctx, &loan); err != nil {
		return nil, err
	}

	ctx = s.log.WithBookID(s.log.WithUserID(ctx, userID.String()), bookID.String())
	s.log.Info(ctx, "book checked out")

	summary := summarize(loan, now)
	return &summary, nil
}

func (s *service) Return(ctx context.Context, input ReturnInput, now time.Time) (*LoanSummary, error) {
	loan, err := s.findOpenLoan(ctx, input)
	if err != nil {
		return nil, err
	}

	s.engine.Close(loan, input.Notes, now)
	if err := s.repo.Settle(ctx, loan); err != nil {
		return nil, err
	}

	ctx = s.log.WithBookID(s.log.WithUserID(ctx, loan.UserID.String()), loan.BookID.String())
	s.log.Info(ctx, "book returned")

	// The return itself has committed; a failed hand-off to the waiting
	// list is logged and retried by the next sweep, not surfaced here.
	if s.fulfiller != nil {
		if err := s.fulfiller.OnBookReturned(ctx, loan.BookID, now); err != nil {
			s.log.Error(ctx, "fulfilling hold after return", err)
		}
	}

	summary := summarize(*loan, now)
	return &summary, nil
}

func (s *service) findOpenLoan(ctx context.Context, input ReturnInput) (*models.Loan, error) {
	switch {
	case input.LoanID != nil && *input.LoanID != uuid.Nil:
		loan, err := s.repo.FindLoanByID(ctx, *input.LoanID)
		if err != nil {
			return nil, err
		}
		if loan.Status.IsTerminal() {
			return nil, errors.New(errors.CodeStateConflict, "loan already returned")
		}
		// A foreign loan reads as not found rather than forbidden.
		if input.UserID != nil && *input.UserID != uuid.Nil && loan.UserID != *input.UserID {
			return nil, errors.New(errors.CodeNotFound, "loan not found")
		}
		return loan, nil
	case input.UserID != nil && input.BookID != nil && *input.UserID != uuid.Nil && *input.BookID != uuid.Nil:
		return s.repo.FindOpenLoan(ctx, *input.UserID, *input.BookID)
	default:
		return nil, errors.New(errors.CodeValidation, "loan id or user id and book id required")
	}
}

func (s *service) LoanStatus(ctx context.Context, loanID uuid.UUID, now time.Time) (EffectiveStatus, error) {
	if loanID == uuid.Nil {
		return "", errors.New(errors.CodeValidation, "loan id is required")
	}
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return "", err
	}
	return Status(*loan, now), nil
}

func (s *service) ListUserLoans(ctx context.Context, userID uuid.UUID, now time.Time) ([]LoanSummary, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	loans, err := s.repo.ListLoansByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]LoanSummary, 0, len(loans))
	for _, loan := range loans {
		summaries = append(summaries, summarize(loan, now))
	}
	return summaries, nil
}

func (s *service) LoanStats(ctx context.Context, now time.Time) (*Stats, error) {
	stats, err := s.repo.CountStats(ctx, now)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
