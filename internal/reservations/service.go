package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/bookhavenhq/bookhaven-backend/internal/notifications"
	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// Service exposes the hold queue operations. It also satisfies the
// circulation service's HoldFulfiller hook via OnBookReturned.
type Service interface {
	Reserve(ctx context.Context, userID, bookID uuid.UUID, now time.Time) (*ReservationSummary, error)
	Cancel(ctx context.Context, reservationID, userID uuid.UUID) (*ReservationSummary, error)

	// ExpireSweep transitions every pending hold past its expiry. It never
	// aborts midway; per-record failures are collected and returned
	// alongside the count of successful transitions.
	ExpireSweep(ctx context.Context, now time.Time) (int, error)

	// OnBookReturned fulfills the front of the book's queue, if any.
	OnBookReturned(ctx context.Context, bookID uuid.UUID, now time.Time) error

	WaitingList(ctx context.Context, bookID uuid.UUID) ([]ReservationSummary, error)
	ReservationStats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo     Repository
	notifier notifications.Notifier
	window   time.Duration
	log      *logger.Logger
}

// NewService wires the reservation queue service.
func NewService(repo Repository, notifier notifications.Notifier, cfg config.ReservationsConfig, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if cfg.WindowDays <= 0 {
		return nil, fmt.Errorf("reservation window days must be positive")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, notifier: notifier, window: cfg.Window(), log: log}, nil
}

func (s *service) Reserve(ctx context.Context, userID, bookID uuid.UUID, now time.Time) (*ReservationSummary, error) {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id and book id are required")
	}

	if _, err := s.repo.FindBookByID(ctx, bookID); err != nil {
		return nil, err
	}

	onLoan, err := s.repo.HasOpenLoan(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if onLoan {
		return nil, errors.New(errors.CodeConflict, "user already has this book on loan")
	}

	pending, err := s.repo.ListPendingByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	byQueueOrder(pending)

	reservation := models.Reservation{
		UserID:      userID,
		BookID:      bookID,
		RequestDate: now,
		ExpiresAt:   now.Add(s.window),
		Status:      enums.ReservationStatusPending,
		Priority:    nextPriority(pending),
	}
	if err := s.repo.Create(ctx, &reservation); err != nil {
		return nil, err
	}

	ctx = s.log.WithBookID(s.log.WithUserID(ctx, userID.String()), bookID.String())
	s.log.Info(ctx, "reservation placed")

	summary := summarize(reservation)
	return &summary, nil
}

// Cancel withdraws a pending reservation. A zero userID skips the
// ownership check for staff callers.
func (s *service) Cancel(ctx context.Context, reservationID, userID uuid.UUID) (*ReservationSummary, error) {
	if reservationID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "reservation id is required")
	}

	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	// A foreign reservation reads as not found rather than forbidden.
	if userID != uuid.Nil && reservation.UserID != userID {
		return nil, errors.New(errors.CodeNotFound, "reservation not found")
	}
	if reservation.Status != enums.ReservationStatusPending {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("reservation is %s, only pending reservations can be cancelled", reservation.Status))
	}

	if err := s.transitionAndResequence(ctx, reservation, enums.ReservationStatusCancelled, nil); err != nil {
		return nil, err
	}

	summary := summarize(*reservation)
	return &summary, nil
}

func (s *service) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ListPendingExpiredBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	var anomalies error
	for i := range expired {
		reservation := expired[i]
		if err := s.transitionAndResequence(ctx, &reservation, enums.ReservationStatusExpired, nil); err != nil {
			// Already-transitioned records are the concurrent sweep case,
			// not an anomaly.
			if errors.IsCode(err, errors.CodeStateConflict) {
				continue
			}
			anomalies = multierr.Append(anomalies,
				fmt.Errorf("expiring reservation %s: %w", reservation.ID, err))
			continue
		}
		transitioned++
	}
	return transitioned, anomalies
}

func (s *service) OnBookReturned(ctx context.Context, bookID uuid.UUID, now time.Time) error {
	if bookID == uuid.Nil {
		return errors.New(errors.CodeValidation, "book id is required")
	}

	pending, err := s.repo.ListPendingByBook(ctx, bookID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	byQueueOrder(pending)

	head := pending[0]
	at := now
	head.NotifiedAt = &at
	head.FulfilledAt = &at
	if err := s.transitionAndResequence(ctx, &head, enums.ReservationStatusFulfilled, pending); err != nil {
		return err
	}

	ctx = s.log.WithBookID(s.log.WithUserID(ctx, head.UserID.String()), bookID.String())
	s.log.Info(ctx, "reservation fulfilled")

	// Delivery failures do not unwind the fulfillment.
	event := notifications.Event{
		Type:       notifications.EventReservationFulfilled,
		UserID:     head.UserID,
		BookID:     bookID,
		OccurredAt: now,
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.log.Error(ctx, "emitting fulfillment notification", err)
	}
	return nil
}

// transitionAndResequence moves the reservation to its terminal status and
// closes the priority gap it leaves behind. When the caller already holds the
// book's pending queue it is passed in; otherwise it is loaded here.
func (s *service) transitionAndResequence(ctx context.Context, reservation *models.Reservation, to enums.ReservationStatus, pending []models.Reservation) error {
	if pending == nil {
		loaded, err := s.repo.ListPendingByBook(ctx, reservation.BookID)
		if err != nil {
			return err
		}
		byQueueOrder(loaded)
		pending = loaded
	}

	remaining := without(pending, reservation.ID)
	changed := resequence(remaining)

	reservation.Status = to
	return s.repo.Transition(ctx, reservation, changed)
}

func (s *service) WaitingList(ctx context.Context, bookID uuid.UUID) ([]ReservationSummary, error) {
	if bookID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "book id is required")
	}
	pending, err := s.repo.ListPendingByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	byQueueOrder(pending)

	summaries := make([]ReservationSummary, 0, len(pending))
	for _, reservation := range pending {
		summaries = append(summaries, summarize(reservation))
	}
	return summaries, nil
}

func (s *service) ReservationStats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.CountStats(ctx)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
