package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/bookhavenhq/bookhaven-backend/internal/notifications"
	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

type fakeRepository struct {
	createFn          func(ctx context.Context, reservation *models.Reservation) error
	findByIDFn        func(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	findBookByIDFn    func(ctx context.Context, id uuid.UUID) (*models.Book, error)
	listPendingFn     func(ctx context.Context, bookID uuid.UUID) ([]models.Reservation, error)
	listExpiredFn     func(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	transitionFn      func(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error
	hasOpenLoanFn     func(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	countStatsFn      func(ctx context.Context) (Stats, error)
	created           []models.Reservation
	transitioned      []models.Reservation
	resequenceBatches [][]models.Reservation
}

func (f *fakeRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, reservation); err != nil {
			return err
		}
	}
	reservation.ID = uuid.New()
	f.created = append(f.created, *reservation)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, errors.New(errors.CodeNotFound, "reservation not found")
}

func (f *fakeRepository) FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	if f.findBookByIDFn != nil {
		return f.findBookByIDFn(ctx, id)
	}
	return &models.Book{ID: id}, nil
}

func (f *fakeRepository) ListPendingByBook(ctx context.Context, bookID uuid.UUID) ([]models.Reservation, error) {
	if f.listPendingFn != nil {
		return f.listPendingFn(ctx, bookID)
	}
	return nil, nil
}

func (f *fakeRepository) ListPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	if f.listExpiredFn != nil {
		return f.listExpiredFn(ctx, cutoff)
	}
	return nil, nil
}

func (f *fakeRepository) Transition(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error {
	if f.transitionFn != nil {
		if err := f.transitionFn(ctx, reservation, resequenced); err != nil {
			return err
		}
	}
	f.transitioned = append(f.transitioned, *reservation)
	f.resequenceBatches = append(f.resequenceBatches, resequenced)
	return nil
}

func (f *fakeRepository) HasOpenLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	if f.hasOpenLoanFn != nil {
		return f.hasOpenLoanFn(ctx, userID, bookID)
	}
	return false, nil
}

func (f *fakeRepository) CountStats(ctx context.Context) (Stats, error) {
	if f.countStatsFn != nil {
		return f.countStatsFn(ctx)
	}
	return Stats{}, nil
}

type fakeNotifier struct {
	events []notifications.Event
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, event notifications.Event) error {
	f.events = append(f.events, event)
	return f.err
}

func testReservationService(t *testing.T, repo Repository, notifier notifications.Notifier) Service {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "reservations-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(repo, notifier, config.ReservationsConfig{WindowDays: 30}, log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestReserveAssignsFIFOPriorities(t *testing.T) {
	bookID := uuid.New()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	var queue []models.Reservation
	repo := &fakeRepository{
		listPendingFn: func(ctx context.Context, id uuid.UUID) ([]models.Reservation, error) {
			return append([]models.Reservation(nil), queue...), nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	for want := 1; want <= 3; want++ {
		summary, err := svc.Reserve(context.Background(), uuid.New(), bookID, now.Add(time.Duration(want)*time.Minute))
		if err != nil {
			t.Fatalf("Reserve #%d: %v", want, err)
		}
		if summary.Priority != want {
			t.Fatalf("priority = %d, want %d", summary.Priority, want)
		}
		queue = append(queue, repo.created[len(repo.created)-1])
	}
}

func TestReserveSetsExpiryWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepository{}
	svc := testReservationService(t, repo, &fakeNotifier{})

	summary, err := svc.Reserve(context.Background(), uuid.New(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !summary.ExpiresAt.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expires at = %v, want 30 days out", summary.ExpiresAt)
	}
	if summary.Status != enums.ReservationStatusPending {
		t.Fatalf("status = %s, want pending", summary.Status)
	}
}

func TestReserveUnknownBookReadsNotFound(t *testing.T) {
	repo := &fakeRepository{
		findBookByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Book, error) {
			return nil, errors.New(errors.CodeNotFound, "book not found")
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	_, err := svc.Reserve(context.Background(), uuid.New(), uuid.New(), time.Now())
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no reservation should be written")
	}
}

func TestReserveRejectsOwnActiveLoan(t *testing.T) {
	repo := &fakeRepository{
		hasOpenLoanFn: func(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	_, err := svc.Reserve(context.Background(), uuid.New(), uuid.New(), time.Now())
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no reservation should be written")
	}
}

func TestReserveSurfacesDuplicatePendingConflict(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, reservation *models.Reservation) error {
			return errors.New(errors.CodeConflict, "user already holds a pending reservation for this book")
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	_, err := svc.Reserve(context.Background(), uuid.New(), uuid.New(), time.Now())
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelResequencesRemainingQueue(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bookID := uuid.New()
	first := pendingAt(1, base)
	second := pendingAt(2, base.Add(time.Hour))
	third := pendingAt(3, base.Add(2*time.Hour))
	for _, r := range []*models.Reservation{&first, &second, &third} {
		r.BookID = bookID
	}

	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
			copied := second
			return &copied, nil
		},
		listPendingFn: func(ctx context.Context, id uuid.UUID) ([]models.Reservation, error) {
			return []models.Reservation{first, second, third}, nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	summary, err := svc.Cancel(context.Background(), second.ID, second.UserID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if summary.Status != enums.ReservationStatusCancelled {
		t.Fatalf("status = %s, want cancelled", summary.Status)
	}
	if len(repo.resequenceBatches) != 1 {
		t.Fatalf("expected one transition")
	}
	batch := repo.resequenceBatches[0]
	if len(batch) != 1 || batch[0].ID != third.ID || batch[0].Priority != 2 {
		t.Fatalf("third in line should move to priority 2, got %+v", batch)
	}
}

func TestCancelGuards(t *testing.T) {
	fulfilled := pendingAt(1, time.Now())
	fulfilled.Status = enums.ReservationStatusFulfilled
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
			if id == fulfilled.ID {
				copied := fulfilled
				return &copied, nil
			}
			return nil, errors.New(errors.CodeNotFound, "reservation not found")
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	if _, err := svc.Cancel(context.Background(), uuid.New(), uuid.Nil); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), fulfilled.ID, fulfilled.UserID); !errors.IsCode(err, errors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), fulfilled.ID, uuid.New()); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("foreign caller should read not found, got %v", err)
	}
}

func TestExpireSweepTransitionsAndCounts(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	stale := []models.Reservation{pendingAt(1, base), pendingAt(1, base)}
	repo := &fakeRepository{
		listExpiredFn: func(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
			return append([]models.Reservation(nil), stale...), nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	transitioned, err := svc.ExpireSweep(context.Background(), base.AddDate(0, 0, 31))
	if err != nil {
		t.Fatalf("ExpireSweep anomalies: %v", err)
	}
	if transitioned != 2 {
		t.Fatalf("transitioned = %d, want 2", transitioned)
	}
	for _, r := range repo.transitioned {
		if r.Status != enums.ReservationStatusExpired {
			t.Fatalf("swept reservation left in %s", r.Status)
		}
	}
}

func TestExpireSweepCollectsAnomaliesWithoutAborting(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bad := pendingAt(1, base)
	good := pendingAt(1, base)
	repo := &fakeRepository{
		listExpiredFn: func(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
			return []models.Reservation{bad, good}, nil
		},
		transitionFn: func(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error {
			if reservation.ID == bad.ID {
				return errors.New(errors.CodeInternal, "write failed")
			}
			return nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	transitioned, err := svc.ExpireSweep(context.Background(), base.AddDate(0, 0, 31))
	if transitioned != 1 {
		t.Fatalf("transitioned = %d, want 1", transitioned)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("expected one collected anomaly, got %v", err)
	}
}

func TestExpireSweepIdempotent(t *testing.T) {
	repo := &fakeRepository{}
	svc := testReservationService(t, repo, &fakeNotifier{})

	transitioned, err := svc.ExpireSweep(context.Background(), time.Now())
	if err != nil || transitioned != 0 {
		t.Fatalf("sweep over clean queue = (%d, %v), want (0, nil)", transitioned, err)
	}
}

func TestExpireSweepSkipsConcurrentlySettledRecords(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	raced := pendingAt(1, base)
	repo := &fakeRepository{
		listExpiredFn: func(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
			return []models.Reservation{raced}, nil
		},
		transitionFn: func(ctx context.Context, reservation *models.Reservation, resequenced []models.Reservation) error {
			return errors.New(errors.CodeStateConflict, "reservation no longer pending")
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	transitioned, err := svc.ExpireSweep(context.Background(), base.AddDate(0, 0, 31))
	if err != nil {
		t.Fatalf("lost race should not be an anomaly: %v", err)
	}
	if transitioned != 0 {
		t.Fatalf("transitioned = %d, want 0", transitioned)
	}
}

func TestOnBookReturnedFulfillsFrontOfQueue(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bookID := uuid.New()
	first := pendingAt(1, base)
	second := pendingAt(2, base.Add(time.Hour))
	first.BookID = bookID
	second.BookID = bookID

	repo := &fakeRepository{
		listPendingFn: func(ctx context.Context, id uuid.UUID) ([]models.Reservation, error) {
			return []models.Reservation{first, second}, nil
		},
	}
	notifier := &fakeNotifier{}
	svc := testReservationService(t, repo, notifier)

	now := base.AddDate(0, 0, 5)
	if err := svc.OnBookReturned(context.Background(), bookID, now); err != nil {
		t.Fatalf("OnBookReturned: %v", err)
	}

	if len(repo.transitioned) != 1 {
		t.Fatalf("expected one transition")
	}
	fulfilled := repo.transitioned[0]
	if fulfilled.ID != first.ID || fulfilled.Status != enums.ReservationStatusFulfilled {
		t.Fatalf("front of queue not fulfilled: %+v", fulfilled)
	}
	if fulfilled.NotifiedAt == nil || !fulfilled.NotifiedAt.Equal(now) {
		t.Fatalf("notified at not stamped")
	}
	if fulfilled.FulfilledAt == nil || !fulfilled.FulfilledAt.Equal(now) {
		t.Fatalf("fulfilled at not stamped")
	}
	batch := repo.resequenceBatches[0]
	if len(batch) != 1 || batch[0].ID != second.ID || batch[0].Priority != 1 {
		t.Fatalf("second in line should move to priority 1, got %+v", batch)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != notifications.EventReservationFulfilled {
		t.Fatalf("fulfillment event not emitted")
	}
	if notifier.events[0].UserID != first.UserID {
		t.Fatalf("event addressed to wrong member")
	}
}

func TestOnBookReturnedNoopOnEmptyQueue(t *testing.T) {
	repo := &fakeRepository{}
	notifier := &fakeNotifier{}
	svc := testReservationService(t, repo, notifier)

	if err := svc.OnBookReturned(context.Background(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("empty queue should be a no-op: %v", err)
	}
	if len(repo.transitioned) != 0 || len(notifier.events) != 0 {
		t.Fatalf("no writes or events expected")
	}
}

func TestOnBookReturnedSucceedsWhenNotifierFails(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bookID := uuid.New()
	first := pendingAt(1, base)
	first.BookID = bookID
	repo := &fakeRepository{
		listPendingFn: func(ctx context.Context, id uuid.UUID) ([]models.Reservation, error) {
			return []models.Reservation{first}, nil
		},
	}
	notifier := &fakeNotifier{err: errors.New(errors.CodeDependency, "channel down")}
	svc := testReservationService(t, repo, notifier)

	if err := svc.OnBookReturned(context.Background(), bookID, base.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("delivery failure must not unwind fulfillment: %v", err)
	}
	if len(repo.transitioned) != 1 {
		t.Fatalf("fulfillment should have committed")
	}
}

func TestWaitingListReturnsQueueOrder(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	bookID := uuid.New()
	first := pendingAt(1, base)
	second := pendingAt(2, base.Add(time.Hour))
	repo := &fakeRepository{
		listPendingFn: func(ctx context.Context, id uuid.UUID) ([]models.Reservation, error) {
			return []models.Reservation{second, first}, nil
		},
	}
	svc := testReservationService(t, repo, &fakeNotifier{})

	list, err := svc.WaitingList(context.Background(), bookID)
	if err != nil {
		t.Fatalf("WaitingList: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("waiting list not in queue order")
	}
}
