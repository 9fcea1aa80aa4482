package cron

import (
	"context"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

type fakeSweeper struct {
	transitioned int
	anomalies    error
	sweptAt      []time.Time
}

func (f *fakeSweeper) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	f.sweptAt = append(f.sweptAt, now)
	return f.transitioned, f.anomalies
}

func TestReservationExpiryJobReportsCounts(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	sweeper := &fakeSweeper{transitioned: 3}
	job, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:       logg,
		Reservations: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sweeper.sweptAt) != 1 {
		t.Fatalf("expected one sweep, got %d", len(sweeper.sweptAt))
	}
}

func TestReservationExpiryJobSurfacesAnomalies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	anomalies := multierr.Combine(
		context.DeadlineExceeded,
		context.Canceled,
	)
	sweeper := &fakeSweeper{transitioned: 1, anomalies: anomalies}
	job, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:       logg,
		Reservations: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	err = job.Run(context.Background())
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("expected both anomalies surfaced, got %v", err)
	}
}
