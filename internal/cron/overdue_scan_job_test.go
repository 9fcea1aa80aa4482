package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

type fakeLoanReader struct {
	loans   []models.Loan
	err     error
	cutoffs []time.Time
}

func (f *fakeLoanReader) ListOpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]models.Loan, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.loans, f.err
}

func TestOverdueScanJobScansOpenLoans(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	reader := &fakeLoanReader{
		loans: []models.Loan{
			{
				ID:      uuid.New(),
				UserID:  uuid.New(),
				BookID:  uuid.New(),
				DueDate: now.AddDate(0, 0, -3),
				Status:  enums.LoanStatusActive,
			},
		},
	}
	job, err := NewOverdueScanJob(OverdueScanJobParams{Logger: logg, Loans: reader})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	job.(*overdueScanJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reader.cutoffs) != 1 || !reader.cutoffs[0].Equal(now) {
		t.Fatalf("scan cutoff should be the current clock, got %v", reader.cutoffs)
	}
}

func TestOverdueScanJobPropagatesReadFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	reader := &fakeLoanReader{err: context.DeadlineExceeded}
	job, err := NewOverdueScanJob(OverdueScanJobParams{Logger: logg, Loans: reader})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error from failed read")
	}
}
