package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// overdueLoanReader is the slice of the circulation repository the job needs.
type overdueLoanReader interface {
	ListOpenLoansDueBefore(ctx context.Context, cutoff time.Time) ([]models.Loan, error)
}

// OverdueScanJobParams configure the overdue loan scan.
type OverdueScanJobParams struct {
	Logger *logger.Logger
	Loans  overdueLoanReader
}

// NewOverdueScanJob builds the read-only job that surfaces overdue loans.
// Overdue is derived from the due date, so the scan writes nothing.
func NewOverdueScanJob(params OverdueScanJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Loans == nil {
		return nil, fmt.Errorf("loan reader required")
	}
	return &overdueScanJob{
		logg:  params.Logger,
		loans: params.Loans,
		now:   time.Now,
	}, nil
}

type overdueScanJob struct {
	logg  *logger.Logger
	loans overdueLoanReader
	now   func() time.Time
}

func (j *overdueScanJob) Name() string { return "overdue-scan" }

func (j *overdueScanJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	overdue, err := j.loans.ListOpenLoansDueBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("query overdue loans: %w", err)
	}

	for _, loan := range overdue {
		loanCtx := j.logg.WithFields(ctx, map[string]any{
			"loan_id":      loan.ID.String(),
			"user_id":      loan.UserID.String(),
			"book_id":      loan.BookID.String(),
			"due_date":     loan.DueDate,
			"days_overdue": int(now.Sub(loan.DueDate).Hours() / 24),
		})
		j.logg.Warn(loanCtx, "loan overdue")
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": len(overdue)})
	j.logg.Info(logCtx, "overdue scan complete")
	return nil
}
