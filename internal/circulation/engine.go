package circulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

// EffectiveStatus is the caller-facing view of a loan's state. Unlike
// enums.LoanStatus it includes overdue, which is derived from the clock and
// never stored.
type EffectiveStatus string

const (
	StatusActive   EffectiveStatus = "active"
	StatusOverdue  EffectiveStatus = "overdue"
	StatusReturned EffectiveStatus = "returned"
)

// Engine holds the loan-term and fee parameters and applies the state
// machine to loan records. It performs no I/O; every entry point takes the
// clock explicitly.
type Engine struct {
	loanPeriod time.Duration
	dailyFee   decimal.Decimal
}

// NewEngine builds an engine from the circulation configuration.
func NewEngine(cfg config.CirculationConfig) (*Engine, error) {
	if cfg.LoanPeriodDays <= 0 {
		return nil, fmt.Errorf("loan period days must be positive")
	}
	fee := cfg.DailyLateFeeAmount()
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("daily late fee must not be negative")
	}
	return &Engine{
		loanPeriod: cfg.LoanPeriod(),
		dailyFee:   fee,
	}, nil
}

// NewLoan builds the record for a checkout happening at now.
func (e *Engine) NewLoan(userID, bookID uuid.UUID, now time.Time) models.Loan {
	return models.Loan{
		UserID:   userID,
		BookID:   bookID,
		LoanDate: now,
		DueDate:  now.Add(e.loanPeriod),
		Status:   enums.LoanStatusActive,
		LateFee:  decimal.Zero,
	}
}

// Status derives the effective state of a loan at now. Overdue is purely a
// function of the due date and the clock.
func Status(loan models.Loan, now time.Time) EffectiveStatus {
	if loan.Status == enums.LoanStatusReturned {
		return StatusReturned
	}
	if now.After(loan.DueDate) {
		return StatusOverdue
	}
	return StatusActive
}

// daysOverdue counts whole days past due, rounding partial days up.
func daysOverdue(dueDate, at time.Time) int64 {
	late := at.Sub(dueDate)
	if late <= 0 {
		return 0
	}
	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// AccruedLateFee returns the fee owed if the loan were settled at now.
// Never negative; zero for on-time and already-returned loans.
func (e *Engine) AccruedLateFee(loan models.Loan, now time.Time) decimal.Decimal {
	if loan.Status == enums.LoanStatusReturned {
		return loan.LateFee
	}
	days := daysOverdue(loan.DueDate, now)
	if days == 0 {
		return decimal.Zero
	}
	return e.dailyFee.Mul(decimal.NewFromInt(days))
}

// Close settles an open loan at now, fixing the return date, final fee and
// terminal status on the record. Notes are recorded verbatim when present.
func (e *Engine) Close(loan *models.Loan, notes *string, now time.Time) {
	returnedAt := now
	loan.ReturnDate = &returnedAt
	loan.LateFee = e.dailyFee.Mul(decimal.NewFromInt(daysOverdue(loan.DueDate, now)))
	loan.Status = enums.LoanStatusReturned
	if notes != nil {
		loan.Notes = notes
	}
}
