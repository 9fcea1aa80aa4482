package circulation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(config.CirculationConfig{
		LoanPeriodDays: 14,
		DailyLateFee:   "0.50",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestNewLoanTerms(t *testing.T) {
	engine := testEngine(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	loan := engine.NewLoan(uuid.New(), uuid.New(), now)

	if !loan.LoanDate.Equal(now) {
		t.Fatalf("loan date = %v, want %v", loan.LoanDate, now)
	}
	wantDue := now.AddDate(0, 0, 14)
	if !loan.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %v, want %v", loan.DueDate, wantDue)
	}
	if loan.Status != enums.LoanStatusActive {
		t.Fatalf("status = %s, want active", loan.Status)
	}
	if !loan.LateFee.IsZero() {
		t.Fatalf("new loan should carry no fee, got %s", loan.LateFee)
	}
}

func TestStatusIsComputedNotStored(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := engine.NewLoan(uuid.New(), uuid.New(), start)

	cases := []struct {
		name string
		at   time.Time
		want EffectiveStatus
	}{
		{"on loan day", start, StatusActive},
		{"at due date", loan.DueDate, StatusActive},
		{"one second late", loan.DueDate.Add(time.Second), StatusOverdue},
		{"a week late", loan.DueDate.AddDate(0, 0, 7), StatusOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(loan, tc.at); got != tc.want {
				t.Fatalf("status at %v = %s, want %s", tc.at, got, tc.want)
			}
			// Deriving status never touches the record.
			if loan.Status != enums.LoanStatusActive {
				t.Fatalf("stored status mutated to %s", loan.Status)
			}
		})
	}
}

func TestAccruedLateFee(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := engine.NewLoan(uuid.New(), uuid.New(), start)

	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"before due", loan.DueDate.Add(-time.Hour), "0"},
		{"exactly due", loan.DueDate, "0"},
		{"partial day rounds up", loan.DueDate.Add(6 * time.Hour), "0.50"},
		{"one full day", loan.DueDate.Add(24 * time.Hour), "0.50"},
		{"one day and a minute", loan.DueDate.Add(24*time.Hour + time.Minute), "1.00"},
		{"ten days", loan.DueDate.AddDate(0, 0, 10), "5.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.AccruedLateFee(loan, tc.at)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("fee at %v = %s, want %s", tc.at, got, tc.want)
			}
		})
	}
}

func TestAccruedLateFeeMonotonic(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := engine.NewLoan(uuid.New(), uuid.New(), start)

	previous := decimal.Zero
	for hours := 0; hours <= 240; hours += 7 {
		at := loan.DueDate.Add(time.Duration(hours) * time.Hour)
		fee := engine.AccruedLateFee(loan, at)
		if fee.Cmp(previous) < 0 {
			t.Fatalf("fee decreased from %s to %s at +%dh", previous, fee, hours)
		}
		previous = fee
	}
}

func TestCloseSettlesLoan(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := engine.NewLoan(uuid.New(), uuid.New(), start)

	notes := "water damage on cover"
	returnedAt := loan.DueDate.AddDate(0, 0, 3)
	engine.Close(&loan, &notes, returnedAt)

	if loan.Status != enums.LoanStatusReturned {
		t.Fatalf("status = %s, want returned", loan.Status)
	}
	if loan.ReturnDate == nil || !loan.ReturnDate.Equal(returnedAt) {
		t.Fatalf("return date = %v, want %v", loan.ReturnDate, returnedAt)
	}
	if !loan.LateFee.Equal(decimal.RequireFromString("1.50")) {
		t.Fatalf("late fee = %s, want 1.50", loan.LateFee)
	}
	if loan.Notes == nil || *loan.Notes != notes {
		t.Fatalf("notes not recorded")
	}
	if got := Status(loan, returnedAt.AddDate(0, 0, 30)); got != StatusReturned {
		t.Fatalf("returned loan reported %s long after settlement", got)
	}
}

func TestCloseOnTimeChargesNothing(t *testing.T) {
	engine := testEngine(t)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := engine.NewLoan(uuid.New(), uuid.New(), start)

	engine.Close(&loan, nil, loan.DueDate.Add(-48*time.Hour))

	if !loan.LateFee.IsZero() {
		t.Fatalf("on-time return charged %s", loan.LateFee)
	}
	if loan.Notes != nil {
		t.Fatalf("notes should stay empty")
	}
}

func TestNewEngineGuards(t *testing.T) {
	if _, err := NewEngine(config.CirculationConfig{LoanPeriodDays: 0, DailyLateFee: "0.50"}); err == nil {
		t.Fatalf("expected error for zero loan period")
	}
	if _, err := NewEngine(config.CirculationConfig{LoanPeriodDays: 14, DailyLateFee: "-1"}); err == nil {
		t.Fatalf("expected error for negative fee")
	}
}
