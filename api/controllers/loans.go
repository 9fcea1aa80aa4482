package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/api/middleware"
	"github.com/bookhavenhq/bookhaven-backend/api/responses"
	"github.com/bookhavenhq/bookhaven-backend/api/validators"
	circulationsvc "github.com/bookhavenhq/bookhaven-backend/internal/circulation"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// CheckoutBook opens a loan for the authenticated member.
func CheckoutBook(svc circulationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "circulation service unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookID, err := uuid.Parse(strings.TrimSpace(payload.BookID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		loan, err := svc.Checkout(r.Context(), userID, bookID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, loan)
	}
}

// ReturnBook settles the member's open loan and reports any late fee.
func ReturnBook(svc circulationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "circulation service unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Return(r.Context(), input, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loan)
	}
}

// LoanStatus reports the effective status of one loan.
func LoanStatus(svc circulationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "circulation service unavailable"))
			return
		}

		loanID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "loanId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan id"))
			return
		}

		status, err := svc.LoanStatus(r.Context(), loanID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// ListMyLoans returns the authenticated member's loan history.
func ListMyLoans(svc circulationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "circulation service unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loans, err := svc.ListUserLoans(r.Context(), userID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loans)
	}
}

// LoanStats reports circulation counts by effective status.
func LoanStats(svc circulationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "circulation service unavailable"))
			return
		}

		stats, err := svc.LoanStats(r.Context(), time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

type checkoutRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

type returnRequest struct {
	LoanID *string `json:"loan_id,omitempty" validate:"omitempty,uuid"`
	BookID *string `json:"book_id,omitempty" validate:"omitempty,uuid"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (req returnRequest) toInput(userID uuid.UUID) (circulationsvc.ReturnInput, error) {
	input := circulationsvc.ReturnInput{UserID: &userID, Notes: req.Notes}
	if req.LoanID != nil {
		loanID, err := uuid.Parse(strings.TrimSpace(*req.LoanID))
		if err != nil {
			return circulationsvc.ReturnInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid loan id")
		}
		input.LoanID = &loanID
		return input, nil
	}
	if req.BookID == nil {
		return circulationsvc.ReturnInput{}, pkgerrors.New(pkgerrors.CodeValidation, "loan_id or book_id is required")
	}
	bookID, err := uuid.Parse(strings.TrimSpace(*req.BookID))
	if err != nil {
		return circulationsvc.ReturnInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id")
	}
	input.BookID = &bookID
	return input, nil
}

// contextUserID resolves the authenticated member id seeded by the auth middleware.
func contextUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}
