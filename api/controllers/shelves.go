package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/api/responses"
	"github.com/bookhavenhq/bookhaven-backend/api/validators"
	shelvingsvc "github.com/bookhavenhq/bookhaven-backend/internal/shelving"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// CreateShelf registers a new shelf with its weight limit.
func CreateShelf(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		var payload createShelfRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shelf, err := svc.CreateShelf(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shelf)
	}
}

// ListShelves returns every shelf with its current load.
func ListShelves(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		shelves, err := svc.ListShelves(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shelves)
	}
}

// GetShelf fetches one shelf by id.
func GetShelf(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		shelfID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "shelfId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shelf id"))
			return
		}

		shelf, err := svc.GetShelf(r.Context(), shelfID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shelf)
	}
}

// AssignBook places a book on a shelf if the weight limit allows it.
func AssignBook(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		shelfID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "shelfId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shelf id"))
			return
		}

		var payload assignBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookID, err := uuid.Parse(strings.TrimSpace(payload.BookID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		if err := svc.AssignBook(r.Context(), shelfID, bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "assigned"})
	}
}

// UnassignBook takes a book off whatever shelf holds it.
func UnassignBook(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		bookID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "bookId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		if err := svc.UnassignBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "unassigned"})
	}
}

// OptimizeShelf computes the most valuable set of books the shelf can hold.
func OptimizeShelf(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		shelfID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "shelfId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shelf id"))
			return
		}

		// An empty body means the default candidate pool.
		var payload optimizeShelfRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		candidateIDs, err := payload.candidateUUIDs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Optimize(r.Context(), shelfID, candidateIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// DangerScan reports shelf book combinations that exceed the safety threshold.
func DangerScan(svc shelvingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shelving service unavailable"))
			return
		}

		report, err := svc.DangerScan(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

type createShelfRequest struct {
	Code        string `json:"code" validate:"required,max=40"`
	MaxWeightKG string `json:"max_weight_kg" validate:"required"`
}

func (req createShelfRequest) toInput() (shelvingsvc.CreateShelfInput, error) {
	maxWeight, err := decimal.NewFromString(strings.TrimSpace(req.MaxWeightKG))
	if err != nil {
		return shelvingsvc.CreateShelfInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid max weight")
	}
	return shelvingsvc.CreateShelfInput{
		Code:        strings.TrimSpace(req.Code),
		MaxWeightKG: maxWeight,
	}, nil
}

type assignBookRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

type optimizeShelfRequest struct {
	CandidateIDs []string `json:"candidate_ids,omitempty" validate:"omitempty,dive,uuid"`
}

func (req optimizeShelfRequest) candidateUUIDs() ([]uuid.UUID, error) {
	if len(req.CandidateIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(req.CandidateIDs))
	for _, raw := range req.CandidateIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid candidate id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
