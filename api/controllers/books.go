package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/api/responses"
	"github.com/bookhavenhq/bookhaven-backend/api/validators"
	catalogsvc "github.com/bookhavenhq/bookhaven-backend/internal/catalog"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
	"github.com/bookhavenhq/bookhaven-backend/pkg/pagination"
)

// CreateBook registers a new title in the catalog.
func CreateBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.CreateBook(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

// GetBook fetches one catalog entry by id.
func GetBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "bookId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		book, err := svc.GetBook(r.Context(), bookID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// DeleteBook removes a catalog entry.
func DeleteBook(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "bookId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		if err := svc.DeleteBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListBooks returns one cursor page of the catalog.
func ListBooks(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params := pagination.Params{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = value
		}

		page, err := svc.ListBooks(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// BrowseInventory returns the full catalog in shelf-browsing order.
func BrowseInventory(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		books, err := svc.BrowseInventory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, books)
	}
}

// FindBookByISBN looks up the single entry carrying the given ISBN.
func FindBookByISBN(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		isbn := strings.TrimSpace(chi.URLParam(r, "isbn"))
		if isbn == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required"))
			return
		}

		book, err := svc.FindByISBN(r.Context(), isbn)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

// SearchBooks matches titles or authors against a search term.
func SearchBooks(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		term := strings.TrimSpace(r.URL.Query().Get("term"))
		if term == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "search term is required"))
			return
		}

		field, err := catalogsvc.ParseSearchField(strings.TrimSpace(r.URL.Query().Get("field")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid search field"))
			return
		}

		books, err := svc.Search(r.Context(), term, field)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, books)
	}
}

// BookValueReport returns the catalog ordered by replacement value.
func BookValueReport(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		order := catalogsvc.SortOrderDescending
		if raw := strings.TrimSpace(r.URL.Query().Get("order")); raw != "" {
			parsed, err := catalogsvc.ParseSortOrder(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort order"))
				return
			}
			order = parsed
		}

		books, err := svc.ValueReport(r.Context(), order)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, books)
	}
}

type createBookRequest struct {
	ISBN     string   `json:"isbn" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Author   string   `json:"author" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
	WeightKG string   `json:"weight_kg" validate:"required"`
	Value    string   `json:"value" validate:"required"`
}

func (req createBookRequest) toInput() (catalogsvc.CreateBookInput, error) {
	category, err := enums.ParseBookCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return catalogsvc.CreateBookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	weight, err := decimal.NewFromString(strings.TrimSpace(req.WeightKG))
	if err != nil {
		return catalogsvc.CreateBookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight")
	}

	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		return catalogsvc.CreateBookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value")
	}

	return catalogsvc.CreateBookInput{
		ISBN:     strings.TrimSpace(req.ISBN),
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		Category: category,
		Tags:     req.Tags,
		WeightKG: weight,
		Value:    value,
	}, nil
}
