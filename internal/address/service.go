package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// Input carries the mutable fields of a member address.
type Input struct {
	Label      string  `json:"label" validate:"required,max=60"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
	IsDefault  bool    `json:"is_default"`
}

// Service manages the postal addresses members receive notices at.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires an address service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	address, err := fromInput(input)
	if err != nil {
		return nil, err
	}
	address.UserID = userID

	if address.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	existing, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	updated, err := fromInput(input)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt

	if updated.IsDefault && !existing.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, addressID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, addressID)
}

// owned loads the address and verifies it belongs to the caller. A foreign
// address reads as not found rather than forbidden.
func (s *service) owned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id and address id are required")
	}
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, errors.New(errors.CodeNotFound, "address not found")
	}
	return address, nil
}

func fromInput(input Input) (*models.Address, error) {
	label := strings.TrimSpace(input.Label)
	line1 := strings.TrimSpace(input.Line1)
	city := strings.TrimSpace(input.City)
	state := strings.TrimSpace(input.State)
	postal := strings.TrimSpace(input.PostalCode)
	if label == "" || line1 == "" || city == "" || state == "" || postal == "" {
		return nil, errors.New(errors.CodeValidation, "label, line1, city, state and postal code are required")
	}
	country := strings.ToUpper(strings.TrimSpace(input.Country))
	if country == "" {
		country = "US"
	}
	return &models.Address{
		Label:      label,
		Line1:      line1,
		Line2:      input.Line2,
		City:       city,
		State:      state,
		PostalCode: postal,
		Country:    country,
		IsDefault:  input.IsDefault,
	}, nil
}
