package address

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

type fakeRepository struct {
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.Address, error)
	created       []models.Address
	updated       []models.Address
	deleted       []uuid.UUID
	defaultsWiped []uuid.UUID
}

func (f *fakeRepository) Create(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	f.created = append(f.created, *address)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, errors.New(errors.CodeNotFound, "address not found")
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, address *models.Address) error {
	f.updated = append(f.updated, *address)
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	f.defaultsWiped = append(f.defaultsWiped, userID)
	return nil
}

func validInput() Input {
	return Input{
		Label:      "Home",
		Line1:      "12 Library Lane",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62704",
	}
}

func TestCreateNormalizesAndStores(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	input := validInput()
	input.Country = "us"
	address, err := svc.Create(context.Background(), uuid.New(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if address.Country != "US" {
		t.Fatalf("country not normalized: %s", address.Country)
	}
	if len(repo.defaultsWiped) != 0 {
		t.Fatalf("non-default create should not touch other defaults")
	}
}

func TestCreateDefaultDisplacesPreviousDefault(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)
	userID := uuid.New()

	input := validInput()
	input.IsDefault = true
	if _, err := svc.Create(context.Background(), userID, input); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(repo.defaultsWiped) != 1 || repo.defaultsWiped[0] != userID {
		t.Fatalf("previous default not cleared")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	input := validInput()
	input.Line1 = "   "
	_, err := svc.Create(context.Background(), uuid.New(), input)
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRejectsForeignAddress(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	stored := &models.Address{ID: uuid.New(), UserID: owner, Label: "Home"}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Address, error) {
			return stored, nil
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.Update(context.Background(), stranger, stored.ID, validInput())
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("foreign address must read as not found, got %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatalf("no update should be written")
	}
}

func TestDeleteOwnedAddress(t *testing.T) {
	owner := uuid.New()
	stored := &models.Address{ID: uuid.New(), UserID: owner}
	repo := &fakeRepository{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Address, error) {
			return stored, nil
		},
	}
	svc, _ := NewService(repo)

	if err := svc.Delete(context.Background(), owner, stored.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != stored.ID {
		t.Fatalf("delete not forwarded to repository")
	}
}
