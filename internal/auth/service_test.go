package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	pkgAuth "github.com/bookhavenhq/bookhaven-backend/pkg/auth"
	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/enums"
	pkgerrors "github.com/bookhavenhq/bookhaven-backend/pkg/errors"
	"github.com/bookhavenhq/bookhaven-backend/pkg/security"
)

type fakeUserRepo struct {
	createFn      func(ctx context.Context, user *models.User) error
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	created       []models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, user); err != nil {
			return err
		}
	}
	user.ID = uuid.New()
	f.created = append(f.created, *user)
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-key-0123456789abcdef",
		Issuer:            "bookhaven-test",
		ExpirationMinutes: 15,
	}
}

func testAuthService(t *testing.T, repo *fakeUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seededUser(t *testing.T, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test Member",
		PasswordHash: hash,
		Role:         role,
	}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	user := seededUser(t, "reader@example.com", "correct horse battery", enums.UserRoleMember)
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email != user.Email {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return user, nil
		},
	}
	svc := testAuthService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Reader@Example.com ",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user id = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != enums.UserRoleMember {
		t.Fatalf("token role = %s, want member", claims.Role)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("response user mismatch")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := seededUser(t, "reader@example.com", "correct horse battery", enums.UserRoleMember)
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := testAuthService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong password entirely",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginHidesUnknownAccounts(t *testing.T) {
	svc := testAuthService(t, &fakeUserRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unknown account must look like bad credentials, got %v", err)
	}
}

func TestRegisterCreatesMemberWithHashedPassword(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := testAuthService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New.Reader@Example.com",
		FullName: "  New Reader  ",
		Password: "a long enough password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != enums.UserRoleMember {
		t.Fatalf("new accounts must be members, got %s", resp.User.Role)
	}
	if resp.User.Email != "new.reader@example.com" {
		t.Fatalf("email not normalized: %s", resp.User.Email)
	}

	stored := repo.created[0]
	if stored.PasswordHash == "a long enough password" {
		t.Fatalf("password stored in the clear")
	}
	ok, err := security.VerifyPassword("a long enough password", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterSurfacesDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(ctx context.Context, user *models.User) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		},
	}
	svc := testAuthService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "reader@example.com",
		FullName: "Reader",
		Password: "a long enough password",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
