package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"crowdfund-advisor/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

type mockLimiter struct {
	allow bool
	keys  []string
}

func (m *mockLimiter) Allow(key string) bool {
	m.keys = append(m.keys, key)
	return m.allow
}

func TestUserServiceCreateUser_HashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, nil)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:       "  User@Example.COM ",
		DisplayName: " Ana ",
		Password:    "supersecret",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "user@example.com" || user.DisplayName != "Ana" {
		t.Fatalf("unexpected normalization: %+v", user)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %q", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")); err != nil {
		t.Fatalf("expected bcrypt hash of password: %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("expected user stored, got %v", err)
	}
}

func TestUserServiceCreateUser_AdminEmail(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo(), []string{" Admin@Example.com"})

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "admin@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !user.IsAdmin() {
		t.Fatalf("expected admin role, got %q", user.Role)
	}
}

func TestUserServiceCreateUser_Validation(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "not-an-email", Password: "password1"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "a@b.co", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "a@b.co", Password: "password1"}); err != nil {
		t.Fatalf("expected first registration to succeed, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Email: "A@B.co", Password: "password1"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserInput{Email: "user@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, err := svc.Authenticate(ctx, "USER@example.com", "password1")
	if err != nil || user.ID != created.ID {
		t.Fatalf("expected authentication success, got %+v err=%v", user, err)
	}
	if _, err := svc.Authenticate(ctx, "user@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "missing@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceGetByID_NotFound(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo(), nil)
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
