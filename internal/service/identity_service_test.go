package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/security/auth"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	if u.ID == "" {
		m.nextID++
		u.ID = "u-" + u.Email
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Count(_ context.Context) (int, error) {
	return len(m.byID), nil
}

func newTestIdentityService() (*IdentityService, *memUserRepo) {
	repo := newMemUserRepo()
	tm := auth.NewTokenManager("test-secret", "fitforge", time.Hour)
	// Minimum bcrypt cost keeps the tests fast.
	return NewIdentityService(repo, tm, 4, nil), repo
}

func TestRegisterAndDuplicate(t *testing.T) {
	s, repo := newTestIdentityService()
	ctx := context.Background()

	summary, err := s.Register(ctx, "u@x.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if summary.ID == "" {
		t.Fatalf("expected a user id")
	}
	if summary.Tier != domain.TierStandard {
		t.Fatalf("expected standard tier, got %s", summary.Tier)
	}

	// Registering the same email again fails and adds no record.
	if _, err := s.Register(ctx, "u@x.com", "password123"); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if count, _ := repo.Count(ctx); count != 1 {
		t.Fatalf("expected exactly one user record, got %d", count)
	}
}

func TestRegisterSummaryOmitsHash(t *testing.T) {
	s, repo := newTestIdentityService()
	ctx := context.Background()

	summary, err := s.Register(ctx, "u@x.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	stored := repo.byID[summary.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "password123" {
		t.Fatalf("expected stored password to be hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestIdentityService()
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "password123"},
		{"short password", "u@x.com", "short"},
		{"long password", "u@x.com", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}

	for _, tc := range cases {
		if _, err := s.Register(ctx, tc.email, tc.password); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestLoginAndVerifyRoundTrip(t *testing.T) {
	s, _ := newTestIdentityService()
	ctx := context.Background()

	summary, err := s.Register(ctx, "u@x.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := s.Login(ctx, "u@x.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token.Token == "" || token.TokenType != "Bearer" {
		t.Fatalf("unexpected session token: %+v", token)
	}

	userID, err := s.Verify(token.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != summary.ID {
		t.Fatalf("verify resolved %s, expected %s", userID, summary.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s, _ := newTestIdentityService()
	ctx := context.Background()

	if _, err := s.Register(ctx, "u@x.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, wrongPassword := s.Login(ctx, "u@x.com", "wrongpassword")
	_, unknownEmail := s.Login(ctx, "nobody@x.com", "password123")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	s, _ := newTestIdentityService()

	if _, err := s.Verify("garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	otherTM := auth.NewTokenManager("other-secret", "fitforge", time.Hour)
	forged, err := otherTM.GenerateToken("user-1", "u@x.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := s.Verify(forged); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged token, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	s, _ := newTestIdentityService()
	ctx := context.Background()

	summary, err := s.Register(ctx, "u@x.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, err := s.Profile(ctx, summary.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.Email != "u@x.com" || profile.Tier != domain.TierStandard {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := s.Profile(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
