package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 32
)

// UserSummary is the outward projection of a user. It never carries the
// password hash.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionToken is a minted bearer credential
type SessionToken struct {
	Token     string    `json:"accessToken"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IdentityService registers and authenticates users and mints session tokens
type IdentityService struct {
	users      domain.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *slog.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(users domain.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost <= 0 {
		bcryptCost = 10
	}

	return &IdentityService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new user account with the default tier. Input is
// re-validated here even though the HTTP layer validates first.
func (s *IdentityService) Register(ctx context.Context, email, password string) (*UserSummary, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	// Check-then-insert is racy; the unique constraint in the store is the
	// backstop and also maps to ErrDuplicateEmail.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Tier:         domain.TierStandard,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return summarize(user), nil
}

// Login authenticates a user and mints a session token. A missing account
// and a wrong password are indistinguishable to the caller.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*SessionToken, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt for unknown email")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &SessionToken{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
	}, nil
}

// Verify validates a token and resolves the subject's user id. Expired,
// malformed and badly signed tokens all collapse to ErrInvalidToken.
func (s *IdentityService) Verify(token string) (string, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	return claims.UserID, nil
}

// Profile re-resolves the live user for the given identity
func (s *IdentityService) Profile(ctx context.Context, userID string) (*UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return summarize(user), nil
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return fmt.Errorf("%w: password must be between %d and %d characters",
			domain.ErrValidation, passwordMinLen, passwordMaxLen)
	}
	return nil
}

func summarize(user *domain.User) *UserSummary {
	return &UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Tier:      user.Tier,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
