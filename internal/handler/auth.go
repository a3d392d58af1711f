package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/security/audit"
	"github.com/yourorg/fitforge/internal/security/middleware"
	"github.com/yourorg/fitforge/internal/service"
)

// IdentityService is the slice of the identity service the auth handler needs
type IdentityService interface {
	Register(ctx context.Context, email, password string) (*service.UserSummary, error)
	Login(ctx context.Context, email, password string) (*service.SessionToken, error)
	Profile(ctx context.Context, userID string) (*service.UserSummary, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	identity IdentityService
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity IdentityService, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		identity: identity,
		audit:    auditLog,
		logger:   logger,
	}
}

// CredentialsRequest represents signup and signin request bodies
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode signup request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	summary, err := h.identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("registration failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	if h.audit != nil {
		h.audit.LogRegistration(r.Context(), summary.ID, "success")
	}

	writeJSON(w, http.StatusCreated, summary)
}

// Signin handles POST /auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode signin request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// Generic message: never reveal whether the email exists.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("signin failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	writeJSON(w, http.StatusCreated, token)
}

// Profile handles GET /auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	summary, err := h.identity.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to load profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
