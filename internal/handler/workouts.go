package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/security/audit"
	"github.com/yourorg/fitforge/internal/security/middleware"
	"github.com/yourorg/fitforge/internal/service"
)

// WorkoutService is the slice of the workout service the handler needs
type WorkoutService interface {
	Create(ctx context.Context, ownerID string, input service.CreateWorkoutInput) (*domain.Workout, error)
	List(ctx context.Context, ownerID string) ([]*domain.Workout, error)
	Get(ctx context.Context, id, ownerID string) (*domain.Workout, error)
	UpdateProgress(ctx context.Context, id, ownerID string, progress domain.Document) (*domain.Workout, error)
	Remove(ctx context.Context, id, ownerID string) error
}

// WorkoutHandler handles workout endpoints. The owner identity for every
// operation comes from the verified token in the request context, never from
// the request body or path.
type WorkoutHandler struct {
	workouts WorkoutService
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workouts WorkoutService, auditLog *audit.Logger, logger *slog.Logger) *WorkoutHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkoutHandler{
		workouts: workouts,
		audit:    auditLog,
		logger:   logger,
	}
}

// CreateWorkoutRequest represents a workout creation request
type CreateWorkoutRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Preferences domain.Preferences `json:"preferences"`
}

// WorkoutResponse is the outward projection of a workout. The owner id is
// implied by the caller's token and never echoed back.
type WorkoutResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Plan        domain.Plan     `json:"plan"`
	Progress    domain.Document `json:"progress"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Plan:        w.Plan,
		Progress:    w.Progress,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// Create handles POST /workouts
func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode create workout request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	workout, err := h.workouts.Create(r.Context(), ownerID, service.CreateWorkoutInput{
		Name:        req.Name,
		Description: req.Description,
		Preferences: req.Preferences,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrPlanUnavailable):
			if h.audit != nil {
				h.audit.LogWorkoutCreate(r.Context(), ownerID, "generation_failed")
			}
			writeError(w, http.StatusServiceUnavailable, "workout plan generation unavailable")
		default:
			h.logger.Error("failed to create workout", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to create workout")
		}
		return
	}

	if h.audit != nil {
		h.audit.LogWorkoutCreate(r.Context(), ownerID, "success")
	}

	writeJSON(w, http.StatusCreated, toResponse(workout))
}

// List handles GET /workouts
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	workouts, err := h.workouts.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list workouts", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list workouts")
		return
	}

	resp := make([]WorkoutResponse, 0, len(workouts))
	for _, workout := range workouts {
		resp = append(resp, toResponse(workout))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /workouts/{id}
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	workout, err := h.workouts.Get(r.Context(), r.PathValue("id"), ownerID)
	if err != nil {
		h.respondNotFoundOrError(w, err, "failed to get workout")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(workout))
}

// UpdateProgress handles PATCH /workouts/{id}/progress
func (h *WorkoutHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var progress domain.Document
	if err := json.NewDecoder(r.Body).Decode(&progress); err != nil {
		h.logger.Warn("failed to decode progress patch", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	workout, err := h.workouts.UpdateProgress(r.Context(), r.PathValue("id"), ownerID, progress)
	if err != nil {
		h.respondNotFoundOrError(w, err, "failed to update progress")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(workout))
}

// Delete handles DELETE /workouts/{id}
func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.workouts.Remove(r.Context(), id, ownerID); err != nil {
		if h.audit != nil {
			h.audit.LogWorkoutDelete(r.Context(), ownerID, id, "not_found")
		}
		h.respondNotFoundOrError(w, err, "failed to delete workout")
		return
	}

	if h.audit != nil {
		h.audit.LogWorkoutDelete(r.Context(), ownerID, id, "success")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "workout deleted"})
}

func (h *WorkoutHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := middleware.GetUserIDFromContext(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	return ownerID, true
}

// respondNotFoundOrError maps ErrNotFound to 404 and anything else to 500.
// Ownership mismatches arrive here as ErrNotFound already, so the two cases
// are indistinguishable on the wire.
func (h *WorkoutHandler) respondNotFoundOrError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workout not found")
		return
	}
	h.logger.Error(logMsg, slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, logMsg)
}
