package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/observability/metrics"
)

// CreateWorkoutInput carries the caller-supplied fields for workout creation.
// The owner identity always comes from the verified token, never from the
// request body.
type CreateWorkoutInput struct {
	Name        string
	Description string
	Preferences domain.Preferences
}

// WorkoutService orchestrates plan generation and ownership-scoped workout
// CRUD.
type WorkoutService struct {
	workouts  domain.WorkoutRepository
	generator domain.PlanGenerator
	logger    *slog.Logger
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workouts domain.WorkoutRepository, generator domain.PlanGenerator, logger *slog.Logger) *WorkoutService {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkoutService{
		workouts:  workouts,
		generator: generator,
		logger:    logger,
	}
}

// Create generates a plan for the given preferences and persists a new
// workout owned by ownerID. If generation fails nothing is persisted.
func (s *WorkoutService) Create(ctx context.Context, ownerID string, input CreateWorkoutInput) (*domain.Workout, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	plan, err := s.generator.Generate(ctx, input.Preferences)
	if err != nil {
		s.logger.Warn("plan generation failed",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrPlanUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrPlanUnavailable, err)
	}

	workout := &domain.Workout{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Plan:        plan,
		Progress:    domain.Document{},
	}

	if err := s.workouts.Create(ctx, workout); err != nil {
		s.logger.Error("failed to persist workout",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}

	metrics.IncrementWorkoutsCreated()
	s.logger.Info("workout created",
		slog.String("workout_id", workout.ID),
		slog.String("owner_id", ownerID),
	)

	return workout, nil
}

// List returns the owner's workouts, most recent first. No workouts is an
// empty slice, not an error.
func (s *WorkoutService) List(ctx context.Context, ownerID string) ([]*domain.Workout, error) {
	workouts, err := s.workouts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	if workouts == nil {
		workouts = []*domain.Workout{}
	}
	return workouts, nil
}

// Get resolves a workout by (id, owner). A workout that does not exist and a
// workout owned by someone else both yield ErrNotFound.
func (s *WorkoutService) Get(ctx context.Context, id, ownerID string) (*domain.Workout, error) {
	workout, err := s.workouts.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return workout, nil
}

// UpdateProgress replaces the workout's progress document wholesale and
// returns the updated workout. Callers resend any fields they want retained.
func (s *WorkoutService) UpdateProgress(ctx context.Context, id, ownerID string, progress domain.Document) (*domain.Workout, error) {
	workout, err := s.workouts.UpdateProgress(ctx, id, ownerID, progress)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	return workout, nil
}

// Remove deletes the workout. A second delete of the same id yields
// ErrNotFound, which is the expected terminal state.
func (s *WorkoutService) Remove(ctx context.Context, id, ownerID string) error {
	if err := s.workouts.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete workout: %w", err)
	}

	s.logger.Info("workout deleted",
		slog.String("workout_id", id),
		slog.String("owner_id", ownerID),
	)
	return nil
}

func validateCreateInput(input CreateWorkoutInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	switch input.Preferences.Difficulty {
	case "beginner", "intermediate", "advanced":
	default:
		return fmt.Errorf("%w: difficulty must be beginner, intermediate or advanced", domain.ErrValidation)
	}

	if input.Preferences.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}
	if len(input.Preferences.Focus) == 0 {
		return fmt.Errorf("%w: at least one focus area is required", domain.ErrValidation)
	}

	return nil
}
