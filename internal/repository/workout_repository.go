package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/fitforge/internal/domain"
)

// PostgresWorkoutRepository implements domain.WorkoutRepository using
// PostgreSQL. Every lookup, update and delete filters by (id, owner_id)
// jointly; absence and ownership mismatch are indistinguishable by design.
type PostgresWorkoutRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresWorkoutRepository creates a new workout repository
func NewPostgresWorkoutRepository(db *sql.DB, logger *slog.Logger) *PostgresWorkoutRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWorkoutRepository{
		db:     db,
		logger: logger,
	}
}

const workoutColumns = `id, owner_id, name, description, plan, progress, created_at, updated_at`

// Create inserts a new workout
func (r *PostgresWorkoutRepository) Create(ctx context.Context, w *domain.Workout) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Progress == nil {
		w.Progress = domain.Document{}
	}

	query := `
		INSERT INTO workouts (id, owner_id, name, description, plan, progress)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		w.ID,
		w.OwnerID,
		w.Name,
		nullableString(w.Description),
		w.Plan,
		w.Progress,
	).Scan(&w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create workout",
			slog.String("owner_id", w.OwnerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create workout: %w", err)
	}

	return nil
}

// GetByID retrieves a workout by (id, ownerID)
func (r *PostgresWorkoutRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.Workout, error) {
	query := `
		SELECT ` + workoutColumns + `
		FROM workouts
		WHERE id = $1 AND owner_id = $2
	`

	w, err := scanWorkout(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get workout",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}

	return w, nil
}

// ListByOwner lists all workouts for an owner, most recent first
func (r *PostgresWorkoutRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Workout, error) {
	query := `
		SELECT ` + workoutColumns + `
		FROM workouts
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("failed to list workouts",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	workouts := []*domain.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}

	return workouts, rows.Err()
}

// UpdateProgress replaces the progress document wholesale for the workout
// identified by (id, ownerID) and returns the updated row. Concurrent updates
// are last-writer-wins; there is no version check.
func (r *PostgresWorkoutRepository) UpdateProgress(ctx context.Context, id, ownerID string, progress domain.Document) (*domain.Workout, error) {
	if progress == nil {
		progress = domain.Document{}
	}

	query := `
		UPDATE workouts
		SET progress = $1, updated_at = now()
		WHERE id = $2 AND owner_id = $3
		RETURNING ` + workoutColumns + `
	`

	w, err := scanWorkout(r.db.QueryRowContext(ctx, query, progress, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to update workout progress",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update workout progress: %w", err)
	}

	return w, nil
}

// Delete removes the workout identified by (id, ownerID)
func (r *PostgresWorkoutRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM workouts
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Count returns the number of stored workouts
func (r *PostgresWorkoutRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*domain.Workout, error) {
	w := &domain.Workout{}
	var description sql.NullString

	err := row.Scan(
		&w.ID,
		&w.OwnerID,
		&w.Name,
		&description,
		&w.Plan,
		&w.Progress,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Description = description.String
	return w, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
