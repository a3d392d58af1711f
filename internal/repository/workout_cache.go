package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/infrastructure/redis"
)

// Cache is the subset of the Redis client the decorator needs. A miss is
// reported as redis.Nil.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedWorkoutRepository decorates a WorkoutRepository with a Redis-backed
// cache of per-owner workout lists. Every write invalidates the owner's key,
// so cached reads never outlive a mutation. Cache failures degrade to the
// underlying repository, never to a request failure.
type CachedWorkoutRepository struct {
	inner  domain.WorkoutRepository
	redis  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedWorkoutRepository wraps repo with a list cache
func NewCachedWorkoutRepository(inner domain.WorkoutRepository, redisClient Cache, ttl time.Duration, logger *slog.Logger) *CachedWorkoutRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedWorkoutRepository{
		inner:  inner,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func listKey(ownerID string) string {
	return "workouts:" + ownerID
}

// Create stores the workout and invalidates the owner's list
func (r *CachedWorkoutRepository) Create(ctx context.Context, w *domain.Workout) error {
	if err := r.inner.Create(ctx, w); err != nil {
		return err
	}
	r.invalidate(ctx, w.OwnerID)
	return nil
}

// GetByID is served from the source of truth
func (r *CachedWorkoutRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.Workout, error) {
	return r.inner.GetByID(ctx, id, ownerID)
}

// ListByOwner serves from cache when warm, otherwise fills it
func (r *CachedWorkoutRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Workout, error) {
	key := listKey(ownerID)

	cached, err := r.redis.Get(ctx, key)
	if err == nil {
		var workouts []*domain.Workout
		if err := json.Unmarshal([]byte(cached), &workouts); err == nil {
			return workouts, nil
		}
		// Unreadable entry: drop it and fall through to the database.
		r.invalidate(ctx, ownerID)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("workout cache read failed",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}

	workouts, err := r.inner.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(workouts); err == nil {
		if err := r.redis.Set(ctx, key, string(data), r.ttl); err != nil {
			r.logger.Warn("workout cache write failed",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
		}
	}

	return workouts, nil
}

// UpdateProgress writes through and invalidates the owner's list
func (r *CachedWorkoutRepository) UpdateProgress(ctx context.Context, id, ownerID string, progress domain.Document) (*domain.Workout, error) {
	w, err := r.inner.UpdateProgress(ctx, id, ownerID, progress)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, ownerID)
	return w, nil
}

// Delete writes through and invalidates the owner's list
func (r *CachedWorkoutRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.inner.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	r.invalidate(ctx, ownerID)
	return nil
}

// Count is served from the source of truth
func (r *CachedWorkoutRepository) Count(ctx context.Context) (int, error) {
	return r.inner.Count(ctx)
}

func (r *CachedWorkoutRepository) invalidate(ctx context.Context, ownerID string) {
	if err := r.redis.Delete(ctx, listKey(ownerID)); err != nil {
		r.logger.Warn("workout cache invalidation failed",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}
}
