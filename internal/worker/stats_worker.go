package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/observability/metrics"
)

// StatsWorker periodically refreshes the stored-record gauges from the
// database. Observability only; it never writes domain state.
type StatsWorker struct {
	users    domain.UserRepository
	workouts domain.WorkoutRepository
	logger   *slog.Logger
	interval time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(users domain.UserRepository, workouts domain.WorkoutRepository, logger *slog.Logger, interval time.Duration) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsWorker{
		users:    users,
		workouts: workouts,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the stats loop and blocks until the context is cancelled
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	if count, err := w.users.Count(ctx); err != nil {
		w.logger.Error("failed to count users", slog.String("error", err.Error()))
	} else {
		metrics.SetRegisteredUsers(count)
	}

	if count, err := w.workouts.Count(ctx); err != nil {
		w.logger.Error("failed to count workouts", slog.String("error", err.Error()))
	} else {
		metrics.SetStoredWorkouts(count)
	}
}
