package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogWorkoutCreate(ctx context.Context, userID, status string) {
	al.LogAction(ctx, userID, "create", "workout", "", status)
}

func (al *Logger) LogWorkoutDelete(ctx context.Context, userID, workoutID, status string) {
	al.LogAction(ctx, userID, "delete", "workout", workoutID, status)
}

func (al *Logger) LogRegistration(ctx context.Context, userID, status string) {
	al.LogAction(ctx, userID, "register", "user", userID, status)
}
