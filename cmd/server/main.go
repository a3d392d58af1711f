package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/fitforge/internal/handler"
	"github.com/yourorg/fitforge/internal/infrastructure/logger"
	"github.com/yourorg/fitforge/internal/infrastructure/planner"
	"github.com/yourorg/fitforge/internal/infrastructure/redis"
	"github.com/yourorg/fitforge/internal/observability/metrics"
	"github.com/yourorg/fitforge/internal/observability/tracing"
	"github.com/yourorg/fitforge/internal/reliability/retry"
	"github.com/yourorg/fitforge/internal/repository"
	"github.com/yourorg/fitforge/internal/security/audit"
	"github.com/yourorg/fitforge/internal/security/auth"
	"github.com/yourorg/fitforge/internal/security/middleware"
	"github.com/yourorg/fitforge/internal/service"
	"github.com/yourorg/fitforge/internal/worker"
	"github.com/yourorg/fitforge/pkg/config"
	"github.com/yourorg/fitforge/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting FitForge server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "fitforge", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Connect to Postgres and Redis, retrying during startup
	startupRetry := retry.DefaultConfig()

	pool, err := retry.Do(ctx, startupRetry, log, "ConnectPostgres", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, log)
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient, err := retry.Do(ctx, startupRetry, log, "ConnectRedis", func(ctx context.Context) (*redis.Client, error) {
		return redis.NewClient(cfg.RedisURL)
	})
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	workoutRepo := repository.NewCachedWorkoutRepository(
		repository.NewPostgresWorkoutRepository(pool.GetDB(), log),
		redisClient,
		time.Duration(cfg.WorkoutCacheTTLSecs)*time.Second,
		log,
	)

	// 6. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	identityService := service.NewIdentityService(userRepo, tokenManager, cfg.BcryptCost, log)

	planGenerator := planner.NewClient(planner.Options{
		APIURL:       cfg.AIAPIURL,
		APIKey:       cfg.AIAPIKey,
		Model:        cfg.AIModel,
		MaxTokens:    cfg.AIMaxTokens,
		Temperature:  cfg.AITemperature,
		SystemPrompt: cfg.AISystemPrompt,
		Timeout:      time.Duration(cfg.AITimeoutSecs) * time.Second,
	}, log)
	workoutService := service.NewWorkoutService(workoutRepo, planGenerator, log)

	// 7. Initialize handlers
	auditLogger := audit.NewLogger(log)
	authHandler := handler.NewAuthHandler(identityService, auditLogger, log)
	workoutHandler := handler.NewWorkoutHandler(workoutService, auditLogger, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": handler.PingerFunc(pool.Health),
		"redis":    redisClient,
	})

	// 8. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/signin", authHandler.Signin)
	mux.HandleFunc("GET /auth/profile", authHandler.Profile)
	mux.HandleFunc("POST /workouts", workoutHandler.Create)
	mux.HandleFunc("GET /workouts", workoutHandler.List)
	mux.HandleFunc("GET /workouts/{id}", workoutHandler.Get)
	mux.HandleFunc("PATCH /workouts/{id}/progress", workoutHandler.UpdateProgress)
	mux.HandleFunc("DELETE /workouts/{id}", workoutHandler.Delete)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> content type -> JWT -> CORS -> mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.ValidateJSONContentType(log)(
				middleware.JWTMiddleware(tokenManager, log)(handlerWithCORS),
			),
		),
		log,
	)

	// 9. Start stats worker in background
	statsWorker := worker.NewStatsWorker(userRepo, workoutRepo, log,
		time.Duration(cfg.StatsIntervalMinutes)*time.Minute)
	go statsWorker.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "fitforge"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.String("ai_model", cfg.AIModel),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
