package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitforge_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	planGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitforge_plan_generation_duration_seconds",
		Help:    "Duration of workout plan generation calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	workoutsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitforge_workouts_created_total",
		Help: "Count of workouts created",
	})

	storedWorkouts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fitforge_stored_workouts",
		Help: "Number of workout records currently stored",
	})

	registeredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fitforge_registered_users",
		Help: "Number of registered user accounts",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObservePlanGeneration records the duration of a generation attempt with a result label.
func ObservePlanGeneration(result string, duration time.Duration) {
	planGenerationDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncrementWorkoutsCreated bumps the creation counter.
func IncrementWorkoutsCreated() {
	workoutsCreated.Inc()
}

// SetStoredWorkouts sets the stored-workout gauge.
func SetStoredWorkouts(count int) {
	if count < 0 {
		count = 0
	}
	storedWorkouts.Set(float64(count))
}

// SetRegisteredUsers sets the registered-user gauge.
func SetRegisteredUsers(count int) {
	if count < 0 {
		count = 0
	}
	registeredUsers.Set(float64(count))
}
