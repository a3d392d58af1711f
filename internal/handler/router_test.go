package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/security/auth"
	"github.com/yourorg/fitforge/internal/security/middleware"
	"github.com/yourorg/fitforge/internal/service"
)

// The tests below run the full request path: router, JWT middleware, handlers
// and real services over in-memory stores. Only the AI call is faked.

type memUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
	seq     int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	if u.ID == "" {
		s.seq++
		u.ID = "user-" + u.Email
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

type memWorkoutStore struct {
	mu   sync.Mutex
	byID map[string]*domain.Workout
	seq  int
}

func newMemWorkoutStore() *memWorkoutStore {
	return &memWorkoutStore{byID: map[string]*domain.Workout{}}
}

func (s *memWorkoutStore) Create(_ context.Context, w *domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if w.ID == "" {
		w.ID = "w-" + w.OwnerID
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	s.byID[w.ID] = &cp
	return nil
}

func (s *memWorkoutStore) GetByID(_ context.Context, id, ownerID string) (*domain.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok || w.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *memWorkoutStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Workout{}
	for _, w := range s.byID {
		if w.OwnerID == ownerID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memWorkoutStore) UpdateProgress(_ context.Context, id, ownerID string, progress domain.Document) (*domain.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok || w.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	w.Progress = progress
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (s *memWorkoutStore) Delete(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok || w.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memWorkoutStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, prefs domain.Preferences) (domain.Plan, error) {
	return domain.Plan{
		Warmup:     []domain.PlanStep{{Name: "jumping jacks", Duration: "5 minutes"}},
		Exercises:  []domain.PlanExercise{{Name: "squats", Sets: 3, Reps: 12, Rest: "60s"}},
		Cooldown:   []domain.PlanStep{{Name: "stretching", Duration: "5 minutes"}},
		Duration:   prefs.Duration,
		Difficulty: prefs.Difficulty,
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokenManager := auth.NewTokenManager("router-test-secret", "fitforge", time.Hour)
	identity := service.NewIdentityService(newMemUserStore(), tokenManager, 4, log)
	workouts := service.NewWorkoutService(newMemWorkoutStore(), stubGenerator{}, log)

	authHandler := NewAuthHandler(identity, nil, log)
	workoutHandler := NewWorkoutHandler(workouts, nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/signin", authHandler.Signin)
	mux.HandleFunc("GET /auth/profile", authHandler.Profile)
	mux.HandleFunc("POST /workouts", workoutHandler.Create)
	mux.HandleFunc("GET /workouts", workoutHandler.List)
	mux.HandleFunc("GET /workouts/{id}", workoutHandler.Get)
	mux.HandleFunc("PATCH /workouts/{id}/progress", workoutHandler.UpdateProgress)
	mux.HandleFunc("DELETE /workouts/{id}", workoutHandler.Delete)

	return middleware.JWTMiddleware(tokenManager, log)(mux)
}

func do(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFullUserJourney(t *testing.T) {
	router := newTestRouter(t)
	creds := `{"email":"journey@x.com","password":"password123"}`

	// Sign up.
	rec := do(t, router, http.MethodPost, "/auth/signup", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same email again is a conflict.
	rec = do(t, router, http.MethodPost, "/auth/signup", "", creds)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rec.Code)
	}

	// Wrong password is rejected.
	rec = do(t, router, http.MethodPost, "/auth/signin", "", `{"email":"journey@x.com","password":"wrongpassword"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signin: expected 401, got %d", rec.Code)
	}

	// Correct password yields a token.
	rec = do(t, router, http.MethodPost, "/auth/signin", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signin: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var session struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.AccessToken == "" {
		t.Fatalf("signin returned no token: %s", rec.Body.String())
	}
	token := session.AccessToken

	// Create a workout; the response carries a generated plan.
	rec = do(t, router, http.MethodPost, "/workouts", token,
		`{"name":"Journey","preferences":{"difficulty":"beginner","duration":30,"focus":["strength"]}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create workout: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID   string `json:"id"`
		Plan struct {
			Exercises []struct {
				Name string `json:"name"`
			} `json:"exercises"`
		} `json:"plan"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	if created.ID == "" || len(created.Plan.Exercises) == 0 {
		t.Fatalf("expected workout with a non-empty plan, got %s", rec.Body.String())
	}

	// Delete it.
	rec = do(t, router, http.MethodDelete, "/workouts/"+created.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	// Fetching it afterwards is a 404.
	rec = do(t, router, http.MethodGet, "/workouts/"+created.ID, token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/auth/profile"},
		{http.MethodPost, "/workouts"},
		{http.MethodGet, "/workouts"},
		{http.MethodGet, "/workouts/some-id"},
		{http.MethodPatch, "/workouts/some-id/progress"},
		{http.MethodDelete, "/workouts/some-id"},
	}

	for _, tc := range cases {
		rec := do(t, router, tc.method, tc.target, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", tc.method, tc.target, rec.Code)
		}

		rec = do(t, router, tc.method, tc.target, "not-a-real-token", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 with bad token, got %d", tc.method, tc.target, rec.Code)
		}
	}
}

func TestTokensDoNotCrossUsers(t *testing.T) {
	router := newTestRouter(t)

	signupAndSignin := func(email string) string {
		creds := `{"email":"` + email + `","password":"password123"}`
		if rec := do(t, router, http.MethodPost, "/auth/signup", "", creds); rec.Code != http.StatusCreated {
			t.Fatalf("signup %s: got %d", email, rec.Code)
		}
		rec := do(t, router, http.MethodPost, "/auth/signin", "", creds)
		var session struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.AccessToken == "" {
			t.Fatalf("signin %s returned no token", email)
		}
		return session.AccessToken
	}

	tokenA := signupAndSignin("a@x.com")
	tokenB := signupAndSignin("b@x.com")

	rec := do(t, router, http.MethodPost, "/workouts", tokenA,
		`{"name":"A's workout","preferences":{"difficulty":"beginner","duration":30,"focus":["strength"]}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}

	// B cannot see, modify or delete A's workout. Always 404, never 403.
	if rec := do(t, router, http.MethodGet, "/workouts/"+created.ID, tokenB, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user get: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPatch, "/workouts/"+created.ID+"/progress", tokenB, `{"done":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user patch: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/workouts/"+created.ID, tokenB, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete: expected 404, got %d", rec.Code)
	}

	// B's list stays empty and A still owns the workout.
	rec = do(t, router, http.MethodGet, "/workouts", tokenB, "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty list for B, got %s", got)
	}
	if rec := do(t, router, http.MethodGet, "/workouts/"+created.ID, tokenA, ""); rec.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", rec.Code)
	}
}
