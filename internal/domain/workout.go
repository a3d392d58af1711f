package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlanStep is a single warmup or cooldown activity.
type PlanStep struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// PlanExercise is a main exercise with prescribed sets and reps.
type PlanExercise struct {
	Name         string `json:"name"`
	Sets         int    `json:"sets"`
	Reps         int    `json:"reps"`
	Rest         string `json:"rest"`
	Instructions string `json:"instructions,omitempty"`
}

// Plan is the AI-generated workout plan. It is produced wholesale by the
// generator and stored and returned verbatim.
type Plan struct {
	Warmup     []PlanStep     `json:"warmup"`
	Exercises  []PlanExercise `json:"exercises"`
	Cooldown   []PlanStep     `json:"cooldown"`
	Duration   int            `json:"duration"`
	Difficulty string         `json:"difficulty"`
}

// Value implements driver.Valuer so a Plan can be stored as jsonb.
func (p Plan) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb columns.
func (p *Plan) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("plan: cannot scan %T", src)
	}
	return json.Unmarshal(b, p)
}

// Document is a free-form JSON object, used for workout progress. Updates
// replace the document wholesale; callers resend fields they want retained.
type Document map[string]any

// Value implements driver.Valuer so a Document can be stored as jsonb.
// A nil Document is stored as the empty object, never as SQL NULL.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for jsonb columns.
func (d *Document) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("document: cannot scan %T", src)
	}
	return json.Unmarshal(b, d)
}

// Preferences describe what the caller wants out of a generated plan.
type Preferences struct {
	Difficulty string   `json:"difficulty"`
	Duration   int      `json:"duration"`
	Focus      []string `json:"focus"`
	Equipment  []string `json:"equipment"`
}

// Workout is a user-owned record holding a generated plan and its progress.
type Workout struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Plan        Plan
	Progress    Document
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkoutRepository defines data access for workouts. Every lookup, update
// and delete filters by (id, ownerID) jointly so a workout is invisible to
// anyone but its owner; both true absence and an ownership mismatch surface
// as ErrNotFound.
type WorkoutRepository interface {
	Create(ctx context.Context, w *Workout) error
	GetByID(ctx context.Context, id, ownerID string) (*Workout, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Workout, error)
	UpdateProgress(ctx context.Context, id, ownerID string, progress Document) (*Workout, error)
	Delete(ctx context.Context, id, ownerID string) error
	Count(ctx context.Context) (int, error)
}

// PlanGenerator is the external capability turning preferences into a plan.
// Implementations make a single best-effort call: success yields a
// structurally valid plan, any transport, status or parse defect surfaces as
// ErrPlanUnavailable. Nothing is retried, cached or streamed.
type PlanGenerator interface {
	Generate(ctx context.Context, prefs Preferences) (Plan, error)
}
