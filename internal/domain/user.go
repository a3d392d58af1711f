package domain

import (
	"context"
	"time"
)

// Subscription tiers. Tier changes are administrative and have no API surface.
const (
	TierStandard = "standard"
	TierElevated = "elevated"
)

// User represents a registered account
type User struct {
	ID           string // UUID
	Email        string // Unique email address, case-sensitive as stored
	PasswordHash string // Bcrypt hash, never serialized outward
	Tier         string // TierStandard or TierElevated
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int, error)
}
