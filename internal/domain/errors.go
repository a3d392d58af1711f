package domain

import "errors"

// Sentinel errors forming the service-level taxonomy. Collaborator failures
// are wrapped into exactly one of these before crossing a service boundary.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrPlanUnavailable    = errors.New("workout plan generation unavailable")
	ErrValidation         = errors.New("validation failed")
)
