package service

import (
	"errors"
	"fmt"

	"inventra-server/internal/store"
)

// ErrInsufficientStock rejects a transfer larger than the source balance
var ErrInsufficientStock = errors.New("insufficient stock at source location")

// ErrForbidden rejects a caller whose role is below the required level
var ErrForbidden = errors.New("forbidden")

// ValidationError reports a field-level input problem, rejected before any
// mutation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// LimitExceededError reports a usage-gate rejection; callers surface it with
// a distinct status so the client can prompt a plan upgrade
type LimitExceededError struct {
	Key     string
	Plan    string
	Limit   int
	Current int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("plan limit reached (%s: %d %s)", e.Plan, e.Limit, e.Key)
}

// FeatureUnavailableError reports a boolean plan feature the tenant's tier
// does not include; callers surface it like a limit rejection so the client
// can prompt a plan upgrade
type FeatureUnavailableError struct {
	Key  string
	Plan string
}

func (e *FeatureUnavailableError) Error() string {
	return fmt.Sprintf("feature %s is not available on the %s plan", e.Key, e.Plan)
}

// ConflictError reports an invalid state transition (e.g. approving an order
// that already left pending)
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
