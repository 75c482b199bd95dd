// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyAwarded  = errors.New("already awarded")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "scoring", "challenge", "profile"
	Op      string // Operation that failed, e.g., "LogActivity", "Activate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Scoring domain errors
var (
	ErrActionNotFound    = NewDomainError("scoring", "FindAction", ErrNotFound, "action definition not found")
	ErrActionInactive    = NewDomainError("scoring", "CalculatePoints", ErrInvalidState, "action definition is not active")
	ErrInvalidQuantity   = NewDomainError("scoring", "CalculatePoints", ErrValidation, "quantity must be greater than zero")
	ErrInvalidBasePoints = NewDomainError("scoring", "UpdateBasePoints", ErrValidation, "base points must be greater than zero")
	ErrActivityNotFound  = NewDomainError("scoring", "FindActivity", ErrNotFound, "activity entry not found")
)

// Challenge domain errors
var (
	ErrChallengeNotFound     = NewDomainError("challenge", "Find", ErrNotFound, "challenge not found")
	ErrChallengeNotDraft     = NewDomainError("challenge", "Activate", ErrStateTransition, "only draft challenges can be activated")
	ErrChallengeNotActive    = NewDomainError("challenge", "Close", ErrStateTransition, "only active challenges can be closed")
	ErrInvalidGoalValue      = NewDomainError("challenge", "Create", ErrValidation, "goal value must be greater than zero")
	ErrInvalidPeriod         = NewDomainError("challenge", "Create", ErrValidation, "end date must not be before start date")
	ErrGoalNotReached        = NewDomainError("challenge", "AwardBonus", ErrInvalidState, "bonus requires a reached goal")
	ErrBonusAlreadyAwarded   = NewDomainError("challenge", "AwardBonus", ErrAlreadyAwarded, "bonus has already been awarded")
	ErrParticipationNotFound = NewDomainError("challenge", "FindParticipation", ErrNotFound, "challenge participation not found")
)

// Profile domain errors
var (
	ErrEcoUserNotFound   = NewDomainError("profile", "Find", ErrNotFound, "eco user not found")
	ErrEcoUserExists     = NewDomainError("profile", "Create", ErrAlreadyExists, "eco user already exists for this user")
	ErrMilestoneNotFound = NewDomainError("profile", "FindMilestone", ErrNotFound, "milestone not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidState checks if the error is a state/transition error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrAlreadyAwarded)
}

// IsConflict checks if the error is a concurrency conflict worth retrying.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}
