package usecase

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidState          = errors.New("invalid state")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// StateError rejects an operation because of the session or pod lifecycle.
// RequiresForce tells admin callers that retrying with force would succeed.
type StateError struct {
	Message       string
	RequiresForce bool
}

func (e *StateError) Error() string { return e.Message }

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ConflictError rejects an operation that collides with existing state.
type ConflictError struct {
	Message           string
	ExistingSessionID string
	RecapPostedAt     *time.Time
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RosterError names the players that blocked a pod commit.
type RosterError struct {
	Message       string
	NotCheckedIn  []string
	AlreadyPlaced []string
}

func (e *RosterError) Error() string {
	switch {
	case len(e.NotCheckedIn) > 0:
		return e.Message + ": " + strings.Join(e.NotCheckedIn, ", ")
	case len(e.AlreadyPlaced) > 0:
		return e.Message + ": " + strings.Join(e.AlreadyPlaced, ", ")
	default:
		return e.Message
	}
}

func (e *RosterError) Unwrap() error {
	if len(e.AlreadyPlaced) > 0 {
		return ErrConflict
	}
	return ErrInvalidInput
}
