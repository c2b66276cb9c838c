package attendance

import (
	"strings"
	"time"
)

// Source records which path last changed an attendance record.
type Source string

const (
	SourceSelf         Source = "self"
	SourceAdmin        Source = "admin"
	SourceExternalPoll Source = "external-poll"
	SourceTest         Source = "test"
)

func ParseSource(value string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceSelf:
		return SourceSelf, true
	case SourceAdmin:
		return SourceAdmin, true
	case SourceExternalPoll:
		return SourceExternalPoll, true
	case SourceTest:
		return SourceTest, true
	default:
		return "", false
	}
}

// CanForce reports whether the source may override a locked session.
func (s Source) CanForce() bool {
	return s == SourceAdmin || s == SourceTest
}

// Outcome distinguishes the result of an idempotent check-in or check-out.
type Outcome string

const (
	OutcomeCheckedIn       Outcome = "checked_in"
	OutcomeReactivated     Outcome = "reactivated"
	OutcomeAlreadyActive   Outcome = "already_active"
	OutcomeCheckedOut      Outcome = "checked_out"
	OutcomeAlreadyInactive Outcome = "already_inactive"
)

// Created reports whether the outcome produced a brand new record.
func (o Outcome) Created() bool {
	return o == OutcomeCheckedIn
}

// Changed reports whether the outcome mutated stored state.
func (o Outcome) Changed() bool {
	return o == OutcomeCheckedIn || o == OutcomeReactivated || o == OutcomeCheckedOut
}

// Record is one player's presence at one session. At most one exists per (session, user).
type Record struct {
	SessionID    string
	UserID       string
	IsActive     bool
	UpdatedVia   Source
	CheckedInAt  time.Time
	CheckedOutAt *time.Time
	UpdatedAt    time.Time
}
