package session

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidTransition = errors.New("invalid session transition")

type Action string

const (
	ActionActivate Action = "activate"
	ActionLock     Action = "lock"
	ActionReopen   Action = "reopen"
	ActionComplete Action = "complete"
)

// TransitionError describes a rejected lifecycle change.
type TransitionError struct {
	From    Status
	Action  Action
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ActionFor maps a requested target status onto the lifecycle action that reaches it.
func ActionFor(target Status) (Action, error) {
	switch target {
	case StatusActive:
		return ActionActivate, nil
	case StatusLocked:
		return ActionLock, nil
	case StatusCompleted:
		return ActionComplete, nil
	case StatusScheduled:
		return "", &TransitionError{Message: "Sessions cannot be moved back to scheduled"}
	default:
		return "", &TransitionError{Message: fmt.Sprintf("Unknown session status %q", target)}
	}
}

// Next applies action to current and returns the resulting status.
// Locking an already locked session and activating an active one are no-ops.
func Next(current Status, action Action) (Status, error) {
	switch action {
	case ActionActivate:
		if current == StatusScheduled || current == StatusActive {
			return StatusActive, nil
		}
	case ActionLock:
		switch current {
		case StatusCompleted:
			return "", &TransitionError{From: current, Action: action, Message: "Cannot lock a completed session"}
		case StatusScheduled, StatusActive, StatusLocked:
			return StatusLocked, nil
		}
	case ActionReopen:
		if current == StatusLocked {
			return StatusActive, nil
		}
		return "", &TransitionError{From: current, Action: action, Message: "Session is not locked"}
	case ActionComplete:
		if current == StatusLocked || current == StatusActive {
			return StatusCompleted, nil
		}
	}

	return "", &TransitionError{
		From:    current,
		Action:  action,
		Message: fmt.Sprintf("Cannot %s a session that is %s", action, current),
	}
}

// AcceptsSelfService reports whether players may still change their own attendance.
func (s Status) AcceptsSelfService() bool {
	return s == StatusScheduled || s == StatusActive
}

func currentRank(status Status) int {
	switch status {
	case StatusActive:
		return 0
	case StatusLocked:
		return 1
	case StatusScheduled:
		return 2
	default:
		return 3
	}
}

// PickCurrent selects the session a league is currently gathering around:
// an open session when one exists, otherwise the most recent by date.
func PickCurrent(items []Session) (Session, bool) {
	if len(items) == 0 {
		return Session{}, false
	}

	sorted := append([]Session(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := sorted[i], sorted[j]
		if currentRank(left.Status) != currentRank(right.Status) {
			return currentRank(left.Status) < currentRank(right.Status)
		}
		if !left.Date.Equal(right.Date) {
			return left.Date.After(right.Date)
		}
		return left.CreatedAt.After(right.CreatedAt)
	})

	return sorted[0], true
}
