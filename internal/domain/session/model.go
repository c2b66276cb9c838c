package session

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
)

// DateLayout is the calendar-date format used for session dates.
const DateLayout = "2006-01-02"

func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusScheduled:
		return StatusScheduled, true
	case StatusActive:
		return StatusActive, true
	case StatusLocked:
		return StatusLocked, true
	case StatusCompleted:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// IsOpen reports whether a session still counts against the one-open-session-per-league rule.
func (s Status) IsOpen() bool {
	return s != StatusCompleted
}

// Session is one dated game night within a league.
type Session struct {
	ID            string
	LeagueID      string
	Date          time.Time
	Name          string
	Status        Status
	CreatedBy     string
	RecapPostedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(s.LeagueID) == "" {
		return fmt.Errorf("session league id is required")
	}
	if s.Date.IsZero() {
		return fmt.Errorf("session date is required")
	}
	if _, ok := ParseStatus(string(s.Status)); !ok {
		return fmt.Errorf("session status %q is invalid", s.Status)
	}

	return nil
}

// DateString renders the session date as a calendar date.
func (s Session) DateString() string {
	if s.Date.IsZero() {
		return ""
	}
	return s.Date.Format(DateLayout)
}

// AttendanceCounts summarises the attendance records of one session.
type AttendanceCounts struct {
	Active   int
	Total    int
	Inactive int
}
