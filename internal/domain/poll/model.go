package poll

import (
	"context"
	"errors"
	"time"
)

var ErrPollExists = errors.New("session already has a poll")

// Poll is the external chat message through which players RSVP to a session.
type Poll struct {
	SessionID string
	LeagueID  string
	MessageID string
	ChannelID string
	CreatedAt time.Time
}

// Repository exposes attendance poll persistence operations.
type Repository interface {
	// Create fails with ErrPollExists when the session already has a poll.
	Create(ctx context.Context, item Poll) error
	GetBySession(ctx context.Context, sessionID string) (Poll, bool, error)
	FindByLeague(ctx context.Context, leagueID string) (Poll, bool, error)
	DeleteBySession(ctx context.Context, sessionID string) error
	SessionsWithPoll(ctx context.Context, sessionIDs []string) (map[string]bool, error)
}
