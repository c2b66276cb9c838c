package session

import (
	"context"
	"errors"
	"time"
)

// ErrOpenSessionExists is returned by Create when the league already has a non-completed session.
var ErrOpenSessionExists = errors.New("league already has an open session")

// Repository describes session persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item Session) error
	GetByID(ctx context.Context, sessionID string) (Session, bool, error)
	FindOpenByLeague(ctx context.Context, leagueID string) (Session, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Session, error)
	// UpdateStatus moves the session from one status to another and reports false
	// when the stored status no longer matches from.
	UpdateStatus(ctx context.Context, sessionID string, from, to Status, updatedAt time.Time) (bool, error)
	// MarkRecapPosted stamps the recap time and completes a locked session that has no recap yet.
	MarkRecapPosted(ctx context.Context, sessionID string, postedAt time.Time) (bool, error)
}
