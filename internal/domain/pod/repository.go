package pod

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrPlayerAlreadyPlaced = errors.New("player already placed in a session pod")

// PlacementConflictError lists players that another pod in the same session already seats.
type PlacementConflictError struct {
	PlayerIDs []string
}

func (e *PlacementConflictError) Error() string {
	if len(e.PlayerIDs) == 0 {
		return ErrPlayerAlreadyPlaced.Error()
	}
	return ErrPlayerAlreadyPlaced.Error() + ": " + strings.Join(e.PlayerIDs, ", ")
}

func (e *PlacementConflictError) Unwrap() error {
	return ErrPlayerAlreadyPlaced
}

// Repository exposes pod persistence operations.
type Repository interface {
	// Create stores the pod, its participants and their session placements atomically.
	// It fails with *PlacementConflictError when a player is already placed in the session.
	Create(ctx context.Context, item Pod) error
	GetByID(ctx context.Context, podID string) (Pod, bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]Pod, error)
	ListPlacedPlayerIDs(ctx context.Context, sessionID string) ([]string, error)
	// UpdateStatus moves an active pod and records results; cancelling releases the session placements.
	UpdateStatus(ctx context.Context, podID string, to ConfirmationStatus, results map[string]Result, at time.Time) (bool, error)
	// ListCompletedRosters returns the player ids of every complete pod in the league.
	ListCompletedRosters(ctx context.Context, leagueID string) ([][]string, error)
}
