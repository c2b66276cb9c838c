package pod

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinPlayers = 3
	MaxPlayers = 6
)

type ConfirmationStatus string

const (
	StatusActive    ConfirmationStatus = "active"
	StatusComplete  ConfirmationStatus = "complete"
	StatusCancelled ConfirmationStatus = "cancelled"
)

func ParseStatus(value string) (ConfirmationStatus, bool) {
	switch ConfirmationStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusActive:
		return StatusActive, true
	case StatusComplete:
		return StatusComplete, true
	case StatusCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

func ParseResult(value string) (Result, bool) {
	switch Result(strings.ToLower(strings.TrimSpace(value))) {
	case ResultWin:
		return ResultWin, true
	case ResultLoss:
		return ResultLoss, true
	case ResultDraw:
		return ResultDraw, true
	default:
		return "", false
	}
}

// Participant is one seat in a pod. Result stays empty until the pod completes.
type Participant struct {
	PlayerID  string
	TurnOrder int
	Result    Result
}

// Pod is a committed game table.
type Pod struct {
	ID           string
	LeagueID     string
	SessionID    string
	CreatorID    string
	Status       ConfirmationStatus
	Participants []Participant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Pod) PlayerIDs() []string {
	out := make([]string, 0, len(p.Participants))
	for _, participant := range p.Participants {
		out = append(out, participant.PlayerID)
	}
	return out
}

var (
	ErrInvalidRosterSize  = errors.New("pod roster size out of range")
	ErrDuplicatePlayer    = errors.New("pod roster contains duplicate players")
	ErrTurnOrderMismatch  = errors.New("turn order must be a permutation of the roster")
	ErrInvalidStatusShift = errors.New("invalid pod status change")
	ErrMissingResult      = errors.New("pod results incomplete")
)

// SeatingOrder validates a roster and returns players in the order they take turns.
// An empty turnOrder keeps the roster order.
func SeatingOrder(playerIDs, turnOrder []string) ([]string, error) {
	if len(playerIDs) < MinPlayers || len(playerIDs) > MaxPlayers {
		return nil, fmt.Errorf("%w: pods need %d-%d players, got %d", ErrInvalidRosterSize, MinPlayers, MaxPlayers, len(playerIDs))
	}

	roster := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, exists := roster[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
		roster[id] = struct{}{}
	}

	if len(turnOrder) == 0 {
		return append([]string(nil), playerIDs...), nil
	}
	if len(turnOrder) != len(playerIDs) {
		return nil, fmt.Errorf("%w: expected %d entries, got %d", ErrTurnOrderMismatch, len(playerIDs), len(turnOrder))
	}

	seen := make(map[string]struct{}, len(turnOrder))
	for _, id := range turnOrder {
		if _, ok := roster[id]; !ok {
			return nil, fmt.Errorf("%w: %s is not in the roster", ErrTurnOrderMismatch, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s appears twice", ErrTurnOrderMismatch, id)
		}
		seen[id] = struct{}{}
	}

	return append([]string(nil), turnOrder...), nil
}

// CheckStatusChange validates a pod status change. Only active pods may move.
// Completing a pod may omit results entirely; when results are given they must cover every participant.
func CheckStatusChange(current Pod, to ConfirmationStatus, results map[string]Result) error {
	if current.Status != StatusActive {
		return fmt.Errorf("%w: pod is already %s", ErrInvalidStatusShift, current.Status)
	}

	switch to {
	case StatusCancelled:
		return nil
	case StatusComplete:
		if len(results) == 0 {
			return nil
		}
		for _, participant := range current.Participants {
			if _, ok := results[participant.PlayerID]; !ok {
				return fmt.Errorf("%w: missing result for %s", ErrMissingResult, participant.PlayerID)
			}
		}
		for playerID := range results {
			if !containsPlayer(current.Participants, playerID) {
				return fmt.Errorf("%w: %s is not seated in this pod", ErrMissingResult, playerID)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot move pod to %s", ErrInvalidStatusShift, to)
	}
}

func containsPlayer(participants []Participant, playerID string) bool {
	for _, participant := range participants {
		if participant.PlayerID == playerID {
			return true
		}
	}
	return false
}
