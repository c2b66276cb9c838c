package attendance

import (
	"context"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/session"
)

// Repository exposes attendance persistence operations.
type Repository interface {
	Get(ctx context.Context, sessionID, userID string) (Record, bool, error)
	// Insert stores a new record and reports false when one already exists for the pair.
	Insert(ctx context.Context, item Record) (bool, error)
	// SetActive flips is_active only when it differs from active and reports whether a row changed.
	SetActive(ctx context.Context, sessionID, userID string, active bool, via Source, at time.Time) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListActiveUserIDs(ctx context.Context, sessionID string) ([]string, error)
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]session.AttendanceCounts, error)
}
