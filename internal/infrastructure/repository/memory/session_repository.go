package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/session"
)

type SessionRepository struct {
	mu    sync.RWMutex
	items map[string]session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{items: make(map[string]session.Session)}
}

func (r *SessionRepository) Create(_ context.Context, item session.Session) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("session %s already exists", item.ID)
	}
	if item.Status.IsOpen() {
		for _, existing := range r.items {
			if existing.LeagueID == item.LeagueID && existing.Status.IsOpen() {
				return session.ErrOpenSessionExists
			}
		}
	}

	r.items[item.ID] = cloneSession(item)
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[sessionID]
	if !ok {
		return session.Session{}, false, nil
	}
	return cloneSession(item), true, nil
}

func (r *SessionRepository) FindOpenByLeague(_ context.Context, leagueID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.LeagueID == leagueID && item.Status.IsOpen() {
			return cloneSession(item), true, nil
		}
	}
	return session.Session{}, false, nil
}

func (r *SessionRepository) ListByLeague(_ context.Context, leagueID string) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID {
			out = append(out, cloneSession(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SessionRepository) UpdateStatus(_ context.Context, sessionID string, from, to session.Status, updatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[sessionID]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	item.UpdatedAt = updatedAt
	r.items[sessionID] = item
	return true, nil
}

func (r *SessionRepository) MarkRecapPosted(_ context.Context, sessionID string, postedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[sessionID]
	if !ok || item.RecapPostedAt != nil || item.Status != session.StatusLocked {
		return false, nil
	}
	stamp := postedAt
	item.RecapPostedAt = &stamp
	item.Status = session.StatusCompleted
	item.UpdatedAt = postedAt
	r.items[sessionID] = item
	return true, nil
}

func cloneSession(item session.Session) session.Session {
	copied := item
	if item.RecapPostedAt != nil {
		stamp := *item.RecapPostedAt
		copied.RecapPostedAt = &stamp
	}
	return copied
}
