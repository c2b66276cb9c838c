package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/game-night/internal/domain/poll"
)

type PollRepository struct {
	mu    sync.RWMutex
	items map[string]poll.Poll
}

func NewPollRepository() *PollRepository {
	return &PollRepository{items: make(map[string]poll.Poll)}
}

func (r *PollRepository) Create(_ context.Context, item poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.SessionID]; exists {
		return poll.ErrPollExists
	}
	r.items[item.SessionID] = item
	return nil
}

func (r *PollRepository) GetBySession(_ context.Context, sessionID string) (poll.Poll, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[sessionID]
	return item, ok, nil
}

func (r *PollRepository) FindByLeague(_ context.Context, leagueID string) (poll.Poll, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.LeagueID == leagueID {
			return item, true, nil
		}
	}
	return poll.Poll{}, false, nil
}

func (r *PollRepository) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}

func (r *PollRepository) SessionsWithPoll(_ context.Context, sessionIDs []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		if _, ok := r.items[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}
