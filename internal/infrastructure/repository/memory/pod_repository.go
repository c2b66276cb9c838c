package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/pod"
)

// PodRepository keeps pods together with a (session, player) placement index that
// mirrors the unique constraint used by the postgres store.
type PodRepository struct {
	mu         sync.RWMutex
	items      map[string]pod.Pod
	placements map[string]string
}

func NewPodRepository() *PodRepository {
	return &PodRepository{
		items:      make(map[string]pod.Pod),
		placements: make(map[string]string),
	}
}

func (r *PodRepository) Create(_ context.Context, item pod.Pod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("pod %s already exists", item.ID)
	}

	if item.SessionID != "" {
		var conflicts []string
		for _, participant := range item.Participants {
			if _, placed := r.placements[placementKey(item.SessionID, participant.PlayerID)]; placed {
				conflicts = append(conflicts, participant.PlayerID)
			}
		}
		if len(conflicts) > 0 {
			return &pod.PlacementConflictError{PlayerIDs: conflicts}
		}
		for _, participant := range item.Participants {
			r.placements[placementKey(item.SessionID, participant.PlayerID)] = item.ID
		}
	}

	r.items[item.ID] = clonePod(item)
	return nil
}

func (r *PodRepository) GetByID(_ context.Context, podID string) (pod.Pod, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[podID]
	if !ok {
		return pod.Pod{}, false, nil
	}
	return clonePod(item), true, nil
}

func (r *PodRepository) ListBySession(_ context.Context, sessionID string) ([]pod.Pod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pod.Pod, 0)
	for _, item := range r.items {
		if item.SessionID == sessionID {
			out = append(out, clonePod(item))
		}
	}
	sortPods(out)
	return out, nil
}

func (r *PodRepository) ListPlacedPlayerIDs(_ context.Context, sessionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := sessionID + "::"
	out := make([]string, 0)
	for key := range r.placements {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, key[len(prefix):])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *PodRepository) UpdateStatus(_ context.Context, podID string, to pod.ConfirmationStatus, results map[string]pod.Result, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[podID]
	if !ok || item.Status != pod.StatusActive {
		return false, nil
	}

	item.Status = to
	item.UpdatedAt = at
	for i, participant := range item.Participants {
		if result, ok := results[participant.PlayerID]; ok {
			item.Participants[i].Result = result
		}
	}

	if to == pod.StatusCancelled && item.SessionID != "" {
		for _, participant := range item.Participants {
			key := placementKey(item.SessionID, participant.PlayerID)
			if r.placements[key] == item.ID {
				delete(r.placements, key)
			}
		}
	}

	r.items[podID] = item
	return true, nil
}

func (r *PodRepository) ListCompletedRosters(_ context.Context, leagueID string) ([][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pods := make([]pod.Pod, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID && item.Status == pod.StatusComplete {
			pods = append(pods, item)
		}
	}
	sortPods(pods)

	out := make([][]string, 0, len(pods))
	for _, item := range pods {
		out = append(out, item.PlayerIDs())
	}
	return out, nil
}

func placementKey(sessionID, playerID string) string {
	return sessionID + "::" + playerID
}

func sortPods(items []pod.Pod) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func clonePod(item pod.Pod) pod.Pod {
	copied := item
	copied.Participants = append([]pod.Participant(nil), item.Participants...)
	return copied
}
