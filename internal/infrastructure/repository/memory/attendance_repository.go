package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/session"
)

type AttendanceRepository struct {
	mu    sync.RWMutex
	items map[string]attendance.Record
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{items: make(map[string]attendance.Record)}
}

func (r *AttendanceRepository) Get(_ context.Context, sessionID, userID string) (attendance.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[attendanceKey(sessionID, userID)]
	if !ok {
		return attendance.Record{}, false, nil
	}
	return cloneRecord(item), true, nil
}

func (r *AttendanceRepository) Insert(_ context.Context, item attendance.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attendanceKey(item.SessionID, item.UserID)
	if _, exists := r.items[key]; exists {
		return false, nil
	}
	r.items[key] = cloneRecord(item)
	return true, nil
}

func (r *AttendanceRepository) SetActive(_ context.Context, sessionID, userID string, active bool, via attendance.Source, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attendanceKey(sessionID, userID)
	item, ok := r.items[key]
	if !ok || item.IsActive == active {
		return false, nil
	}

	item.IsActive = active
	item.UpdatedVia = via
	item.UpdatedAt = at
	if active {
		item.CheckedInAt = at
		item.CheckedOutAt = nil
	} else {
		stamp := at
		item.CheckedOutAt = &stamp
	}
	r.items[key] = item
	return true, nil
}

func (r *AttendanceRepository) ListBySession(_ context.Context, sessionID string) ([]attendance.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedBySession(sessionID, false), nil
}

func (r *AttendanceRepository) ListActiveUserIDs(_ context.Context, sessionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.sortedBySession(sessionID, true)
	out := make([]string, 0, len(records))
	for _, item := range records {
		out = append(out, item.UserID)
	}
	return out, nil
}

func (r *AttendanceRepository) CountBySessions(_ context.Context, sessionIDs []string) (map[string]session.AttendanceCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = struct{}{}
	}

	out := make(map[string]session.AttendanceCounts, len(sessionIDs))
	for _, item := range r.items {
		if _, ok := wanted[item.SessionID]; !ok {
			continue
		}
		counts := out[item.SessionID]
		counts.Total++
		if item.IsActive {
			counts.Active++
		} else {
			counts.Inactive++
		}
		out[item.SessionID] = counts
	}
	return out, nil
}

// sortedBySession returns records in arrival order. Callers must hold the read lock.
func (r *AttendanceRepository) sortedBySession(sessionID string, activeOnly bool) []attendance.Record {
	out := make([]attendance.Record, 0)
	for _, item := range r.items {
		if item.SessionID != sessionID {
			continue
		}
		if activeOnly && !item.IsActive {
			continue
		}
		out = append(out, cloneRecord(item))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckedInAt.Equal(out[j].CheckedInAt) {
			return out[i].CheckedInAt.Before(out[j].CheckedInAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func attendanceKey(sessionID, userID string) string {
	return sessionID + "::" + userID
}

func cloneRecord(item attendance.Record) attendance.Record {
	copied := item
	if item.CheckedOutAt != nil {
		stamp := *item.CheckedOutAt
		copied.CheckedOutAt = &stamp
	}
	return copied
}
