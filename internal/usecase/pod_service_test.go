package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPodService_CreatePodUsesTurnOrder(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "ana", "ben", "cho", "dee")

	created, err := g.pods.CreatePod(ctx, CreatePodInput{
		SessionID: item.ID,
		CreatorID: "admin-1",
		PlayerIDs: []string{"ana", "ben", "cho", "dee"},
		TurnOrder: []string{"cho", "ana", "dee", "ben"},
	})
	require.NoError(t, err)

	assert.Equal(t, pod.StatusActive, created.Status)
	assert.Equal(t, "league-1", created.LeagueID)
	assert.Equal(t, []string{"cho", "ana", "dee", "ben"}, created.PlayerIDs())
	for i, participant := range created.Participants {
		assert.Equal(t, i+1, participant.TurnOrder)
		assert.Empty(t, participant.Result)
	}

	stored, err := g.pods.GetPod(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PlayerIDs(), stored.PlayerIDs())

	require.Len(t, g.events.pods, 1)
	assert.Equal(t, created.ID, g.events.pods[0].ID)
}

func TestPodService_CreatePodDefaultsTurnOrderToRoster(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "ana", "ben", "cho")

	created, err := g.pods.CreatePod(context.Background(), CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"ben", "cho", "ana"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ben", "cho", "ana"}, created.PlayerIDs())
}

func TestPodService_CreatePodValidation(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e", "f", "g")

	tests := []struct {
		name      string
		players   []string
		turnOrder []string
	}{
		{name: "too few", players: []string{"a", "b"}},
		{name: "too many", players: []string{"a", "b", "c", "d", "e", "f", "g"}},
		{name: "duplicate player", players: []string{"a", "b", "b"}},
		{name: "turn order missing player", players: []string{"a", "b", "c"}, turnOrder: []string{"a", "b"}},
		{name: "turn order extra player", players: []string{"a", "b", "c"}, turnOrder: []string{"a", "b", "d"}},
		{name: "turn order duplicate", players: []string{"a", "b", "c"}, turnOrder: []string{"a", "b", "b"}},
		{name: "empty player id", players: []string{"a", "b", " "}},
	}

	for _, tc := range tests {
		_, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: tc.players, TurnOrder: tc.turnOrder})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}

	pods, err := g.pods.ListSessionPods(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, pods, "failed validation leaves nothing behind")
}

func TestPodService_CreatePodUnknownSession(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	_, err := g.pods.CreatePod(context.Background(), CreatePodInput{SessionID: "missing", PlayerIDs: []string{"a", "b", "c"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPodService_CreatePodNamesEveryPlayerNotCheckedIn(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "ana", "ben", "cho")
	_, err := g.attendance.CheckOut(ctx, AttendanceInput{SessionID: item.ID, UserID: "cho", Source: "self"})
	require.NoError(t, err)

	_, err = g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"zed", "ana", "cho", "ben"}})
	var roster *RosterError
	require.ErrorAs(t, err, &roster)
	assert.Equal(t, []string{"zed", "cho"}, roster.NotCheckedIn)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPodService_CreatePodRejectsPlayersAlreadyPlaced(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e", "f")

	first, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"a", "b", "c"}})
	require.NoError(t, err)

	_, err = g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"c", "d", "e"}})
	var roster *RosterError
	require.ErrorAs(t, err, &roster)
	assert.Equal(t, []string{"c"}, roster.AlreadyPlaced)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: first.ID, Status: "cancelled"})
	require.NoError(t, err)

	_, err = g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"c", "d", "e"}})
	require.NoError(t, err, "cancelling releases the placement")
}

func TestPodService_ConcurrentOverlappingCommits(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e")

	rosters := [][]string{{"a", "b", "c"}, {"c", "d", "e"}, {"a", "d", "e"}}
	errs := make([]error, len(rosters))
	var wg sync.WaitGroup
	for i, roster := range rosters {
		wg.Add(1)
		go func(i int, roster []string) {
			defer wg.Done()
			_, errs[i] = g.pods.CreatePod(context.Background(), CreatePodInput{SessionID: item.ID, PlayerIDs: roster})
		}(i, roster)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded, "every pair of rosters overlaps, so only one commit can win")
}

func TestPodService_CreatePodOnCompletedSession(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c")
	g.complete(t, item.ID)

	_, err := g.pods.CreatePod(context.Background(), CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"a", "b", "c"}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestPodService_UpdatePodStatus(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e", "f")

	first, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"a", "b", "c"}})
	require.NoError(t, err)

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: first.ID, Status: "complete", Results: map[string]string{"a": "win"}})
	require.ErrorIs(t, err, ErrInvalidInput, "partial results are rejected")

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: first.ID, Status: "complete", Results: map[string]string{"a": "first"}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: first.ID, Status: "finished"})
	require.ErrorIs(t, err, ErrInvalidInput)

	done, err := g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{
		PodID:   first.ID,
		Status:  "complete",
		Results: map[string]string{"a": "win", "b": "loss", "c": "loss"},
	})
	require.NoError(t, err)
	assert.Equal(t, pod.StatusComplete, done.Status)
	assert.Equal(t, pod.ResultWin, done.Participants[0].Result)

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: first.ID, Status: "cancelled"})
	require.ErrorIs(t, err, ErrInvalidState, "complete pods are final")

	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: "missing", Status: "cancelled"})
	require.ErrorIs(t, err, ErrNotFound)

	pods, err := g.pods.ListSessionPods(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, pods, 1)
	assert.Equal(t, first.ID, pods[0].ID)
}

func TestPodService_OnlyCompletedPodsFeedTheMatrix(t *testing.T) {
	t.Parallel()

	g := newGameNight(t)
	ctx := context.Background()
	item := g.createSession(t, "league-1", "2026-03-06")
	g.checkIn(t, item.ID, "a", "b", "c", "d", "e", "f")

	g.playedPod(t, item.ID, "a", "b", "c")
	abandoned, err := g.pods.CreatePod(ctx, CreatePodInput{SessionID: item.ID, PlayerIDs: []string{"d", "e", "f"}})
	require.NoError(t, err)
	_, err = g.pods.UpdatePodStatus(ctx, UpdatePodStatusInput{PodID: abandoned.ID, Status: "cancelled"})
	require.NoError(t, err)

	matrix, err := g.matchups.ComputeMatrix(ctx, "league-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, matrix.Players())
	assert.Equal(t, 1, matrix.Count("a", "b"))
	assert.Equal(t, 1, matrix.Count("c", "a"))
	assert.Equal(t, 0, matrix.Count("d", "e"))

	other, err := g.matchups.ComputeMatrix(ctx, "league-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}
