package podformation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairWeights map[[2]string]int

func (w pairWeights) Count(a, b string) int {
	if a > b {
		a, b = b, a
	}
	return w[[2]string{a, b}]
}

func (w pairWeights) set(a, b string, games int) {
	if a > b {
		a, b = b, a
	}
	w[[2]string{a, b}] = games
}

func players(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("u%02d", i))
	}
	return out
}

func TestNewPlan(t *testing.T) {
	cases := []struct {
		total, size int
		wantSizes   []int
		wantLeft    int
	}{
		{total: 3, size: 3, wantSizes: []int{3}, wantLeft: 0},
		{total: 7, size: 4, wantSizes: []int{4}, wantLeft: 3},
		{total: 9, size: 4, wantSizes: []int{5, 4}, wantLeft: 0},
		{total: 10, size: 4, wantSizes: []int{5, 5}, wantLeft: 0},
		{total: 13, size: 6, wantSizes: []int{6, 6}, wantLeft: 1},
		{total: 2, size: 4, wantSizes: nil, wantLeft: 2},
		{total: 0, size: 3, wantSizes: nil, wantLeft: 0},
		{total: 8, size: 0, wantSizes: []int{4, 4}, wantLeft: 0},
	}

	for _, tc := range cases {
		plan, err := NewPlan(tc.total, tc.size)
		require.NoError(t, err)
		assert.Equalf(t, tc.wantSizes, plan.GroupSizes, "total=%d size=%d", tc.total, tc.size)
		assert.Equalf(t, tc.wantLeft, plan.Leftover, "total=%d size=%d", tc.total, tc.size)
		assert.Equal(t, tc.total, plan.Seats()+plan.Leftover)
	}

	for _, size := range []int{2, 7, -1} {
		if _, err := NewPlan(10, size); !errors.Is(err, ErrInvalidPodSize) {
			t.Fatalf("expected ErrInvalidPodSize for size %d, got %v", size, err)
		}
	}
}

func TestSuggest_ExactPodWithoutHistory(t *testing.T) {
	got, err := Suggest([]string{"a", "b", "c"}, nil, 3, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, got.Pods, 1)
	assert.Equal(t, 3, got.Pods[0].Size)
	assert.Equal(t, 0, got.Pods[0].Score)
	assert.Len(t, got.Pods[0].Pairings, 3)
	assert.Empty(t, got.Leftover)
	assert.Equal(t, 3, got.TotalPlayers)
}

func TestSuggest_FewerThanPodSizeLeavesEveryoneOver(t *testing.T) {
	got, err := Suggest([]string{"c", "a", "b"}, nil, 4, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, got.Pods)
	assert.Equal(t, []string{"c", "a", "b"}, got.Leftover)
}

func TestSuggest_SevenPlayersPodSizeFour(t *testing.T) {
	got, err := Suggest(players(7), nil, 4, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, got.Pods, 1)
	assert.Equal(t, 4, got.Pods[0].Size)
	assert.Len(t, got.Leftover, 3)
}

func TestSuggest_ConservesEveryAttendee(t *testing.T) {
	for n := 0; n <= 20; n++ {
		for size := MinPodSize; size <= MaxPodSize; size++ {
			attendees := players(n)
			got, err := Suggest(attendees, nil, size, DefaultOptions())
			require.NoError(t, err)

			seen := make(map[string]int, n)
			seated := 0
			for _, pod := range got.Pods {
				require.Equal(t, len(pod.Players), pod.Size)
				require.GreaterOrEqual(t, pod.Size, MinPodSize)
				require.LessOrEqual(t, pod.Size, MaxPodSize)
				seated += pod.Size
				for _, id := range pod.Players {
					seen[id]++
				}
			}
			for _, id := range got.Leftover {
				seen[id]++
			}

			require.Equalf(t, n, seated+len(got.Leftover), "n=%d size=%d", n, size)
			require.Lenf(t, seen, n, "n=%d size=%d", n, size)
			for id, count := range seen {
				require.Equalf(t, 1, count, "player %s placed %d times", id, count)
			}
		}
	}
}

func TestSuggest_SeparatesRepeatPairWhenAlternativeExists(t *testing.T) {
	weights := pairWeights{}
	weights.set("a", "b", 3)

	got, err := Suggest([]string{"a", "b", "c", "d", "e", "f"}, weights, 3, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, got.Pods, 2)
	assert.Equal(t, 0, got.TotalScore)
	for _, pod := range got.Pods {
		assert.False(t, contains(pod.Players, "a") && contains(pod.Players, "b"), "a and b share pod %v", pod.Players)
	}
}

func TestSuggest_NeverWorseThanArrivalOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 40; round++ {
		n := 6 + rng.IntN(15)
		size := MinPodSize + rng.IntN(MaxPodSize-MinPodSize+1)
		attendees := players(n)
		rng.Shuffle(len(attendees), func(i, j int) { attendees[i], attendees[j] = attendees[j], attendees[i] })

		weights := pairWeights{}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				weights.set(attendees[i], attendees[j], rng.IntN(5))
			}
		}

		got, err := Suggest(attendees, weights, size, DefaultOptions())
		require.NoError(t, err)

		baseline := 0
		groups, _ := arrivalAssign(attendees, got.Plan.GroupSizes)
		for _, group := range groups {
			baseline += groupScore(group, weights)
		}
		require.LessOrEqualf(t, got.TotalScore, baseline, "round=%d n=%d size=%d", round, n, size)
	}
}

func TestSuggest_IsDeterministic(t *testing.T) {
	weights := pairWeights{}
	weights.set("u01", "u02", 2)
	weights.set("u03", "u04", 1)
	weights.set("u05", "u06", 4)
	weights.set("u01", "u07", 1)

	first, err := Suggest(players(11), weights, 4, DefaultOptions())
	require.NoError(t, err)
	second, err := Suggest(players(11), weights, 4, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSuggest_ScoresAndPairingsAgree(t *testing.T) {
	weights := pairWeights{}
	weights.set("u01", "u02", 5)
	weights.set("u01", "u03", 5)
	weights.set("u02", "u03", 5)
	weights.set("u04", "u05", 1)

	got, err := Suggest(players(8), weights, 4, DefaultOptions())
	require.NoError(t, err)

	total := 0
	for _, pod := range got.Pods {
		sum := 0
		require.Len(t, pod.Pairings, pod.Size*(pod.Size-1)/2)
		for _, pairing := range pod.Pairings {
			assert.Equal(t, weights.Count(pairing.Player1, pairing.Player2), pairing.PreviousGames)
			sum += pairing.PreviousGames
		}
		assert.Equal(t, pod.Score, sum)
		total += sum
	}
	assert.Equal(t, got.TotalScore, total)
}

func TestForm_ZeroSwapBudgetStillReturnsValidPartition(t *testing.T) {
	weights := pairWeights{}
	weights.set("a", "b", 3)
	weights.set("a", "c", 3)
	weights.set("b", "c", 3)
	weights.set("d", "e", 3)

	attendees := []string{"a", "b", "c", "d", "e", "f"}
	plan, err := NewPlan(len(attendees), 3)
	require.NoError(t, err)

	got, err := Form(attendees, weights, plan, Options{MaxSwaps: 0})
	require.NoError(t, err)

	assert.Equal(t, 0, got.Swaps)
	assert.True(t, got.BudgetExhausted)
	assert.LessOrEqual(t, got.TotalScore, 12)
	assert.Len(t, got.Pods, 2)
}

func TestForm_TimeBudgetStopsSearch(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}

	weights := pairWeights{}
	weights.set("a", "b", 3)
	weights.set("a", "c", 3)
	weights.set("b", "c", 3)

	attendees := []string{"a", "b", "c", "d", "e", "f"}
	plan, err := NewPlan(len(attendees), 3)
	require.NoError(t, err)

	got, err := Form(attendees, weights, plan, Options{MaxSwaps: 100, TimeBudget: time.Millisecond, Now: clock})
	require.NoError(t, err)

	assert.Equal(t, 0, got.Swaps)
	assert.Len(t, got.Pods, 2)
}

func TestForm_RejectsMismatchedPlan(t *testing.T) {
	plan, err := NewPlan(6, 3)
	require.NoError(t, err)

	if _, err := Form(players(5), nil, plan, DefaultOptions()); !errors.Is(err, ErrPlanMismatch) {
		t.Fatalf("expected ErrPlanMismatch, got %v", err)
	}
}

func TestSuggest_DropsDuplicateAttendees(t *testing.T) {
	got, err := Suggest([]string{"a", "b", "a", "c", "", "b"}, nil, 3, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, got.Pods, 1)
	assert.Equal(t, 3, got.TotalPlayers)
	members := append([]string(nil), got.Pods[0].Players...)
	sort.Strings(members)
	assert.Equal(t, []string{"a", "b", "c"}, members)
}

func contains(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
