// Package podformation partitions session attendees into pods that avoid repeat pairings.
//
// The partition is a local optimum: a greedy assignment refined by pairwise swaps between
// groups under a swap and time budget. It is never worse than grouping players in arrival order.
package podformation

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

const (
	DefaultMaxSwaps   = 2000
	DefaultTimeBudget = 500 * time.Millisecond
)

// Weights reports how many completed games two players have shared.
type Weights interface {
	Count(a, b string) int
}

type Options struct {
	// MaxSwaps bounds the improving swaps applied across the whole search.
	MaxSwaps int
	// TimeBudget bounds wall time spent in local search. Zero disables the limit.
	TimeBudget time.Duration
	Now        func() time.Time
}

func DefaultOptions() Options {
	return Options{MaxSwaps: DefaultMaxSwaps, TimeBudget: DefaultTimeBudget}
}

type Pairing struct {
	Player1       string
	Player2       string
	PreviousGames int
}

// Group is one suggested pod. Players are listed in default turn order.
type Group struct {
	Players  []string
	Size     int
	Score    int
	Pairings []Pairing
}

type Partition struct {
	Pods            []Group
	Leftover        []string
	TotalPlayers    int
	TotalScore      int
	Plan            Plan
	Swaps           int
	BudgetExhausted bool
}

// Suggest plans groups of podSize for attendees and forms them.
func Suggest(attendees []string, weights Weights, podSize int, opts Options) (Partition, error) {
	players := normalize(attendees)
	plan, err := NewPlan(len(players), podSize)
	if err != nil {
		return Partition{}, err
	}
	return Form(players, weights, plan, opts)
}

// Form partitions attendees according to plan. Attendees are given in arrival order;
// duplicates and empty ids are dropped. It never mutates its inputs.
func Form(attendees []string, weights Weights, plan Plan, opts Options) (Partition, error) {
	players := normalize(attendees)
	if plan.Seats()+plan.Leftover != len(players) {
		return Partition{}, fmt.Errorf("%w: plan covers %d players, got %d", ErrPlanMismatch, plan.Seats()+plan.Leftover, len(players))
	}
	if weights == nil {
		weights = noHistory{}
	}

	out := Partition{TotalPlayers: len(players), Plan: plan}
	if len(plan.GroupSizes) == 0 {
		out.Leftover = players
		return out, nil
	}

	arrival := make(map[string]int, len(players))
	for i, id := range players {
		arrival[id] = i
	}

	s := newSearch(weights, opts)

	sortedIDs := append([]string(nil), players...)
	sort.Strings(sortedIDs)
	greedyGroups, greedyLeftover := greedyAssign(sortedIDs, weights, plan.GroupSizes)
	s.improve(greedyGroups)

	arrivalGroups, arrivalLeftover := arrivalAssign(players, plan.GroupSizes)
	s.improve(arrivalGroups)

	groups, leftover := greedyGroups, greedyLeftover
	if s.total(arrivalGroups) < s.total(greedyGroups) {
		groups, leftover = arrivalGroups, arrivalLeftover
	}

	sort.SliceStable(leftover, func(i, j int) bool {
		return arrival[leftover[i]] < arrival[leftover[j]]
	})

	out.Pods = make([]Group, 0, len(groups))
	for _, members := range groups {
		group := describe(members, weights)
		out.TotalScore += group.Score
		out.Pods = append(out.Pods, group)
	}
	out.Leftover = leftover
	out.Swaps = s.swaps
	out.BudgetExhausted = s.exhausted
	return out, nil
}

// greedyAssign fills each group by seeding it with the cheapest remaining pair and then
// adding the remaining player with the lowest marginal score. Ties go to the lower id.
func greedyAssign(sortedIDs []string, weights Weights, sizes []int) ([][]string, []string) {
	remaining := append([]string(nil), sortedIDs...)
	groups := make([][]string, 0, len(sizes))

	for _, size := range sizes {
		first, second := cheapestPair(remaining, weights)
		group := make([]string, 0, size)
		group = append(group, remaining[first], remaining[second])
		remaining = slices.Delete(remaining, second, second+1)
		remaining = slices.Delete(remaining, first, first+1)

		for len(group) < size {
			bestIdx, bestCost := -1, 0
			for idx, candidate := range remaining {
				cost := costWith(candidate, group, -1, weights)
				if bestIdx < 0 || cost < bestCost {
					bestIdx, bestCost = idx, cost
				}
			}
			group = append(group, remaining[bestIdx])
			remaining = slices.Delete(remaining, bestIdx, bestIdx+1)
		}

		groups = append(groups, group)
	}

	return groups, remaining
}

func cheapestPair(players []string, weights Weights) (int, int) {
	first, second, best := 0, 1, -1
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			count := weights.Count(players[i], players[j])
			if best < 0 || count < best {
				first, second, best = i, j, count
			}
		}
	}
	return first, second
}

func arrivalAssign(players []string, sizes []int) ([][]string, []string) {
	groups := make([][]string, 0, len(sizes))
	offset := 0
	for _, size := range sizes {
		groups = append(groups, append([]string(nil), players[offset:offset+size]...))
		offset += size
	}
	return groups, append([]string(nil), players[offset:]...)
}

type search struct {
	weights   Weights
	maxSwaps  int
	deadline  time.Time
	now       func() time.Time
	swaps     int
	exhausted bool
}

func newSearch(weights Weights, opts Options) *search {
	s := &search{weights: weights, maxSwaps: opts.MaxSwaps, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.TimeBudget > 0 {
		s.deadline = s.now().Add(opts.TimeBudget)
	}
	return s
}

// improve applies best-improvement swaps between groups until none lowers the total
// score or the budget runs out. A swapped-in player takes the seat of the one it replaced.
func (s *search) improve(groups [][]string) {
	for {
		gi, ai, gj, bj, delta := s.bestSwap(groups)
		if delta >= 0 {
			return
		}
		if s.swaps >= s.maxSwaps || s.pastDeadline() {
			s.exhausted = true
			return
		}
		groups[gi][ai], groups[gj][bj] = groups[gj][bj], groups[gi][ai]
		s.swaps++
	}
}

func (s *search) bestSwap(groups [][]string) (int, int, int, int, int) {
	bestGI, bestAI, bestGJ, bestBJ, bestDelta := -1, -1, -1, -1, 0
	for gi := 0; gi < len(groups); gi++ {
		for gj := gi + 1; gj < len(groups); gj++ {
			for ai, a := range groups[gi] {
				for bj, b := range groups[gj] {
					before := costWith(a, groups[gi], ai, s.weights) + costWith(b, groups[gj], bj, s.weights)
					after := costWith(b, groups[gi], ai, s.weights) + costWith(a, groups[gj], bj, s.weights)
					if delta := after - before; delta < bestDelta {
						bestGI, bestAI, bestGJ, bestBJ, bestDelta = gi, ai, gj, bj, delta
					}
				}
			}
		}
	}
	return bestGI, bestAI, bestGJ, bestBJ, bestDelta
}

func (s *search) pastDeadline() bool {
	return !s.deadline.IsZero() && !s.now().Before(s.deadline)
}

func (s *search) total(groups [][]string) int {
	total := 0
	for _, group := range groups {
		total += groupScore(group, s.weights)
	}
	return total
}

// costWith sums the games player has shared with every member of group except the seat at skip.
func costWith(player string, group []string, skip int, weights Weights) int {
	cost := 0
	for idx, member := range group {
		if idx == skip || member == player {
			continue
		}
		cost += weights.Count(player, member)
	}
	return cost
}

func groupScore(group []string, weights Weights) int {
	total := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			total += weights.Count(group[i], group[j])
		}
	}
	return total
}

func describe(members []string, weights Weights) Group {
	group := Group{
		Players:  append([]string(nil), members...),
		Size:     len(members),
		Pairings: make([]Pairing, 0, len(members)*(len(members)-1)/2),
	}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			games := weights.Count(members[i], members[j])
			group.Score += games
			group.Pairings = append(group.Pairings, Pairing{
				Player1:       members[i],
				Player2:       members[j],
				PreviousGames: games,
			})
		}
	}
	return group
}

func normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type noHistory struct{}

func (noHistory) Count(string, string) int { return 0 }
