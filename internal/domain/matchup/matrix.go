package matchup

import "sort"

// Matrix counts how many completed pods each pair of players has shared.
// The zero value is an empty matrix. Counts are symmetric and the diagonal is always zero.
type Matrix struct {
	counts map[string]map[string]int
}

// Build aggregates completed pod rosters into a matrix. Repeated ids inside one roster count once.
func Build(rosters [][]string) Matrix {
	m := Matrix{counts: make(map[string]map[string]int)}
	for _, roster := range rosters {
		players := dedupe(roster)
		for _, id := range players {
			m.ensure(id)
		}
		for i := 0; i < len(players); i++ {
			for j := i + 1; j < len(players); j++ {
				m.counts[players[i]][players[j]]++
				m.counts[players[j]][players[i]]++
			}
		}
	}
	return m
}

// Count returns how many completed pods a and b have shared.
func (m Matrix) Count(a, b string) int {
	if a == b || m.counts == nil {
		return 0
	}
	return m.counts[a][b]
}

// Players lists every player that appears in at least one completed pod, sorted by id.
func (m Matrix) Players() []string {
	out := make([]string, 0, len(m.counts))
	for id := range m.counts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len is the number of players known to the matrix.
func (m Matrix) Len() int {
	return len(m.counts)
}

// Score sums Count over every unordered pair in players.
func (m Matrix) Score(players []string) int {
	total := 0
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			total += m.Count(players[i], players[j])
		}
	}
	return total
}

// Rows renders the full square matrix over ids, including zero cells.
func (m Matrix) Rows(ids []string) map[string]map[string]int {
	out := make(map[string]map[string]int, len(ids))
	for _, a := range ids {
		row := make(map[string]int, len(ids))
		for _, b := range ids {
			row[b] = m.Count(a, b)
		}
		out[a] = row
	}
	return out
}

func (m Matrix) ensure(id string) {
	if _, ok := m.counts[id]; !ok {
		m.counts[id] = make(map[string]int)
	}
}

func dedupe(ids []string) []string {
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
