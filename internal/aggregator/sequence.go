package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-wp-metrics/internal/model"
)

// noRound sorts matches without a jornada after every numbered one.
const noRound = math.MaxInt

// Sequence is a chronologically ordered, immutable list of matches. It can only
// be built by SortMatches, so every series is folded in the same order.
type Sequence struct {
	matches []model.MatchRecord
	index   map[string]int
}

// SortMatches orders matches by jornada ascending, then date ascending.
// Matches without a jornada go last. Equal keys keep their input order and the
// input slice is not modified.
func SortMatches(matches []model.MatchRecord) Sequence {
	sorted := make([]model.MatchRecord, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := roundKey(sorted[i]), roundKey(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	idx := make(map[string]int, len(sorted))
	for i, m := range sorted {
		if _, dup := idx[m.ID]; !dup {
			idx[m.ID] = i
		}
	}
	return Sequence{matches: sorted, index: idx}
}

func roundKey(m model.MatchRecord) int {
	if m.Round == nil {
		return noRound
	}
	return *m.Round
}

// Len returns the number of matches.
func (s Sequence) Len() int { return len(s.matches) }

// At returns the i-th match in order.
func (s Sequence) At(i int) model.MatchRecord { return s.matches[i] }

// Matches returns a copy of the ordered matches.
func (s Sequence) Matches() []model.MatchRecord {
	out := make([]model.MatchRecord, len(s.matches))
	copy(out, s.matches)
	return out
}

// Position returns the chronological index of a match id.
func (s Sequence) Position(matchID string) (int, bool) {
	i, ok := s.index[matchID]
	return i, ok
}

// Last returns the n most recent matches as a new sequence, keeping order.
func (s Sequence) Last(n int) Sequence {
	if n <= 0 || n >= len(s.matches) {
		return s
	}
	return SortMatches(s.matches[len(s.matches)-n:])
}
