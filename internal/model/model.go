package model

import (
	"fmt"
	"strings"
	"time"
)

// Role selects which stat catalog applies to a player in a match.
type Role int

const (
	RoleField      Role = 0
	RoleGoalkeeper Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleGoalkeeper:
		return "goalkeeper"
	default:
		return "field"
	}
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText accepts any name ParseRole does.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRole accepts the role names used by the CLI and the hosted store.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "field", "jugador", "player", "":
		return RoleField, nil
	case "goalkeeper", "portero", "gk":
		return RoleGoalkeeper, nil
	}
	return RoleField, fmt.Errorf("unknown role %q", s)
}

// Row is a weakly typed record as delivered by the data store. Values are
// read exclusively through Num.
type Row map[string]any

// ---- Raw records ----

// QuarterScore holds the goals for and against in one quarter. Either side
// may be unknown.
type QuarterScore struct {
	Quarter int
	For     *int
	Against *int
}

// SprintRecord holds the two redundant raw signals recorded for a quarter's
// opening sprint: an explicit won flag and a reference to the winning player.
type SprintRecord struct {
	Quarter   int
	Won       any
	WinnerRef any
}

// MatchRecord is an immutable snapshot of one match.
type MatchRecord struct {
	ID        string
	ClubID    string
	Season    string
	Date      time.Time
	Round     *int // jornada; nil sorts after every numbered round
	Opponent  string
	IsHome    bool
	HomeScore int
	AwayScore int
	Quarters  []QuarterScore
	Sprints   []SprintRecord
}

// GoalsFor returns the club's goals, honoring home/away.
func (m *MatchRecord) GoalsFor() int {
	if m.IsHome {
		return m.HomeScore
	}
	return m.AwayScore
}

// GoalsAgainst returns the opponent's goals.
func (m *MatchRecord) GoalsAgainst() int {
	if m.IsHome {
		return m.AwayScore
	}
	return m.HomeScore
}

// RoundLabel formats the jornada for tables ("J3", or "—" when unknown).
func (m *MatchRecord) RoundLabel() string {
	if m.Round == nil {
		return "—"
	}
	return fmt.Sprintf("J%d", *m.Round)
}

// PlayerStatRecord is one player's counters for one match.
type PlayerStatRecord struct {
	ID         string
	MatchID    string
	PlayerID   string
	PlayerName string
	Role       Role
	Counters   Row
}

// Value reads a counter; absent counters are zero.
func (s *PlayerStatRecord) Value(key string) float64 {
	return Num(s.Counters, key)
}

// WeightMap maps stat keys to signed weights. Values are kept as delivered so
// malformed weights can be skipped at scoring time rather than at load time.
type WeightMap map[string]any

// Clone returns an independent copy.
func (w WeightMap) Clone() WeightMap {
	out := make(WeightMap, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// WeightSet is a weight map scoped to one user and one role.
type WeightSet struct {
	UserID  string
	Role    Role
	Weights WeightMap
}

// ---- Derived values ----

// SeriesPoint is one chronological match in a derived series.
type SeriesPoint struct {
	Index           int     `json:"index"`
	MatchID         string  `json:"match_id"`
	Value           float64 `json:"value"`
	CumulativeTotal float64 `json:"cumulative_total"`
	CumulativeMean  float64 `json:"cumulative_mean"`
	Score           *int    `json:"score,omitempty"`
}

// Bucket is one category in a mix.
type Bucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pct   float64 `json:"pct"`
}

// CategoryMix is a percentage breakdown over named buckets.
type CategoryMix struct {
	Buckets  []Bucket `json:"buckets"`
	Total    float64  `json:"total"`
	Top      string   `json:"top"`
	TopIndex int      `json:"top_index"` // -1 when there are no buckets
}

// PlayerScore is a composite score for one stat row.
type PlayerScore struct {
	MatchID    string `json:"match_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Role       Role   `json:"role"`
	Score      int    `json:"score"`
}

// SprintQuarter summarizes the opening sprints of one quarter across matches.
type SprintQuarter struct {
	Quarter int     `json:"quarter"`
	Played  int     `json:"played"`
	Won     int     `json:"won"`
	WinPct  float64 `json:"win_pct"`
}

// QuarterTotals sums goals for and against in one quarter across matches.
type QuarterTotals struct {
	Quarter int `json:"quarter"`
	For     int `json:"for"`
	Against int `json:"against"`
	Matches int `json:"matches"`
}

// MatchOverview is a lightweight record for list/summary commands.
type MatchOverview struct {
	Matches       int
	Players       int
	StatRows      int
	Seasons       int
	EarliestMatch string
	LatestMatch   string
}
