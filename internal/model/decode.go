package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Column names used by the hosted store for match and stat rows.
const (
	ColID         = "id"
	ColClubID     = "club_id"
	ColSeason     = "temporada"
	ColDate       = "fecha"
	ColRound      = "jornada"
	ColOpponent   = "rival"
	ColIsHome     = "es_local"
	ColHomeScore  = "goles_local"
	ColAwayScore  = "goles_visitante"
	ColMatchID    = "partido_id"
	ColPlayerID   = "jugador_id"
	ColPlayerName = "jugador_nombre"
	ColRole       = "rol"
	ColUserID     = "usuario_id"
	ColStatKey    = "stat_key"
	ColWeight     = "peso"
)

// Quarters is the number of periods in a water-polo match.
const Quarters = 4

// quarter columns: q1_favor, q1_contra, sprint_q1_ganado, sprint_q1_jugador.
func quarterFor(q int) string     { return fmt.Sprintf("q%d_favor", q) }
func quarterAgainst(q int) string { return fmt.Sprintf("q%d_contra", q) }
func sprintWon(q int) string      { return fmt.Sprintf("sprint_q%d_ganado", q) }
func sprintWinner(q int) string   { return fmt.Sprintf("sprint_q%d_jugador", q) }

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// ParseDate accepts the date layouts produced by the hosted store. Unparseable
// dates yield the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// str reads a string-ish identity column.
func str(r Row, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		if f, ok := Float(v); ok && f == math.Trunc(f) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprint(v)
	}
}

// optInt returns a pointer when key holds a finite number.
func optInt(r Row, key string) *int {
	f, ok := Float(r[key])
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

// MatchFromRow decodes a match row. Only the id is required.
func MatchFromRow(r Row) (MatchRecord, error) {
	m := MatchRecord{
		ID:        str(r, ColID),
		ClubID:    str(r, ColClubID),
		Season:    str(r, ColSeason),
		Date:      ParseDate(str(r, ColDate)),
		Round:     optInt(r, ColRound),
		Opponent:  str(r, ColOpponent),
		IsHome:    Truthy(r[ColIsHome]),
		HomeScore: int(Num(r, ColHomeScore)),
		AwayScore: int(Num(r, ColAwayScore)),
	}
	if m.ID == "" {
		return m, fmt.Errorf("match row without %s", ColID)
	}
	for q := 1; q <= Quarters; q++ {
		f, a := optInt(r, quarterFor(q)), optInt(r, quarterAgainst(q))
		if f != nil || a != nil {
			m.Quarters = append(m.Quarters, QuarterScore{Quarter: q, For: f, Against: a})
		}
		won, hasWon := r[sprintWon(q)]
		winner, hasWinner := r[sprintWinner(q)]
		if hasWon || hasWinner {
			m.Sprints = append(m.Sprints, SprintRecord{Quarter: q, Won: won, WinnerRef: winner})
		}
	}
	return m, nil
}

// MatchToRow is the inverse of MatchFromRow.
func MatchToRow(m MatchRecord) Row {
	r := Row{
		ColID:        m.ID,
		ColClubID:    m.ClubID,
		ColSeason:    m.Season,
		ColOpponent:  m.Opponent,
		ColIsHome:    m.IsHome,
		ColHomeScore: m.HomeScore,
		ColAwayScore: m.AwayScore,
	}
	if !m.Date.IsZero() {
		r[ColDate] = m.Date.Format(time.RFC3339)
	}
	if m.Round != nil {
		r[ColRound] = *m.Round
	}
	for _, q := range m.Quarters {
		if q.For != nil {
			r[quarterFor(q.Quarter)] = *q.For
		}
		if q.Against != nil {
			r[quarterAgainst(q.Quarter)] = *q.Against
		}
	}
	for _, s := range m.Sprints {
		r[sprintWon(s.Quarter)] = s.Won
		r[sprintWinner(s.Quarter)] = s.WinnerRef
	}
	return r
}

var statIdentity = map[string]struct{}{
	ColID: {}, ColMatchID: {}, ColPlayerID: {}, ColPlayerName: {}, ColRole: {},
	ColClubID: {}, ColSeason: {}, "es_portero": {},
}

// StatFromRow decodes a player stat row. Every non-identity column becomes a
// counter, kept as delivered.
func StatFromRow(r Row) (PlayerStatRecord, error) {
	s := PlayerStatRecord{
		ID:         str(r, ColID),
		MatchID:    str(r, ColMatchID),
		PlayerID:   str(r, ColPlayerID),
		PlayerName: str(r, ColPlayerName),
		Counters:   make(Row, len(r)),
	}
	if s.MatchID == "" || s.PlayerID == "" {
		return s, fmt.Errorf("stat row %q without %s/%s", s.ID, ColMatchID, ColPlayerID)
	}
	role, err := ParseRole(str(r, ColRole))
	if err != nil {
		return s, err
	}
	if Truthy(r["es_portero"]) {
		role = RoleGoalkeeper
	}
	s.Role = role
	for k, v := range r {
		if _, skip := statIdentity[k]; skip {
			continue
		}
		s.Counters[k] = v
	}
	return s, nil
}

// StatToRow is the inverse of StatFromRow.
func StatToRow(s PlayerStatRecord) Row {
	r := make(Row, len(s.Counters)+5)
	for k, v := range s.Counters {
		r[k] = v
	}
	r[ColID] = s.ID
	r[ColMatchID] = s.MatchID
	r[ColPlayerID] = s.PlayerID
	r[ColPlayerName] = s.PlayerName
	r[ColRole] = s.Role.String()
	return r
}

// WeightsFromRows folds weight rows for one user and role into a map. Rows for
// other users or roles are ignored.
func WeightsFromRows(rows []Row, userID string, role Role) WeightMap {
	out := make(WeightMap)
	for _, r := range rows {
		if str(r, ColUserID) != userID {
			continue
		}
		rr, err := ParseRole(str(r, ColRole))
		if err != nil || rr != role {
			continue
		}
		key := str(r, ColStatKey)
		if key == "" {
			continue
		}
		out[key] = r[ColWeight]
	}
	return out
}
