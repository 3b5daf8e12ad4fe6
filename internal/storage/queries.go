package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pable/go-wp-metrics/internal/model"
)

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(id string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatches bulk-upserts matches in a transaction. An upsert rather than
// INSERT OR REPLACE keeps the match's stat rows out of the delete cascade.
func (db *DB) InsertMatches(matches []model.MatchRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO matches(
			id, club_id, season, match_date, jornada, opponent,
			is_home, home_score, away_score, row_json
		) VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			club_id=excluded.club_id, season=excluded.season, match_date=excluded.match_date,
			jornada=excluded.jornada, opponent=excluded.opponent, is_home=excluded.is_home,
			home_score=excluded.home_score, away_score=excluded.away_score, row_json=excluded.row_json`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		raw, err := json.Marshal(model.MatchToRow(m))
		if err != nil {
			return fmt.Errorf("encode match %s: %w", m.ID, err)
		}
		var jornada any
		if m.Round != nil {
			jornada = *m.Round
		}
		date := ""
		if !m.Date.IsZero() {
			date = m.Date.Format(time.RFC3339)
		}
		_, err = stmt.Exec(
			m.ID, m.ClubID, m.Season, date, jornada, m.Opponent,
			boolInt(m.IsHome), m.HomeScore, m.AwayScore, string(raw),
		)
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// InsertPlayerStats bulk-inserts player stat rows in a transaction.
func (db *DB) InsertPlayerStats(stats []model.PlayerStatRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_stats(id, match_id, player_id, player_name, role, counters)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		counters, err := json.Marshal(s.Counters)
		if err != nil {
			return fmt.Errorf("encode counters for %s: %w", s.ID, err)
		}
		if _, err = stmt.Exec(s.ID, s.MatchID, s.PlayerID, s.PlayerName, s.Role.String(), string(counters)); err != nil {
			return fmt.Errorf("insert player_stats %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// ListMatches returns stored matches for a club and season. Empty filters
// match everything. Rows come back newest first; callers sequence them.
func (db *DB) ListMatches(clubID, season string) ([]model.MatchRecord, error) {
	return db.listMatches(context.Background(), clubID, season)
}

func (db *DB) listMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT row_json FROM matches
		WHERE (? = '' OR club_id = ?) AND (? = '' OR season = ?)
		ORDER BY match_date DESC, id`, clubID, clubID, season, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		m, err := decodeMatch(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func decodeMatch(raw string) (model.MatchRecord, error) {
	var r model.Row
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return model.MatchRecord{}, fmt.Errorf("decode match row: %w", err)
	}
	return model.MatchFromRow(r)
}

// GetMatchByPrefix finds the first match whose id starts with the given
// prefix. Returns ErrNotFound when nothing matches.
func (db *DB) GetMatchByPrefix(prefix string) (*model.MatchRecord, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT row_json FROM matches WHERE id LIKE ? ORDER BY id LIMIT 1`, prefix+"%").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m, err := decodeMatch(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const statColumns = `s.id, s.match_id, s.player_id, s.player_name, s.role, s.counters`

func scanStats(rows *sql.Rows) ([]model.PlayerStatRecord, error) {
	defer rows.Close()
	var out []model.PlayerStatRecord
	for rows.Next() {
		var s model.PlayerStatRecord
		var roleStr, counters string
		if err := rows.Scan(&s.ID, &s.MatchID, &s.PlayerID, &s.PlayerName, &roleStr, &counters); err != nil {
			return nil, err
		}
		role, err := model.ParseRole(roleStr)
		if err != nil {
			return nil, err
		}
		s.Role = role
		if err := json.Unmarshal([]byte(counters), &s.Counters); err != nil {
			return nil, fmt.Errorf("decode counters for %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPlayerStatsByMatch returns all stat rows for a match, ordered by player name.
func (db *DB) GetPlayerStatsByMatch(matchID string) ([]model.PlayerStatRecord, error) {
	rows, err := db.conn.Query(`
		SELECT `+statColumns+` FROM player_stats s
		WHERE s.match_id = ? ORDER BY s.role, s.player_name`, matchID)
	if err != nil {
		return nil, err
	}
	return scanStats(rows)
}

func (db *DB) playerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+statColumns+` FROM player_stats s
		JOIN matches m ON m.id = s.match_id
		WHERE (? = '' OR m.club_id = ?) AND (? = '' OR m.season = ?)
		ORDER BY s.match_id, s.player_name`, clubID, clubID, season, season)
	if err != nil {
		return nil, err
	}
	return scanStats(rows)
}

// PlayerRef identifies a player seen in the store.
type PlayerRef struct {
	PlayerID string
	Name     string
	Role     model.Role
	Matches  int
}

// ListPlayers returns every player with stat rows for a club and season,
// most matches first.
func (db *DB) ListPlayers(clubID, season string) ([]PlayerRef, error) {
	rows, err := db.conn.Query(`
		SELECT s.player_id, MAX(s.player_name), MAX(s.role), COUNT(DISTINCT s.match_id)
		FROM player_stats s JOIN matches m ON m.id = s.match_id
		WHERE (? = '' OR m.club_id = ?) AND (? = '' OR m.season = ?)
		GROUP BY s.player_id
		ORDER BY 4 DESC, 2`, clubID, clubID, season, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRef
	for rows.Next() {
		var p PlayerRef
		var roleStr string
		if err := rows.Scan(&p.PlayerID, &p.Name, &roleStr, &p.Matches); err != nil {
			return nil, err
		}
		p.Role, _ = model.ParseRole(roleStr)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteMatch removes a match and its stat rows. Returns the number of
// matches deleted.
func (db *DB) DeleteMatch(id string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM player_stats WHERE match_id = ?`, id); err != nil {
		return 0, fmt.Errorf("delete player_stats: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// GetOverview returns database-wide counts for the summary command.
func (db *DB) GetOverview() (model.MatchOverview, error) {
	var ov model.MatchOverview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(1), COUNT(DISTINCT season),
		       MIN(NULLIF(substr(match_date, 1, 10), '')), MAX(NULLIF(substr(match_date, 1, 10), ''))
		FROM matches`).Scan(&ov.Matches, &ov.Seasons, &earliest, &latest)
	if err != nil {
		return ov, err
	}
	ov.EarliestMatch, ov.LatestMatch = earliest.String, latest.String
	err = db.conn.QueryRow(`SELECT COUNT(1), COUNT(DISTINCT player_id) FROM player_stats`).
		Scan(&ov.StatRows, &ov.Players)
	return ov, err
}

// QueryRaw runs an arbitrary read query and returns its columns and rows as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
