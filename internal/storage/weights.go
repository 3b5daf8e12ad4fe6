package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/pable/go-wp-metrics/internal/model"
)

// ErrNotFound is returned when a lookup by id or prefix matches nothing.
var ErrNotFound = errors.New("not found")

// FetchMatches returns the stored matches for a club and season.
func (db *DB) FetchMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error) {
	return db.listMatches(ctx, clubID, season)
}

// FetchPlayerStats returns the stored stat rows for a club and season.
func (db *DB) FetchPlayerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error) {
	return db.playerStats(ctx, clubID, season)
}

// FetchWeightMap returns the weight map saved for a user and role. Weights are
// stored as JSON so malformed values come back as they were written.
func (db *DB) FetchWeightMap(ctx context.Context, userID string, role model.Role) (model.WeightMap, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT stat_key, weight FROM weights WHERE user_id = ? AND role = ? ORDER BY stat_key`,
		userID, role.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(model.WeightMap)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, rows.Err()
}

// ToggleWeight adds key with the given weight when absent and removes it when
// present.
func (db *DB) ToggleWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM weights WHERE user_id = ? AND role = ? AND stat_key = ?`,
		userID, role.String(), key)
	if err != nil {
		return fmt.Errorf("toggle weight %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if err := insertWeight(ctx, tx, userID, role, key, weight); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetWeight stores key with the given weight, replacing any previous value.
func (db *DB) SetWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertWeight(ctx, tx, userID, role, key, weight); err != nil {
		return err
	}
	return tx.Commit()
}

func insertWeight(ctx context.Context, tx *sql.Tx, userID string, role model.Role, key string, weight any) error {
	raw, err := json.Marshal(weight)
	if err != nil {
		return fmt.Errorf("encode weight %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO weights(user_id, role, stat_key, weight) VALUES (?,?,?,?)`,
		userID, role.String(), key, string(raw))
	if err != nil {
		return fmt.Errorf("insert weight %s: %w", key, err)
	}
	return nil
}

// ListWeightRows returns every saved weight as a store row, ordered by user,
// role and key.
func (db *DB) ListWeightRows(ctx context.Context) ([]model.Row, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, role, stat_key, weight FROM weights ORDER BY user_id, role, stat_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var user, role, key, raw string
		if err := rows.Scan(&user, &role, &key, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out = append(out, model.Row{
			model.ColUserID:  user,
			model.ColRole:    role,
			model.ColStatKey: key,
			model.ColWeight:  v,
		})
	}
	return out, rows.Err()
}
