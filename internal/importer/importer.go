// Package importer loads exported match snapshots (plain, gzip or zstd JSON)
// into the local store.
package importer

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-wp-metrics/internal/model"
)

// Snapshot is the raw content of an export file.
type Snapshot struct {
	Matches     []model.Row `json:"matches"`
	PlayerStats []model.Row `json:"player_stats"`
	Weights     []model.Row `json:"weights"`
}

// Sink receives decoded records.
type Sink interface {
	InsertMatches(matches []model.MatchRecord) error
	InsertPlayerStats(stats []model.PlayerStatRecord) error
	SetWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error
}

// Result counts what an import wrote and skipped.
type Result struct {
	Matches int
	Stats   int
	Weights int
	Skipped int
}

// ReadFile opens path and decodes it, decompressing by extension.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	snap, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

// Decode reads a snapshot document from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Natural keys used to derive ids for rows that carry none.
var (
	matchKey = []string{model.ColClubID, model.ColSeason, model.ColRound, model.ColDate, model.ColOpponent}
	statKey  = []string{model.ColMatchID, model.ColPlayerID}
)

// ensureID gives rows without an id one derived from their natural key, so
// importing the same file again replaces rows instead of duplicating them.
func ensureID(r model.Row, kind string, keys []string) {
	if v, ok := r[model.ColID]; ok && v != nil && v != "" {
		return
	}
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, kind)
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			parts = append(parts, fmt.Sprint(v))
		} else {
			parts = append(parts, "")
		}
	}
	r[model.ColID] = uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "\x1f"))).String()
}

// Import decodes the snapshot rows and writes them to sink. Rows that fail to
// decode are skipped and logged.
func Import(ctx context.Context, sink Sink, snap *Snapshot, log *logrus.Entry) (Result, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	var res Result

	matches := make([]model.MatchRecord, 0, len(snap.Matches))
	for _, r := range snap.Matches {
		ensureID(r, "match", matchKey)
		m, err := model.MatchFromRow(r)
		if err != nil {
			log.WithError(err).Warn("skipping match row")
			res.Skipped++
			continue
		}
		matches = append(matches, m)
	}
	if err := sink.InsertMatches(matches); err != nil {
		return res, fmt.Errorf("insert matches: %w", err)
	}
	res.Matches = len(matches)

	stats := make([]model.PlayerStatRecord, 0, len(snap.PlayerStats))
	for _, r := range snap.PlayerStats {
		ensureID(r, "stat", statKey)
		s, err := model.StatFromRow(r)
		if err != nil {
			log.WithError(err).Warn("skipping stat row")
			res.Skipped++
			continue
		}
		stats = append(stats, s)
	}
	if err := sink.InsertPlayerStats(stats); err != nil {
		return res, fmt.Errorf("insert player stats: %w", err)
	}
	res.Stats = len(stats)

	for _, r := range snap.Weights {
		userID, _ := r[model.ColUserID].(string)
		key, _ := r[model.ColStatKey].(string)
		roleStr, _ := r[model.ColRole].(string)
		role, err := model.ParseRole(roleStr)
		if userID == "" || key == "" || err != nil {
			log.WithFields(logrus.Fields{"user": userID, "key": key}).Warn("skipping weight row")
			res.Skipped++
			continue
		}
		if err := sink.SetWeight(ctx, userID, role, key, r[model.ColWeight]); err != nil {
			return res, fmt.Errorf("set weight %s: %w", key, err)
		}
		res.Weights++
	}

	log.WithFields(logrus.Fields{
		"matches": res.Matches,
		"stats":   res.Stats,
		"weights": res.Weights,
		"skipped": res.Skipped,
	}).Info("import complete")
	return res, nil
}
