package importer

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-wp-metrics/internal/model"
)

// Store is what an export reads from.
type Store interface {
	FetchMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error)
	FetchPlayerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error)
	ListWeightRows(ctx context.Context) ([]model.Row, error)
}

// Collect builds a snapshot of one club and season. Empty filters select
// everything. Weights are only included when withWeights is set.
func Collect(ctx context.Context, src Store, clubID, season string, withWeights bool) (*Snapshot, error) {
	matches, err := src.FetchMatches(ctx, clubID, season)
	if err != nil {
		return nil, fmt.Errorf("fetch matches: %w", err)
	}
	stats, err := src.FetchPlayerStats(ctx, clubID, season)
	if err != nil {
		return nil, fmt.Errorf("fetch player stats: %w", err)
	}

	snap := &Snapshot{
		Matches:     make([]model.Row, 0, len(matches)),
		PlayerStats: make([]model.Row, 0, len(stats)),
		Weights:     []model.Row{},
	}
	for _, m := range matches {
		snap.Matches = append(snap.Matches, model.MatchToRow(m))
	}
	for _, s := range stats {
		snap.PlayerStats = append(snap.PlayerStats, model.StatToRow(s))
	}
	if withWeights {
		if snap.Weights, err = src.ListWeightRows(ctx); err != nil {
			return nil, fmt.Errorf("list weights: %w", err)
		}
	}
	return snap, nil
}

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteFile writes snap to path, compressing by extension the same way
// ReadFile decompresses.
func WriteFile(path string, snap *Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".zst"):
		if w, err = zstd.NewWriter(f); err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
	case strings.HasSuffix(path, ".gz"):
		w = gzip.NewWriter(f)
	default:
		return Encode(f, snap)
	}
	if err := Encode(w, snap); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Close()
}
