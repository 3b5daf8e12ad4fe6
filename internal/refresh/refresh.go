// Package refresh loads a club/season snapshot from a data source and keeps
// only the result of the most recent request.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
)

// ErrStale is returned by Load when a newer Load started before this one
// finished. Its result is discarded.
var ErrStale = errors.New("stale refresh discarded")

// Source provides raw match and stat rows.
type Source interface {
	FetchMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error)
	FetchPlayerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error)
}

// Snapshot is one consistent view of a club's season.
type Snapshot struct {
	ClubID     string
	Season     string
	Matches    aggregator.Sequence
	Stats      []model.PlayerStatRecord
	Generation uint64
	LoadedAt   time.Time
}

// Loader fetches snapshots and publishes the newest one.
type Loader struct {
	src Source
	log *logrus.Entry

	mu      sync.Mutex
	gen     uint64
	current *Snapshot
}

// NewLoader returns a Loader reading from src.
func NewLoader(src Source, log *logrus.Entry) *Loader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loader{src: src, log: log}
}

// Current returns the last published snapshot, or nil before the first
// successful Load.
func (l *Loader) Current() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load fetches matches and stats concurrently and publishes them as the
// current snapshot. A failed fetch leaves the current snapshot untouched. If
// another Load started meanwhile, the result is dropped and ErrStale returned.
func (l *Loader) Load(ctx context.Context, clubID, season string) (*Snapshot, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	log := l.log.WithFields(logrus.Fields{"club": clubID, "season": season, "gen": gen})
	start := time.Now()

	var matches []model.MatchRecord
	var stats []model.PlayerStatRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = l.src.FetchMatches(gctx, clubID, season)
		if err != nil {
			return fmt.Errorf("fetch matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = l.src.FetchPlayerStats(gctx, clubID, season)
		if err != nil {
			return fmt.Errorf("fetch player stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("refresh failed, keeping previous snapshot")
		return nil, err
	}

	snap := &Snapshot{
		ClubID:     clubID,
		Season:     season,
		Matches:    aggregator.SortMatches(matches),
		Stats:      stats,
		Generation: gen,
		LoadedAt:   time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		log.WithField("latest", l.gen).Debug("discarding stale refresh")
		return nil, ErrStale
	}
	l.current = snap
	log.WithFields(logrus.Fields{
		"matches": snap.Matches.Len(),
		"rows":    len(stats),
		"took":    time.Since(start).Round(time.Millisecond),
	}).Info("snapshot loaded")
	return snap, nil
}
