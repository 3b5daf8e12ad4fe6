package refresh

import (
	"context"
	"errors"
	"testing"

	"github.com/pable/go-wp-metrics/internal/model"
)

func round(n int) *int { return &n }

// fakeSource serves fixed rows per club. A club listed in gate blocks until
// its channel is closed.
type fakeSource struct {
	matches map[string][]model.MatchRecord
	fail    error
	gate    map[string]chan struct{}
}

func (f *fakeSource) wait(ctx context.Context, clubID string) error {
	if ch, ok := f.gate[clubID]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeSource) FetchMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error) {
	if err := f.wait(ctx, clubID); err != nil {
		return nil, err
	}
	if f.fail != nil {
		return nil, f.fail
	}
	return f.matches[clubID], nil
}

func (f *fakeSource) FetchPlayerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error) {
	if err := f.wait(ctx, clubID); err != nil {
		return nil, err
	}
	var out []model.PlayerStatRecord
	for _, m := range f.matches[clubID] {
		out = append(out, model.PlayerStatRecord{ID: m.ID + "-p1", MatchID: m.ID, PlayerID: "p1"})
	}
	return out, nil
}

func TestLoadSequencesMatches(t *testing.T) {
	src := &fakeSource{matches: map[string][]model.MatchRecord{
		"c1": {{ID: "late"}, {ID: "r2", Round: round(2)}, {ID: "r1", Round: round(1)}},
	}}
	l := NewLoader(src, nil)

	snap, err := l.Load(context.Background(), "c1", "2024-25")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"r1", "r2", "late"}
	for i, id := range want {
		if snap.Matches.At(i).ID != id {
			t.Errorf("position %d: want %s, got %s", i, id, snap.Matches.At(i).ID)
		}
	}
	if len(snap.Stats) != 3 {
		t.Errorf("expected 3 stat rows, got %d", len(snap.Stats))
	}
	if l.Current() != snap {
		t.Error("expected loaded snapshot to be current")
	}
}

func TestLoadFailureKeepsPrevious(t *testing.T) {
	src := &fakeSource{matches: map[string][]model.MatchRecord{"c1": {{ID: "m1"}}}}
	l := NewLoader(src, nil)
	first, err := l.Load(context.Background(), "c1", "s")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.fail = errors.New("upstream down")
	if _, err := l.Load(context.Background(), "c1", "s"); err == nil {
		t.Fatal("expected error from failing source")
	}
	if l.Current() != first {
		t.Error("failed refresh must not replace the current snapshot")
	}
}

func TestLoadDiscardsStaleResponse(t *testing.T) {
	slow := make(chan struct{})
	src := &fakeSource{
		matches: map[string][]model.MatchRecord{
			"old": {{ID: "old-1"}},
			"new": {{ID: "new-1"}},
		},
		gate: map[string]chan struct{}{"old": slow},
	}
	l := NewLoader(src, nil)

	type result struct {
		snap *Snapshot
		err  error
	}
	done := make(chan result)
	go func() {
		s, err := l.Load(context.Background(), "old", "s")
		done <- result{s, err}
	}()

	// Wait for the old request to take its generation.
	for {
		l.mu.Lock()
		g := l.gen
		l.mu.Unlock()
		if g == 1 {
			break
		}
	}

	newer, err := l.Load(context.Background(), "new", "s")
	if err != nil {
		t.Fatalf("newer Load: %v", err)
	}
	close(slow)

	old := <-done
	if !errors.Is(old.err, ErrStale) {
		t.Errorf("expected ErrStale for the older request, got %v", old.err)
	}
	if cur := l.Current(); cur != newer || cur.ClubID != "new" {
		t.Errorf("stale response overwrote the newer snapshot: %+v", cur)
	}
}
