package staging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pable/go-wp-metrics/internal/model"
)

type call struct {
	op  string
	key string
}

// fakeStore is an in-memory Store that records every write.
type fakeStore struct {
	mu      sync.Mutex
	weights model.WeightMap
	calls   []call
	failOn  string
	block   chan struct{}
}

func newFakeStore(w model.WeightMap) *fakeStore {
	if w == nil {
		w = model.WeightMap{}
	}
	return &fakeStore{weights: w}
}

func (f *fakeStore) FetchWeightMap(ctx context.Context, userID string, role model.Role) (model.WeightMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.weights.Clone(), nil
}

func (f *fakeStore) write(op, key string, weight any) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op, key})
	if key == f.failOn {
		return errors.New("boom")
	}
	if _, ok := f.weights[key]; ok && op == "toggle" {
		delete(f.weights, key)
		return nil
	}
	f.weights[key] = weight
	return nil
}

func (f *fakeStore) ToggleWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	return f.write("toggle", key, weight)
}

func (f *fakeStore) SetWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	return f.write("set", key, weight)
}

func newStager(t *testing.T, store Store) *Stager {
	t.Helper()
	s, err := New(context.Background(), store, "u1", model.RoleField, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestStagerLifecycle(t *testing.T) {
	store := newFakeStore(model.WeightMap{"a": 1.0, "b": 2.0, "c": 3.0})
	s := newStager(t, store)

	if st, _ := s.State(); st != Clean || s.IsDirty() {
		t.Fatalf("new stager should be clean, got %v", st)
	}

	s.Remove("a")
	s.Set("b", 5.0)
	s.Toggle("d", 4.0)
	if st, _ := s.State(); st != Dirty || !s.IsDirty() {
		t.Fatalf("expected dirty after edits, got %v", st)
	}

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := []call{{"toggle", "a"}, {"set", "b"}, {"toggle", "d"}}
	if len(store.calls) != len(want) {
		t.Fatalf("calls: want %v, got %v", want, store.calls)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Errorf("call %d: want %v, got %v", i, want[i], store.calls[i])
		}
	}
	if st, _ := s.State(); st != Clean || s.IsDirty() {
		t.Errorf("expected clean after commit, got %v", st)
	}
	if !equalMaps(store.weights, model.WeightMap{"b": 5.0, "c": 3.0, "d": 4.0}) {
		t.Errorf("store weights: %v", store.weights)
	}
}

func TestStagerToggleBackIsClean(t *testing.T) {
	s := newStager(t, newFakeStore(model.WeightMap{"a": 1.0}))
	s.Toggle("a", 1.0)
	s.Toggle("a", 1.0)
	if s.IsDirty() {
		t.Error("toggling a key twice should leave the draft clean")
	}
	if st, _ := s.State(); st != Clean {
		t.Errorf("expected Clean, got %v", st)
	}
}

func TestStagerDiscard(t *testing.T) {
	store := newFakeStore(model.WeightMap{"a": 1.0})
	s := newStager(t, store)
	s.Set("z", 9.0)
	s.Discard()
	if s.IsDirty() {
		t.Error("discard should revert the draft")
	}
	if _, ok := s.Draft()["z"]; ok {
		t.Error("draft still holds discarded key")
	}
	if err := s.Commit(context.Background()); err != nil || len(store.calls) != 0 {
		t.Errorf("commit of clean draft should be a no-op, err=%v calls=%v", err, store.calls)
	}
}

func TestStagerCommitFailureKeepsDraft(t *testing.T) {
	store := newFakeStore(model.WeightMap{"a": 1.0})
	store.failOn = "c"
	s := newStager(t, store)

	s.Set("b", 2.0)
	s.Set("c", 3.0)
	err := s.Commit(context.Background())
	if err == nil {
		t.Fatal("expected commit error")
	}
	st, lastErr := s.State()
	if st != Error || lastErr == nil {
		t.Errorf("expected Error state, got %v (%v)", st, lastErr)
	}
	d := s.Draft()
	if d["b"] != 2.0 || d["c"] != 3.0 {
		t.Errorf("draft should be preserved, got %v", d)
	}
	// "b" reached the store before the failure; the reload picks it up.
	saved := s.Saved()
	if saved["b"] != 2.0 {
		t.Errorf("expected reconciled saved map to include b, got %v", saved)
	}

	store.failOn = ""
	store.calls = nil
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("retry Commit: %v", err)
	}
	if len(store.calls) != 1 || store.calls[0] != (call{"toggle", "c"}) {
		t.Errorf("retry should only write c, got %v", store.calls)
	}
	if st, _ := s.State(); st != Clean {
		t.Errorf("expected Clean after retry, got %v", st)
	}
}

func TestStagerConcurrentCommit(t *testing.T) {
	store := newFakeStore(nil)
	store.block = make(chan struct{})
	s := newStager(t, store)
	s.Set("a", 1.0)

	done := make(chan error)
	go func() { done <- s.Commit(context.Background()) }()

	// Wait until the first commit is in flight.
	for {
		if st, _ := s.State(); st == Saving {
			break
		}
	}
	if err := s.Commit(context.Background()); !errors.Is(err, ErrSaving) {
		t.Errorf("expected ErrSaving, got %v", err)
	}
	close(store.block)
	if err := <-done; err != nil {
		t.Fatalf("first Commit: %v", err)
	}
}
