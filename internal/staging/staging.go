// Package staging holds unsaved weight edits for one user and role, and
// commits them to a store as the minimal set of per-key changes.
package staging

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-wp-metrics/internal/model"
)

// ErrSaving is returned by Commit while a previous commit is still running.
var ErrSaving = errors.New("commit already in progress")

// Store persists weight maps.
type Store interface {
	FetchWeightMap(ctx context.Context, userID string, role model.Role) (model.WeightMap, error)
	ToggleWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error
	SetWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error
}

// State is the lifecycle of a Stager.
type State int

const (
	Clean State = iota
	Dirty
	Saving
	Error
)

func (s State) String() string {
	switch s {
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	case Error:
		return "error"
	default:
		return "clean"
	}
}

// Stager tracks the last-saved and draft weight maps for one user and role.
type Stager struct {
	store  Store
	userID string
	role   model.Role
	log    *logrus.Entry

	mu      sync.Mutex
	saved   model.WeightMap
	draft   model.WeightMap
	state   State
	lastErr error
}

// New loads the saved weight map and returns a Clean stager.
func New(ctx context.Context, store Store, userID string, role model.Role, log *logrus.Entry) (*Stager, error) {
	saved, err := store.FetchWeightMap(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("fetch weights: %w", err)
	}
	if saved == nil {
		saved = model.WeightMap{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Stager{
		store:  store,
		userID: userID,
		role:   role,
		log:    log.WithFields(logrus.Fields{"user": userID, "role": role.String()}),
		saved:  saved.Clone(),
		draft:  saved.Clone(),
	}, nil
}

// Draft returns a copy of the draft map.
func (s *Stager) Draft() model.WeightMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Saved returns a copy of the last-saved map.
func (s *Stager) Saved() model.WeightMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved.Clone()
}

// State returns the current lifecycle state and the error of the last failed
// commit, if any.
func (s *Stager) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// IsDirty reports whether the draft differs from the last-saved map.
func (s *Stager) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !equalMaps(s.draft, s.saved)
}

// Set puts key into the draft with the given weight.
func (s *Stager) Set(key string, weight any) {
	s.edit(func(d model.WeightMap) { d[key] = weight })
}

// Remove deletes key from the draft.
func (s *Stager) Remove(key string) {
	s.edit(func(d model.WeightMap) { delete(d, key) })
}

// Toggle removes key from the draft when present and adds it with the given
// weight otherwise.
func (s *Stager) Toggle(key string, weight any) {
	s.edit(func(d model.WeightMap) {
		if _, ok := d[key]; ok {
			delete(d, key)
			return
		}
		d[key] = weight
	})
}

func (s *Stager) edit(fn func(model.WeightMap)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.draft)
	if s.state == Saving {
		return
	}
	if equalMaps(s.draft, s.saved) {
		s.state = Clean
	} else {
		s.state = Dirty
	}
	s.lastErr = nil
}

// Discard reverts the draft to the last-saved map.
func (s *Stager) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Saving {
		return
	}
	s.draft = s.saved.Clone()
	s.state = Clean
	s.lastErr = nil
}

type change struct {
	key    string
	weight any
	toggle bool
}

// diff returns the changes that turn saved into draft: one toggle per key in
// the symmetric difference, one set per shared key whose weight changed.
func diff(saved, draft model.WeightMap) []change {
	var out []change
	for k, v := range draft {
		old, ok := saved[k]
		switch {
		case !ok:
			out = append(out, change{key: k, weight: v, toggle: true})
		case !reflect.DeepEqual(old, v):
			out = append(out, change{key: k, weight: v})
		}
	}
	for k, v := range saved {
		if _, ok := draft[k]; !ok {
			out = append(out, change{key: k, weight: v, toggle: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Commit applies the draft to the store. On success the draft becomes the
// last-saved map. On failure the draft is kept, the state becomes Error and
// the last-saved map is reloaded from the store so later diffs start from
// what was actually persisted.
func (s *Stager) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return ErrSaving
	}
	changes := diff(s.saved, s.draft)
	if len(changes) == 0 {
		s.state = Clean
		s.lastErr = nil
		s.mu.Unlock()
		return nil
	}
	snapshot := s.draft.Clone()
	s.state = Saving
	s.mu.Unlock()

	s.log.WithField("changes", len(changes)).Debug("committing weights")
	err := s.apply(ctx, changes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.saved = snapshot
		s.lastErr = nil
		if equalMaps(s.draft, s.saved) {
			s.state = Clean
		} else {
			s.state = Dirty
		}
		return nil
	}

	s.state = Error
	s.lastErr = err
	s.log.WithError(err).Warn("weight commit failed")
	if fresh, rerr := s.store.FetchWeightMap(ctx, s.userID, s.role); rerr != nil {
		s.log.WithError(rerr).Warn("reconciliation reload failed")
	} else if fresh != nil {
		s.saved = fresh.Clone()
	}
	return err
}

func (s *Stager) apply(ctx context.Context, changes []change) error {
	for _, c := range changes {
		var err error
		if c.toggle {
			err = s.store.ToggleWeight(ctx, s.userID, s.role, c.key, c.weight)
		} else {
			err = s.store.SetWeight(ctx, s.userID, s.role, c.key, c.weight)
		}
		if err != nil {
			return fmt.Errorf("save weight %s: %w", c.key, err)
		}
	}
	return nil
}

func equalMaps(a, b model.WeightMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}
