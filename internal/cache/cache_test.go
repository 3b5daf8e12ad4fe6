package cache

import (
	"context"
	"testing"
	"time"
)

func TestKeyIsStable(t *testing.T) {
	a := Key("series", "c1", "2024-25", "goals")
	if a != Key("series", "c1", "2024-25", "goals") {
		t.Error("same parts should give the same key")
	}
	if a == Key("series", "c1", "2024-25", "fouls") {
		t.Error("different parts should give different keys")
	}
	// Part boundaries are part of the identity.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("keys should not collide across part boundaries")
	}
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("empty cache should miss")
	}
	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q %v %v", v, ok, err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestMemoryIsBounded(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySize(3)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		m.Set(ctx, k, []byte(k), time.Hour)
	}
	if m.Len() != 3 {
		t.Fatalf("want 3 entries, got %d", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok, _ := m.Get(ctx, "e"); !ok || string(v) != "e" {
		t.Error("newest entry should be kept")
	}

	// Expired entries go before live ones.
	m.Set(ctx, "short", []byte("s"), time.Minute)
	clock = clock.Add(2 * time.Minute)
	m.Set(ctx, "f", []byte("f"), time.Hour)
	if m.Len() != 3 {
		t.Errorf("want 3 entries, got %d", m.Len())
	}
	for _, k := range []string{"d", "e", "f"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Errorf("live entry %s should survive the sweep", k)
		}
	}

	// Overwriting an existing key never evicts.
	m.Set(ctx, "extra", []byte("x"), time.Hour)
	m.Set(ctx, "f", []byte("f2"), time.Hour)
	if m.Len() != 3 {
		t.Errorf("overwrite changed the size: %d", m.Len())
	}
}

func TestOpenWithoutURLIsMemory(t *testing.T) {
	c, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := c.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", c)
	}
}
