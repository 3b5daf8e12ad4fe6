package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pable/go-wp-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func round(n int) *int { return &n }

func seedMatches(t *testing.T, db *DB) {
	t.Helper()
	matches := []model.MatchRecord{
		{ID: "m1", ClubID: "c1", Season: "2024-25", Date: time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC), Round: round(1), Opponent: "CN Sabadell", IsHome: true, HomeScore: 11, AwayScore: 9},
		{ID: "m2", ClubID: "c1", Season: "2024-25", Date: time.Date(2024, 10, 12, 0, 0, 0, 0, time.UTC), Round: round(2), Opponent: "CN Terrassa", HomeScore: 8, AwayScore: 8},
		{ID: "m3", ClubID: "c2", Season: "2024-25", Date: time.Date(2024, 10, 19, 0, 0, 0, 0, time.UTC), Opponent: "CN Mataró"},
	}
	if err := db.InsertMatches(matches); err != nil {
		t.Fatalf("InsertMatches: %v", err)
	}
}

func TestMatchInsertAndExists(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)

	exists, err := db.MatchExists("m1")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist after insert")
	}

	exists2, _ := db.MatchExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent match to not exist")
	}
}

func TestListMatches(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)

	list, err := db.ListMatches("c1", "2024-25")
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches for c1, got %d", len(list))
	}
	// Ordered by match_date DESC.
	if list[0].ID != "m2" {
		t.Errorf("expected m2 first (newest), got %s", list[0].ID)
	}
	if list[1].Round == nil || *list[1].Round != 1 || !list[1].IsHome || list[1].HomeScore != 11 {
		t.Errorf("m1 did not survive the round trip: %+v", list[1])
	}

	all, err := db.ListMatches("", "")
	if err != nil {
		t.Fatalf("ListMatches unfiltered: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 matches unfiltered, got %d", len(all))
	}
	for _, m := range all {
		if m.ID == "m3" && m.Round != nil {
			t.Errorf("m3 should have no round, got %d", *m.Round)
		}
	}
}

func TestListMatchesKeepsTimeOfDay(t *testing.T) {
	db := openMemDB(t)
	day := func(h int) time.Time { return time.Date(2024, 11, 2, h, 0, 0, 0, time.UTC) }
	err := db.InsertMatches([]model.MatchRecord{
		{ID: "a-morning", ClubID: "c1", Season: "2024-25", Date: day(10), Round: round(4)},
		{ID: "b-evening", ClubID: "c1", Season: "2024-25", Date: day(18), Round: round(4)},
	})
	if err != nil {
		t.Fatalf("InsertMatches: %v", err)
	}
	list, err := db.ListMatches("c1", "2024-25")
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b-evening" || list[1].ID != "a-morning" {
		t.Fatalf("expected newest first by time of day, got %+v", list)
	}
	if !list[0].Date.Equal(day(18)) {
		t.Errorf("time of day lost: got %v", list[0].Date)
	}
}

func TestGetMatchByPrefix(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatches([]model.MatchRecord{{ID: "deadbeef1234", ClubID: "c1", Season: "s"}})

	m, err := db.GetMatchByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetMatchByPrefix: %v", err)
	}
	if m.ID != "deadbeef1234" {
		t.Errorf("unexpected id %s", m.ID)
	}

	_, err = db.GetMatchByPrefix("ffffffff")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown prefix, got %v", err)
	}
}

func TestPlayerStatsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)

	stats := []model.PlayerStatRecord{
		{ID: "s1", MatchID: "m1", PlayerID: "p1", PlayerName: "Alba", Role: model.RoleField,
			Counters: model.Row{model.GolesBoya: 2, model.FallosLanzamiento: 1, "nota": "abc"}},
		{ID: "s2", MatchID: "m1", PlayerID: "gk", PlayerName: "Berta", Role: model.RoleGoalkeeper,
			Counters: model.Row{model.PorteroParadasBoya: 7}},
		{ID: "s3", MatchID: "m3", PlayerID: "p1", PlayerName: "Alba", Role: model.RoleField,
			Counters: model.Row{model.GolesBoya: 5}},
	}
	if err := db.InsertPlayerStats(stats); err != nil {
		t.Fatalf("InsertPlayerStats: %v", err)
	}

	got, err := db.GetPlayerStatsByMatch("m1")
	if err != nil {
		t.Fatalf("GetPlayerStatsByMatch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 player rows, got %d", len(got))
	}

	var alba, gk *model.PlayerStatRecord
	for i := range got {
		switch got[i].PlayerID {
		case "p1":
			alba = &got[i]
		case "gk":
			gk = &got[i]
		}
	}
	if alba == nil || gk == nil {
		t.Fatal("expected both players in results")
	}
	if alba.Value(model.GolesBoya) != 2 || alba.Value(model.FallosLanzamiento) != 1 {
		t.Errorf("Alba counters mismatch: %+v", alba.Counters)
	}
	if alba.Counters["nota"] != "abc" {
		t.Errorf("non-numeric counter should be kept as delivered, got %v", alba.Counters["nota"])
	}
	if gk.Role != model.RoleGoalkeeper {
		t.Errorf("gk role: expected goalkeeper, got %v", gk.Role)
	}

	season, err := db.FetchPlayerStats(context.Background(), "c1", "2024-25")
	if err != nil {
		t.Fatalf("FetchPlayerStats: %v", err)
	}
	if len(season) != 2 {
		t.Errorf("expected club c1 rows only, got %d", len(season))
	}

	players, err := db.ListPlayers("", "")
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 2 || players[0].PlayerID != "p1" || players[0].Matches != 2 {
		t.Errorf("unexpected players: %+v", players)
	}
}

func TestInsertIdempotency(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)
	db.InsertPlayerStats([]model.PlayerStatRecord{{ID: "s1", MatchID: "m1", PlayerID: "p1", Counters: model.Row{}}})

	// Re-inserting a match must not cascade into its stat rows.
	if err := db.InsertMatches([]model.MatchRecord{{ID: "m1", ClubID: "c1", Season: "2024-25", HomeScore: 12}}); err != nil {
		t.Errorf("second InsertMatches should succeed (idempotent): %v", err)
	}
	rows, _ := db.GetPlayerStatsByMatch("m1")
	if len(rows) != 1 {
		t.Errorf("expected stat row to survive re-insert, got %d", len(rows))
	}
}

func TestDeleteMatch(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)
	db.InsertPlayerStats([]model.PlayerStatRecord{{ID: "s1", MatchID: "m1", PlayerID: "p1", Counters: model.Row{}}})

	n, err := db.DeleteMatch("m1")
	if err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 match deleted, got %d", n)
	}
	rows, _ := db.GetPlayerStatsByMatch("m1")
	if len(rows) != 0 {
		t.Errorf("expected stat rows removed, got %d", len(rows))
	}
	n, _ = db.DeleteMatch("m1")
	if n != 0 {
		t.Errorf("second delete should affect nothing, got %d", n)
	}
}

func TestWeights(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := db.ToggleWeight(ctx, "u1", model.RoleField, model.GolesTotales, 10); err != nil {
		t.Fatalf("ToggleWeight add: %v", err)
	}
	if err := db.SetWeight(ctx, "u1", model.RoleField, model.TirosTotales, -1.5); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	if err := db.SetWeight(ctx, "u1", model.RoleGoalkeeper, model.PorteroParadasBoya, "abc"); err != nil {
		t.Fatalf("SetWeight goalkeeper: %v", err)
	}

	w, err := db.FetchWeightMap(ctx, "u1", model.RoleField)
	if err != nil {
		t.Fatalf("FetchWeightMap: %v", err)
	}
	if len(w) != 2 || w[model.GolesTotales] != 10.0 || w[model.TirosTotales] != -1.5 {
		t.Errorf("unexpected field weights: %v", w)
	}

	gk, _ := db.FetchWeightMap(ctx, "u1", model.RoleGoalkeeper)
	if gk[model.PorteroParadasBoya] != "abc" {
		t.Errorf("malformed weight should come back as stored, got %v", gk[model.PorteroParadasBoya])
	}

	if err := db.ToggleWeight(ctx, "u1", model.RoleField, model.GolesTotales, 10); err != nil {
		t.Fatalf("ToggleWeight remove: %v", err)
	}
	w, _ = db.FetchWeightMap(ctx, "u1", model.RoleField)
	if _, ok := w[model.GolesTotales]; ok || len(w) != 1 {
		t.Errorf("expected toggle to remove key, got %v", w)
	}

	all, err := db.ListWeightRows(ctx)
	if err != nil {
		t.Fatalf("ListWeightRows: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 weight rows, got %d", len(all))
	}
	if all[0][model.ColStatKey] != model.TirosTotales || all[1][model.ColRole] != "goalkeeper" {
		t.Errorf("unexpected weight rows: %v", all)
	}
}

func TestGetOverviewAndQueryRaw(t *testing.T) {
	db := openMemDB(t)
	seedMatches(t, db)
	db.InsertPlayerStats([]model.PlayerStatRecord{
		{ID: "s1", MatchID: "m1", PlayerID: "p1", Counters: model.Row{}},
		{ID: "s2", MatchID: "m2", PlayerID: "p1", Counters: model.Row{}},
	})

	ov, err := db.GetOverview()
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	if ov.Matches != 3 || ov.Players != 1 || ov.StatRows != 2 || ov.Seasons != 1 {
		t.Errorf("unexpected overview: %+v", ov)
	}
	if ov.EarliestMatch != "2024-10-05" || ov.LatestMatch != "2024-10-19" {
		t.Errorf("unexpected date range: %s..%s", ov.EarliestMatch, ov.LatestMatch)
	}

	cols, rows, err := db.QueryRaw("SELECT id, jornada FROM matches ORDER BY id")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || len(rows) != 3 {
		t.Fatalf("unexpected shape: %v %v", cols, rows)
	}
	if rows[2][1] != "NULL" {
		t.Errorf("expected NULL jornada for m3, got %q", rows[2][1])
	}
}
