package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"fishtank.ai/internal/persistence/snapshot"
	"fishtank.ai/internal/sim/tuning"
	"fishtank.ai/internal/sim/world"
)

func TestSQLiteIndex_RecordSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	snap := snapshot.TankV1{
		Header: snapshot.Header{Version: 1, TankID: "tank_1", SimTimeSec: 120},
		Seed:   42,
		Fish:   make([]snapshot.FishV1, 3),
		Eggs:   make([]snapshot.EggV1, 2),
		Water:  snapshot.WaterV1{Hygiene: 0.8},
	}
	idx.RecordSnapshot("/abs/path/120.snap.zst", snap, "deadbeef")
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		simTime float64
		p       string
		seed    int64
		fish    int
		eggs    int
		hygiene float64
		digest  string
	)
	row := db.QueryRow(`SELECT sim_time_sec,path,seed,fish,eggs,hygiene,digest FROM snapshots WHERE sim_time_sec=120`)
	if err := row.Scan(&simTime, &p, &seed, &fish, &eggs, &hygiene, &digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if p != "/abs/path/120.snap.zst" || seed != 42 || fish != 3 || eggs != 2 || hygiene != 0.8 || digest != "deadbeef" {
		t.Fatalf("row mismatch: path=%q seed=%d fish=%d eggs=%d hygiene=%v digest=%q", p, seed, fish, eggs, hygiene, digest)
	}
}

func TestSQLiteIndex_WriteEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	events := []world.Event{
		{SimTimeSec: 1.5, Type: world.EventFishBorn, Data: map[string]any{"fish_id": 1}},
		{SimTimeSec: 2.5, Type: world.EventFishDied, Data: map[string]any{"fish_id": 1, "reason": "STARVATION"}},
		{SimTimeSec: 3.0, Type: world.EventFoodSpawned},
	}
	for _, ev := range events {
		if err := idx.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(events) {
		t.Fatalf("events: got %d want %d", n, len(events))
	}

	var typ, data string
	row := db.QueryRow(`SELECT type,data_json FROM events WHERE sim_time_sec=2.5`)
	if err := row.Scan(&typ, &data); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if typ != "FISH_DIED" || data == "" {
		t.Fatalf("row mismatch: type=%q data=%q", typ, data)
	}
}

func TestSQLiteIndex_UpsertTuning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning: %v", err)
	}
	// Re-upserting the same values must not create a second row.
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning again: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM configs WHERE name='tuning'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("tuning rows: got %d want 1", n)
	}
	var digest string
	if err := db.QueryRow(`SELECT digest FROM configs WHERE name='tuning'`).Scan(&digest); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest length: %d", len(digest))
	}
}

func TestSQLiteIndex_NilSafe(t *testing.T) {
	var idx *SQLiteIndex
	if err := idx.WriteEvent(world.Event{Type: world.EventFishBorn}); err != nil {
		t.Fatalf("WriteEvent on nil: %v", err)
	}
	idx.RecordSnapshot("x", snapshot.TankV1{}, "d")
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning on nil: %v", err)
	}
}
