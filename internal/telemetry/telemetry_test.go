package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"fishtank.ai/internal/sim/tuning"
	"fishtank.ai/internal/sim/world"
)

func newTestWorld(t *testing.T, n int) *world.World {
	t.Helper()
	w := world.New(world.Config{ID: "test", Width: 800, Height: 500, Seed: 7}, tuning.Defaults())
	w.SpawnInitialPopulation(n)
	return w
}

func TestRecorder_WritesWindowRows(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, 1.0)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	w := newTestWorld(t, 4)
	w.FlushEvents()

	births := []world.Event{
		{SimTimeSec: w.SimTimeSec(), Type: world.EventFishBorn},
		{SimTimeSec: w.SimTimeSec(), Type: world.EventEggHatched},
	}
	if err := rec.Observe(w, births); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	// Cross the window boundary; the defaults map one raw second onto one
	// simulated second.
	w.Update(1.5)
	w.FlushEvents()
	deaths := []world.Event{{SimTimeSec: w.SimTimeSec(), Type: world.EventFishDied}}
	if err := rec.Observe(w, deaths); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	// Second window.
	w.Update(1.5)
	w.FlushEvents()
	if err := rec.Observe(w, nil); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "windows.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	var rows []WindowStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("unmarshal csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d want 2", len(rows))
	}

	first := rows[0]
	if first.FishAlive != 4 {
		t.Fatalf("fish_alive: %d", first.FishAlive)
	}
	if first.Births != 2 || first.Deaths != 1 {
		t.Fatalf("counters: births=%d deaths=%d", first.Births, first.Deaths)
	}
	if first.WellbeingMean <= 0 || first.WellbeingMean > 1 {
		t.Fatalf("wellbeing_mean: %v", first.WellbeingMean)
	}

	// Counters reset between windows.
	if rows[1].Births != 0 || rows[1].Deaths != 0 {
		t.Fatalf("second window counters: %+v", rows[1])
	}
}

func TestRecorder_HeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, 0.5)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	w := newTestWorld(t, 1)
	for i := 0; i < 4; i++ {
		w.Update(1)
		w.FlushEvents()
		if err := rec.Observe(w, nil); err != nil {
			t.Fatalf("Observe: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "windows.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if n := strings.Count(string(b), "window_end_sec"); n != 1 {
		t.Fatalf("header occurrences: %d", n)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var rec *Recorder
	w := newTestWorld(t, 1)
	if err := rec.Observe(w, []world.Event{{Type: world.EventFishBorn}}); err != nil {
		t.Fatalf("Observe on nil: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}

func TestNewRecorder_EmptyDirDisables(t *testing.T) {
	rec, err := NewRecorder("", 1)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil recorder")
	}
}
