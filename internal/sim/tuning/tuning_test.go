package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_PartialFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	partial := []byte("clock:\n  tick_rate_hz: 30\nbreeding:\n  clutch_max: 6\n")
	if err := os.WriteFile(path, partial, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tune, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tune.Clock.TickRateHz != 30 {
		t.Fatalf("tick_rate_hz: %d", tune.Clock.TickRateHz)
	}
	if tune.Breeding.ClutchMax != 6 {
		t.Fatalf("clutch_max: %d", tune.Breeding.ClutchMax)
	}
	// Untouched sections keep their defaults.
	def := Defaults()
	if tune.Clock.LifeScale != def.Clock.LifeScale {
		t.Fatalf("life_scale: %v", tune.Clock.LifeScale)
	}
	if tune.Fish.LifespanMeanSec != def.Fish.LifespanMeanSec {
		t.Fatalf("lifespan_mean_sec: %v", tune.Fish.LifespanMeanSec)
	}
}

func TestLoad_MissingFileReportsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("want not-exist error, got %v", err)
	}
}

func TestLoad_ShippedFileMatchesDefaults(t *testing.T) {
	tune, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tune != Defaults() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults()")
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("clock: [not a map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("want error for malformed yaml")
	}
}
