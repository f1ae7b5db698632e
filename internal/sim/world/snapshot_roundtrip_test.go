package world

import (
	"testing"

	"fishtank.ai/internal/persistence/snapshot"
	"fishtank.ai/internal/sim/tuning"
)

func TestSnapshotExportImport_RoundTripDigest(t *testing.T) {
	cfg := Config{ID: "test", Width: 800, Height: 500, Seed: 42}
	w1 := New(cfg, tuning.Defaults())
	w1.SpawnInitialPopulation(6)
	w1.SpawnFood(100, 80, 1, 30)
	w1.SpawnFood(300, 60, 0.5, 20)
	w1.SetSpeedMultiplier(1.5)

	// Make a few deterministic changes and advance.
	fishes := w1.Fish()
	w1.RenameFish(fishes[0].ID, "Captain")
	fishes[1].Repro.Phase = ReproGravid
	fishes[1].Repro.Sex = SexFemale
	fishes[1].Repro.FatherID = fishes[2].ID
	fishes[1].Repro.DueTimeSec = w1.SimTimeSec() + 500
	w1.killFish(fishes[3], DeathOldAge)
	for i := 0; i < 10; i++ {
		w1.Update(0.05)
	}

	d1 := w1.StateDigest()
	snap := w1.ExportSnapshot()

	w2 := New(cfg, tuning.Defaults())
	w2.ImportSnapshot(snap)

	if d2 := w2.StateDigest(); d1 != d2 {
		t.Fatalf("digest mismatch after import:\n%s\n%s", d1, d2)
	}
	if got, want := len(w2.Fish()), len(w1.Fish()); got != want {
		t.Fatalf("fish count: got %d want %d", got, want)
	}
	if got, want := w2.SimTimeSec(), w1.SimTimeSec(); got != want {
		t.Fatalf("sim time: got %v want %v", got, want)
	}
}

func TestToJSONFromJSON_RoundTrip(t *testing.T) {
	cfg := Config{ID: "test", Width: 800, Height: 500, Seed: 7}
	w1 := New(cfg, tuning.Defaults())
	w1.SpawnInitialPopulation(4)
	w1.SpawnFood(50, 50, 1, 30)

	payload, err := w1.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	w2 := New(cfg, tuning.Defaults())
	if err := w2.FromJSON(payload, 99); err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got, want := w2.StateDigest(), w1.StateDigest(); got != want {
		t.Fatalf("digest mismatch after json round trip")
	}
}

func TestFromJSON_CorruptPayloadDegradesToFallback(t *testing.T) {
	w := New(Config{ID: "test", Width: 800, Height: 500, Seed: 7}, tuning.Defaults())
	if err := w.FromJSON([]byte("{not json"), 3); err == nil {
		t.Fatalf("expected parse error to be reported")
	}
	if got := len(w.Fish()); got != 3 {
		t.Fatalf("fallback population: got %d want 3", got)
	}
}

func TestImportSnapshot_ClampsOutOfBoundsPositions(t *testing.T) {
	cfg := Config{ID: "test", Width: 800, Height: 500, Seed: 1}
	w1 := New(cfg, tuning.Defaults())
	w1.SpawnInitialPopulation(1)
	snap := w1.ExportSnapshot()
	snap.Fish[0].Pos = [2]float64{-1000, 9999}
	snap.Food = append(snap.Food, snapFood(1, -50, 1200))
	snap.Counters.NextFood = 1

	w2 := New(cfg, tuning.Defaults())
	w2.ImportSnapshot(snap)

	f := w2.Fish()[0]
	if f.Pos.X < 0 || f.Pos.X > 800 || f.Pos.Y < 0 || f.Pos.Y > 500 {
		t.Fatalf("fish position not clamped: %+v", f.Pos)
	}
	p := w2.Food()[0]
	if p.Pos.X < 0 || p.Pos.X > 800 || p.Pos.Y < 0 || p.Pos.Y > 500 {
		t.Fatalf("food position not clamped: %+v", p.Pos)
	}
}

func TestImportSnapshot_SkipsMalformedEntriesAndRederivesCounters(t *testing.T) {
	cfg := Config{ID: "test", Width: 800, Height: 500, Seed: 1}
	w1 := New(cfg, tuning.Defaults())
	w1.SpawnInitialPopulation(2)
	snap := w1.ExportSnapshot()

	// A zero-id fish and a resolved egg are both malformed.
	snap.Fish = append(snap.Fish, snap.Fish[0])
	snap.Fish[len(snap.Fish)-1].ID = 0
	snap.Eggs = append(snap.Eggs, snapEgg(40, "HATCHED"), snapEgg(41, "INCUBATING"))
	// Stale counters must be re-derived from the max seen id.
	snap.Counters = snapshot.CountersV1{}

	w2 := New(cfg, tuning.Defaults())
	w2.ImportSnapshot(snap)

	if got := len(w2.Fish()); got != 2 {
		t.Fatalf("fish count after skipping malformed: got %d want 2", got)
	}
	if got := len(w2.Eggs()); got != 1 {
		t.Fatalf("egg count: got %d want 1 (resolved egg must be dropped)", got)
	}
	child := w2.spawnFish(Vec2{X: 10, Y: 10}, w2.sampleTraits())
	if child.ID <= 2 {
		t.Fatalf("counter not re-derived: new fish id %d", child.ID)
	}
	if w2.nextEggID < 41 {
		t.Fatalf("egg counter not re-derived: %d", w2.nextEggID)
	}
}

func snapFood(id int64, x, y float64) snapshot.FoodV1 {
	return snapshot.FoodV1{ID: id, Pos: [2]float64{x, y}, Amount: 1, TTLSec: 30}
}

func snapEgg(id int64, state string) snapshot.EggV1 {
	return snapshot.EggV1{
		ID:           id,
		Pos:          [2]float64{100, 480},
		HatchDueSec:  1000,
		MotherID:     1,
		FatherID:     2,
		MotherTraits: snapshot.TraitsV1{SizeFactor: 1, GrowthRate: 1, SpeedFactor: 1, HueDeg: 120, LifespanSec: 1800},
		FatherTraits: snapshot.TraitsV1{SizeFactor: 1, GrowthRate: 1, SpeedFactor: 1, HueDeg: 200, LifespanSec: 1800},
		State:        state,
	}
}
