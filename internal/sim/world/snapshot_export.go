package world

import (
	"encoding/json"
	"sort"

	"fishtank.ai/internal/persistence/snapshot"
)

// ExportSnapshot captures the complete persisted state. Collections are
// emitted in sorted id order so equal states produce equal snapshots.
func (w *World) ExportSnapshot() snapshot.TankV1 {
	fishSnaps := make([]snapshot.FishV1, 0, len(w.fish))
	for _, f := range w.sortedFish() {
		fishSnaps = append(fishSnaps, snapshot.FishV1{
			ID:      f.ID,
			Name:    f.Name,
			Pos:     [2]float64{f.Pos.X, f.Pos.Y},
			Heading: f.Heading,
			Speed:   f.Speed,
			Traits:  exportTraits(f.Traits),

			SpawnTimeSec:   f.SpawnTimeSec,
			BabyEndSec:     f.BabyEndSec,
			JuvenileEndSec: f.JuvenileEndSec,
			OldStartSec:    f.OldStartSec,

			Energy: f.Energy,
			Hunger: string(f.Hunger),

			Alive:           f.Alive,
			DeathReason:     string(f.DeathReason),
			DeathTimeSec:    f.DeathTimeSec,
			CorpseDirtSteps: f.CorpseDirtSteps,

			Repro: snapshot.ReproductionV1{
				Sex:              string(f.Repro.Sex),
				Phase:            string(f.Repro.Phase),
				FatherID:         f.Repro.FatherID,
				DueTimeSec:       f.Repro.DueTimeSec,
				LayTarget:        [2]float64{f.Repro.LayTarget.X, f.Repro.LayTarget.Y},
				CooldownUntilSec: f.Repro.CooldownUntilSec,
			},
			Play: snapshot.PlayStateV1{
				SessionID:     f.Play.SessionID,
				Role:          string(f.Play.Role),
				TargetID:      f.Play.TargetID,
				EligibleAtSec: f.Play.EligibleAtSec,
			},
		})
	}

	foodSnaps := make([]snapshot.FoodV1, 0, len(w.food))
	for _, p := range w.food {
		foodSnaps = append(foodSnaps, snapshot.FoodV1{
			ID:       p.ID,
			Pos:      [2]float64{p.Pos.X, p.Pos.Y},
			Amount:   p.Amount,
			TTLSec:   p.TTLSec,
			FallVel:  p.FallVel,
			SpawnSec: p.SpawnSec,
		})
	}
	sort.Slice(foodSnaps, func(i, j int) bool { return foodSnaps[i].ID < foodSnaps[j].ID })

	eggSnaps := make([]snapshot.EggV1, 0, len(w.eggs))
	for _, e := range w.eggs {
		eggSnaps = append(eggSnaps, snapshot.EggV1{
			ID:           e.ID,
			Pos:          [2]float64{e.Pos.X, e.Pos.Y},
			LayTimeSec:   e.LayTimeSec,
			HatchDueSec:  e.HatchDueSec,
			MotherID:     e.MotherID,
			FatherID:     e.FatherID,
			MotherTraits: exportTraits(e.MotherTraits),
			FatherTraits: exportTraits(e.FatherTraits),
			State:        string(e.State),
			Edible:       e.Edible,
		})
	}
	sort.Slice(eggSnaps, func(i, j int) bool { return eggSnaps[i].ID < eggSnaps[j].ID })

	sessionSnaps := make([]snapshot.PlaySessionV1, 0, len(w.playSessions))
	for _, s := range w.PlaySessions() {
		chasers := make([]int64, len(s.ChaserIDs))
		copy(chasers, s.ChaserIDs)
		sessionSnaps = append(sessionSnaps, snapshot.PlaySessionV1{
			ID:           s.ID,
			RunnerID:     s.RunnerID,
			ChaserIDs:    chasers,
			ExpiresAtSec: s.ExpiresAtSec,
			Origin:       [2]float64{s.Origin.X, s.Origin.Y},
		})
	}

	return snapshot.TankV1{
		Header: snapshot.Header{
			Version:    1,
			TankID:     w.cfg.ID,
			SimTimeSec: w.simTimeSec,
		},
		Seed:   w.cfg.Seed,
		Width:  w.width,
		Height: w.height,

		WallSec:      w.wallSec,
		SpeedMult:    w.speedMult,
		Paused:       w.paused,
		FeedingCount: w.feedingCount,
		SelectedFish: w.selectedFishID,

		Fish:     fishSnaps,
		Food:     foodSnaps,
		Eggs:     eggSnaps,
		Sessions: sessionSnaps,
		Water: snapshot.WaterV1{
			Hygiene: w.water.Hygiene,
			Dirt:    w.water.Dirt,
			Filter: snapshot.FilterV1{
				Unlocked:     w.water.Filter.Unlocked,
				Installed:    w.water.Filter.Installed,
				Enabled:      w.water.Filter.Enabled,
				Health:       w.water.Filter.Health,
				Phase:        string(w.water.Filter.Phase),
				PhaseElapsed: w.water.Filter.PhaseElapsed,
			},
		},
		Counters: snapshot.CountersV1{
			NextFish: w.nextFishID,
			NextFood: w.nextFoodID,
			NextEgg:  w.nextEggID,
			NextPlay: w.nextPlayID,
		},
	}
}

func exportTraits(t Traits) snapshot.TraitsV1 {
	return snapshot.TraitsV1{
		SizeFactor:  t.SizeFactor,
		GrowthRate:  t.GrowthRate,
		SpeedFactor: t.SpeedFactor,
		HueDeg:      t.HueDeg,
		LifespanSec: t.LifespanSec,
	}
}

// ToJSON serializes the snapshot for hosts that persist JSON payloads rather
// than snapshot files.
func (w *World) ToJSON() ([]byte, error) {
	return json.Marshal(w.ExportSnapshot())
}
