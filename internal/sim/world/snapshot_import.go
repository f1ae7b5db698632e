package world

import (
	"encoding/json"
	"math"

	"fishtank.ai/internal/persistence/snapshot"
)

// ImportSnapshot replaces the in-memory state with the snapshot, clamped to
// the world's current viewport. Loading is defensive: malformed entries are
// skipped, missing collections become empty, counters are re-derived from
// the maximum seen id, and nothing in here can fail the load outright.
func (w *World) ImportSnapshot(s snapshot.TankV1) {
	w.simTimeSec = math.Max(0, s.Header.SimTimeSec)
	w.wallSec = math.Max(0, s.WallSec)
	w.paused = s.Paused
	if s.SpeedMult > 0 {
		w.speedMult = clamp(s.SpeedMult, w.tune.Clock.SpeedMin, w.tune.Clock.SpeedMax)
	} else {
		w.speedMult = 1
	}
	w.feedingCount = s.FeedingCount
	if w.feedingCount < 0 {
		w.feedingCount = 0
	}

	w.fish = map[int64]*Fish{}
	var maxFish int64
	for _, fs := range s.Fish {
		if fs.ID <= 0 {
			continue
		}
		f := importFish(w, fs)
		w.fish[f.ID] = f
		if f.ID > maxFish {
			maxFish = f.ID
		}
	}

	w.food = nil
	var maxFood int64
	for _, ps := range s.Food {
		if ps.ID <= 0 || ps.Amount <= 0 || !isFinite(ps.Pos[0]) || !isFinite(ps.Pos[1]) {
			continue
		}
		w.food = append(w.food, &FoodPellet{
			ID:       ps.ID,
			Pos:      w.clampIntoTank(Vec2{X: ps.Pos[0], Y: ps.Pos[1]}),
			Amount:   ps.Amount,
			TTLSec:   ps.TTLSec,
			FallVel:  clamp(ps.FallVel, 0, w.tune.Food.MaxFallSpeed),
			SpawnSec: ps.SpawnSec,
		})
		if ps.ID > maxFood {
			maxFood = ps.ID
		}
	}

	w.eggs = nil
	var maxEgg int64
	for _, es := range s.Eggs {
		if es.ID <= 0 || !isFinite(es.Pos[0]) || !isFinite(es.Pos[1]) {
			continue
		}
		// Resolved eggs must not be resurrected into the incubator.
		if es.State != "" && EggState(es.State) != EggIncubating {
			continue
		}
		w.eggs = append(w.eggs, &Egg{
			ID:           es.ID,
			Pos:          w.clampIntoTank(Vec2{X: es.Pos[0], Y: es.Pos[1]}),
			LayTimeSec:   es.LayTimeSec,
			HatchDueSec:  es.HatchDueSec,
			MotherID:     es.MotherID,
			FatherID:     es.FatherID,
			MotherTraits: importTraits(w, es.MotherTraits),
			FatherTraits: importTraits(w, es.FatherTraits),
			State:        EggIncubating,
			Edible:       es.Edible,
		})
		if es.ID > maxEgg {
			maxEgg = es.ID
		}
	}

	w.playSessions = map[int64]*PlaySession{}
	var maxPlay int64
	for _, ss := range s.Sessions {
		if ss.ID <= 0 || ss.RunnerID <= 0 {
			continue
		}
		chasers := make([]int64, 0, len(ss.ChaserIDs))
		for _, cid := range ss.ChaserIDs {
			if cid > 0 {
				chasers = append(chasers, cid)
			}
		}
		w.playSessions[ss.ID] = &PlaySession{
			ID:           ss.ID,
			RunnerID:     ss.RunnerID,
			ChaserIDs:    chasers,
			ExpiresAtSec: ss.ExpiresAtSec,
			Origin:       w.clampIntoTank(Vec2{X: ss.Origin[0], Y: ss.Origin[1]}),
		}
		if ss.ID > maxPlay {
			maxPlay = ss.ID
		}
	}

	w.water = WaterState{
		Hygiene: clamp01(s.Water.Hygiene),
		Dirt:    clamp01(s.Water.Dirt),
		Filter: FilterState{
			Unlocked:     s.Water.Filter.Unlocked,
			Installed:    s.Water.Filter.Installed,
			Enabled:      s.Water.Filter.Enabled,
			Health:       clamp01(s.Water.Filter.Health),
			Phase:        importFilterPhase(s.Water.Filter.Phase),
			PhaseElapsed: math.Max(0, s.Water.Filter.PhaseElapsed),
		},
	}

	// Counters must stay ahead of every issued id even if the stored
	// counters were lost or stale.
	w.nextFishID = maxi64(s.Counters.NextFish, maxFish)
	w.nextFoodID = maxi64(s.Counters.NextFood, maxFood)
	w.nextEggID = maxi64(s.Counters.NextEgg, maxEgg)
	w.nextPlayID = maxi64(s.Counters.NextPlay, maxPlay)

	w.selectedFishID = 0
	if _, ok := w.fish[s.SelectedFish]; ok {
		w.selectedFishID = s.SelectedFish
	}

	w.pairRetryAt = map[pairKey]float64{}
	w.events = nil
	w.seedBubbles()
}

func importFish(w *World, fs snapshot.FishV1) *Fish {
	f := &Fish{
		ID:      fs.ID,
		Name:    fs.Name,
		Pos:     w.clampIntoTank(Vec2{X: safeFinite(fs.Pos[0]), Y: safeFinite(fs.Pos[1])}),
		Heading: wrapAngle(safeFinite(fs.Heading)),
		Speed:   math.Max(0, safeFinite(fs.Speed)),
		Traits:  importTraits(w, fs.Traits),

		SpawnTimeSec:   fs.SpawnTimeSec,
		BabyEndSec:     fs.BabyEndSec,
		JuvenileEndSec: fs.JuvenileEndSec,
		OldStartSec:    fs.OldStartSec,

		Energy: clamp01(fs.Energy),

		Alive:           fs.Alive,
		DeathReason:     DeathReason(fs.DeathReason),
		DeathTimeSec:    fs.DeathTimeSec,
		CorpseDirtSteps: fs.CorpseDirtSteps,
	}

	fi := w.tune.Fish
	if f.BabyEndSec <= 0 {
		f.BabyEndSec = fi.BabyEndSec
	}
	if f.JuvenileEndSec <= f.BabyEndSec {
		f.JuvenileEndSec = math.Max(fi.JuvenileEndSec, f.BabyEndSec+1)
	}
	if f.OldStartSec <= f.JuvenileEndSec {
		f.OldStartSec = fi.OldStartRatio * f.Traits.LifespanSec
	}

	switch HungerState(fs.Hunger) {
	case HungerHungry, HungerStarving:
		f.Hunger = HungerState(fs.Hunger)
	default:
		f.Hunger = HungerFed
	}

	f.Repro = Reproduction{
		Sex:              SexFemale,
		Phase:            ReproReady,
		FatherID:         fs.Repro.FatherID,
		DueTimeSec:       fs.Repro.DueTimeSec,
		LayTarget:        w.clampIntoTank(Vec2{X: fs.Repro.LayTarget[0], Y: fs.Repro.LayTarget[1]}),
		CooldownUntilSec: fs.Repro.CooldownUntilSec,
	}
	if Sex(fs.Repro.Sex) == SexMale {
		f.Repro.Sex = SexMale
	}
	switch ReproPhase(fs.Repro.Phase) {
	case ReproGravid, ReproLaying, ReproCooldown:
		f.Repro.Phase = ReproPhase(fs.Repro.Phase)
	}
	// Gestation must survive persistence; only impossible combinations reset.
	if f.Repro.Sex == SexMale && (f.Repro.Phase == ReproGravid || f.Repro.Phase == ReproLaying) {
		f.Repro.Phase = ReproReady
	}

	f.Play = PlayState{
		SessionID:     fs.Play.SessionID,
		TargetID:      fs.Play.TargetID,
		EligibleAtSec: fs.Play.EligibleAtSec,
	}
	switch PlayRole(fs.Play.Role) {
	case RoleRunner, RoleChaser:
		f.Play.Role = PlayRole(fs.Play.Role)
	}

	if !f.Alive {
		f.behavior = SinkingCorpse{}
		f.Speed = 0
	}
	f.breathPhase = rangeSample(w.rng, 0, 2*math.Pi)
	w.refreshLifecycle(f)
	return f
}

func importTraits(w *World, t snapshot.TraitsV1) Traits {
	b := w.tune.Breeding
	out := Traits{
		SizeFactor:  clamp(safeFinite(t.SizeFactor), b.SizeFactorMin, b.SizeFactorMax),
		GrowthRate:  clamp(safeFinite(t.GrowthRate), b.GrowthRateMin, b.GrowthRateMax),
		SpeedFactor: clamp(safeFinite(t.SpeedFactor), b.SpeedFactorMin, b.SpeedFactorMax),
		HueDeg:      math.Mod(safeFinite(t.HueDeg), 360),
		LifespanSec: math.Max(b.LifespanMinSec, safeFinite(t.LifespanSec)),
	}
	if out.HueDeg < 0 {
		out.HueDeg += 360
	}
	return out
}

func importFilterPhase(p string) FilterPhase {
	switch FilterPhase(p) {
	case FilterInstalling, FilterMaintaining, FilterCooldown:
		return FilterPhase(p)
	default:
		return FilterIdle
	}
}

// FromJSON restores a world from a JSON payload (the ToJSON counterpart).
// A corrupt payload degrades to the fallback population rather than failing.
func (w *World) FromJSON(payload []byte, fallbackFish int) error {
	var s snapshot.TankV1
	if err := json.Unmarshal(payload, &s); err != nil || s.Header.Version != 1 {
		w.SpawnInitialPopulation(fallbackFish)
		if err != nil {
			return err
		}
		return nil
	}
	w.ImportSnapshot(s)
	return nil
}

func safeFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func maxi64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
