package world

import "math"

type EggState string

const (
	EggIncubating EggState = "INCUBATING"
	EggHatched    EggState = "HATCHED"
	EggFailed     EggState = "FAILED"
)

// Egg holds snapshot copies of both parents' traits; parents may die or be
// discarded before hatch, so ids are weak references only.
type Egg struct {
	ID           int64
	Pos          Vec2
	LayTimeSec   float64
	HatchDueSec  float64
	MotherID     int64
	FatherID     int64
	MotherTraits Traits
	FatherTraits Traits
	State        EggState
	Edible       bool // reserved for future consumers
}

type pairKey struct{ lo, hi int64 }

func makePairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// tickReproduction runs the mating scan, gestation/laying transitions, and
// the egg lifecycle, in that order.
func (w *World) tickReproduction() {
	w.scanMatingPairs()
	w.tickGestation()
	w.tickEggs()
}

func (w *World) matingEligible(f *Fish) bool {
	return f.Alive &&
		f.StageAt(w.simTimeSec) == StageAdult &&
		f.Hunger == HungerFed &&
		f.Wellbeing() >= w.tune.Breeding.WellbeingFloor &&
		f.Repro.Phase == ReproReady &&
		w.simTimeSec >= f.Repro.CooldownUntilSec
}

func (w *World) scanMatingPairs() {
	b := w.tune.Breeding
	if w.water.Hygiene < b.HygieneFloor {
		return
	}
	fishes := w.sortedFish()
	for i := 0; i < len(fishes); i++ {
		for j := i + 1; j < len(fishes); j++ {
			female, male := fishes[i], fishes[j]
			if female.Repro.Sex == male.Repro.Sex {
				continue
			}
			if female.Repro.Sex == SexMale {
				female, male = male, female
			}
			if !w.matingEligible(female) || !w.matingEligible(male) {
				continue
			}
			if female.Pos.DistTo(male.Pos) > b.EncounterRadius {
				continue
			}
			key := makePairKey(female.ID, male.ID)
			if next, ok := w.pairRetryAt[key]; ok && w.simTimeSec < next {
				continue
			}
			w.pairRetryAt[key] = w.simTimeSec + b.RetryIntervalSec

			// Success scales continuously with hygiene and the weaker
			// partner's wellbeing; above the floors there is always a chance.
			minWell := math.Min(female.Wellbeing(), male.Wellbeing())
			prob := clamp01(b.BaseSuccessProb * w.water.Hygiene * minWell)
			if w.rng.Float64() >= prob {
				continue
			}

			female.Repro.Phase = ReproGravid
			female.Repro.FatherID = male.ID
			female.Repro.DueTimeSec = w.simTimeSec + rangeSample(w.rng, b.GestationMinSec, b.GestationMaxSec)
			male.Repro.Phase = ReproCooldown
			male.Repro.CooldownUntilSec = w.simTimeSec + b.MaleCooldownSec
		}
	}
}

func (w *World) tickGestation() {
	b := w.tune.Breeding
	for _, f := range w.sortedFish() {
		switch f.Repro.Phase {
		case ReproGravid:
			if f.Alive && w.simTimeSec >= f.Repro.DueTimeSec {
				f.Repro.Phase = ReproLaying
				f.Repro.LayTarget = Vec2{
					X: rangeSample(w.rng, w.tune.Tank.WallMargin, w.width-w.tune.Tank.WallMargin),
					Y: w.height - w.tune.Food.FloorClearance,
				}
			}
		case ReproLaying:
			if f.Alive && f.Pos.DistTo(f.Repro.LayTarget) <= b.LayReachRadius {
				w.layClutch(f)
			}
		case ReproCooldown:
			if w.simTimeSec >= f.Repro.CooldownUntilSec {
				f.Repro.Phase = ReproReady
			}
		}
	}
}

func (w *World) layClutch(mother *Fish) {
	b := w.tune.Breeding
	count := b.ClutchMin
	if b.ClutchMax > b.ClutchMin {
		count += w.rng.IntN(b.ClutchMax - b.ClutchMin + 1)
	}

	// The father may already be gone; his traits then default to the
	// mother's so inheritance still has two operands.
	fatherTraits := mother.Traits
	if father, ok := w.fish[mother.Repro.FatherID]; ok {
		fatherTraits = father.Traits
	}

	for i := 0; i < count; i++ {
		w.nextEggID++
		w.eggs = append(w.eggs, &Egg{
			ID:           w.nextEggID,
			Pos:          w.clampIntoTank(Vec2{X: mother.Pos.X + rangeSample(w.rng, -10, 10), Y: mother.Pos.Y}),
			LayTimeSec:   w.simTimeSec,
			HatchDueSec:  w.simTimeSec + rangeSample(w.rng, b.HatchMinSec, b.HatchMaxSec),
			MotherID:     mother.ID,
			FatherID:     mother.Repro.FatherID,
			MotherTraits: mother.Traits,
			FatherTraits: fatherTraits,
			State:        EggIncubating,
		})
	}

	mother.Repro.Phase = ReproCooldown
	mother.Repro.FatherID = 0
	mother.Repro.CooldownUntilSec = w.simTimeSec + b.FemaleCooldownSec
	w.Emit(EventEggsLaid, map[string]any{"mother_id": mother.ID, "count": count})
}

// tickEggs resolves every egg past its due time: exactly zero or one fish
// per egg, and the record is removed either way.
func (w *World) tickEggs() {
	b := w.tune.Breeding
	kept := w.eggs[:0]
	for _, e := range w.eggs {
		if w.simTimeSec < e.HatchDueSec {
			kept = append(kept, e)
			continue
		}
		// Hatch probability follows hygiene, floored so hatching is never
		// impossible and approaching 1 smoothly as hygiene rises.
		prob := clamp01(b.HatchFloorProb + (1-b.HatchFloorProb)*w.water.Hygiene)
		if w.rng.Float64() < prob {
			e.State = EggHatched
			child := w.spawnFish(e.Pos, w.blendTraits(e.MotherTraits, e.FatherTraits))
			w.Emit(EventEggHatched, map[string]any{"egg_id": e.ID, "fish_id": child.ID})
		} else {
			e.State = EggFailed
			w.Emit(EventEggFailed, map[string]any{"egg_id": e.ID})
		}
	}
	w.eggs = kept
}

// blendTraits averages the parents and applies a symmetric mutation, with
// hard clamps on the safety-critical traits and hue wraparound.
func (w *World) blendTraits(m, f Traits) Traits {
	b := w.tune.Breeding
	mut := func(v float64) float64 {
		return v * (1 + rangeSample(w.rng, -b.MutationPct, b.MutationPct))
	}
	hue := math.Mod(mut((m.HueDeg+f.HueDeg)/2), 360)
	if hue < 0 {
		hue += 360
	}
	return Traits{
		SizeFactor:  clamp(mut((m.SizeFactor+f.SizeFactor)/2), b.SizeFactorMin, b.SizeFactorMax),
		GrowthRate:  clamp(mut((m.GrowthRate+f.GrowthRate)/2), b.GrowthRateMin, b.GrowthRateMax),
		SpeedFactor: clamp(mut((m.SpeedFactor+f.SpeedFactor)/2), b.SpeedFactorMin, b.SpeedFactorMax),
		HueDeg:      hue,
		LifespanSec: math.Max(b.LifespanMinSec, mut((m.LifespanSec+f.LifespanSec)/2)),
	}
}
