package world

import "math"

type Sex string

const (
	SexFemale Sex = "FEMALE"
	SexMale   Sex = "MALE"
)

type LifeStage string

const (
	StageBaby     LifeStage = "BABY"
	StageJuvenile LifeStage = "JUVENILE"
	StageAdult    LifeStage = "ADULT"
	StageOld      LifeStage = "OLD"
)

type HungerState string

const (
	HungerFed      HungerState = "FED"
	HungerHungry   HungerState = "HUNGRY"
	HungerStarving HungerState = "STARVING"
)

type DeathReason string

const (
	DeathOldAge     DeathReason = "OLD_AGE"
	DeathStarvation DeathReason = "STARVATION"
)

type ReproPhase string

const (
	ReproReady    ReproPhase = "READY"
	ReproGravid   ReproPhase = "GRAVID"
	ReproLaying   ReproPhase = "LAYING"
	ReproCooldown ReproPhase = "COOLDOWN"
)

type PlayRole string

const (
	RoleNone   PlayRole = ""
	RoleRunner PlayRole = "RUNNER"
	RoleChaser PlayRole = "CHASER"
)

// Traits are the heritable values blended at hatch time. Eggs snapshot
// copies of both parents' traits so a parent dying before hatch is harmless.
type Traits struct {
	SizeFactor  float64
	GrowthRate  float64
	SpeedFactor float64
	HueDeg      float64
	LifespanSec float64
}

// Reproduction is the per-fish breeding sub-record. Males only ever move
// between READY and COOLDOWN.
type Reproduction struct {
	Sex              Sex
	Phase            ReproPhase
	FatherID         int64
	DueTimeSec       float64
	LayTarget        Vec2
	CooldownUntilSec float64
}

// PlayState is the per-fish social-play sub-record.
type PlayState struct {
	SessionID     int64
	Role          PlayRole
	TargetID      int64
	EligibleAtSec float64
}

type Fish struct {
	ID   int64
	Name string

	Pos     Vec2
	Heading float64
	Speed   float64
	Size    float64 // current scale, derived from age each tick

	Traits Traits

	SpawnTimeSec float64
	// Stage boundaries are jittered per individual at spawn so a cohort
	// does not transition in lockstep.
	BabyEndSec     float64
	JuvenileEndSec float64
	OldStartSec    float64

	Energy float64
	Hunger HungerState

	Alive           bool
	DeathReason     DeathReason
	DeathTimeSec    float64
	CorpseDirtSteps int

	Repro Reproduction
	Play  PlayState

	// Transient steering/behavior state, recomputed or replaced every tick.
	behavior     Behavior
	wanderTarget Vec2
	hasWander    bool
	breathPhase  float64
	lastMoveDist float64
}

func (f *Fish) AgeSec(now float64) float64 { return now - f.SpawnTimeSec }

func (f *Fish) StageAt(now float64) LifeStage {
	age := f.AgeSec(now)
	switch {
	case age < f.BabyEndSec:
		return StageBaby
	case age < f.JuvenileEndSec:
		return StageJuvenile
	case age < f.OldStartSec:
		return StageAdult
	default:
		return StageOld
	}
}

// Wellbeing is derived and non-linear in hunger: a lightly hungry fish is
// nearly fine, a starving one is not.
func (f *Fish) Wellbeing() float64 {
	h := clamp01(1 - f.Energy)
	return clamp01(1 - h*h)
}

func (f *Fish) hungerValue() float64 { return clamp01(1 - f.Energy) }

// refreshLifecycle advances age-derived state and checks the old-age death
// trigger. Runs first in the tick order.
func (w *World) refreshLifecycle(f *Fish) {
	if !f.Alive {
		return
	}
	age := f.AgeSec(w.simTimeSec)
	fi := w.tune.Fish

	grownBy := f.JuvenileEndSec
	if grownBy <= 0 {
		grownBy = fi.JuvenileEndSec
	}
	progress := clamp01(age * f.Traits.GrowthRate / grownBy)
	f.Size = (fi.BirthSizeFrac + (1-fi.BirthSizeFrac)*progress) * f.Traits.SizeFactor

	if age > f.Traits.LifespanSec {
		w.killFish(f, DeathOldAge)
	}
}

// refreshHunger applies hysteretic thresholds so the discrete state does not
// flicker around a boundary.
func (w *World) refreshHunger(f *Fish) {
	h := f.hungerValue()
	t := w.tune.Hunger
	switch f.Hunger {
	case HungerStarving:
		if h < t.StarvingThreshold-t.Hysteresis {
			f.Hunger = HungerHungry
		}
		if h < t.HungryThreshold-t.Hysteresis {
			f.Hunger = HungerFed
		}
	case HungerHungry:
		if h >= t.StarvingThreshold {
			f.Hunger = HungerStarving
		} else if h < t.HungryThreshold-t.Hysteresis {
			f.Hunger = HungerFed
		}
	default:
		if h >= t.StarvingThreshold {
			f.Hunger = HungerStarving
		} else if h >= t.HungryThreshold {
			f.Hunger = HungerHungry
		}
	}
}

func (f *Fish) detectRadius(t *World) float64 {
	switch f.Hunger {
	case HungerStarving:
		return t.tune.Hunger.DetectRadiusStarv
	case HungerHungry:
		return t.tune.Hunger.DetectRadiusHun
	default:
		return t.tune.Hunger.DetectRadiusFed
	}
}

func (f *Fish) hungerBoost(t *World) float64 {
	switch f.Hunger {
	case HungerStarving:
		return t.tune.Hunger.BoostStarving
	case HungerHungry:
		return t.tune.Hunger.BoostHungry
	default:
		return t.tune.Hunger.BoostFed
	}
}

// tickMetabolism burns energy proportionally to distance traveled since the
// previous tick, so idle corpses never starve further. Runs after the play
// and breeding scans so those phases read last tick's committed hunger.
func (w *World) tickMetabolism(f *Fish) {
	if !f.Alive {
		return
	}
	f.Energy = clamp01(f.Energy - f.lastMoveDist*w.tune.Hunger.EnergyPerDistance)
	w.refreshHunger(f)
	if f.Energy <= 0 {
		w.killFish(f, DeathStarvation)
	}
}

// killFish records exactly one death reason and freezes motion. The corpse
// stays inspectable until decayed or removed.
func (w *World) killFish(f *Fish, reason DeathReason) {
	if !f.Alive {
		return
	}
	f.Alive = false
	f.DeathReason = reason
	f.DeathTimeSec = w.simTimeSec
	f.Speed = 0
	f.behavior = SinkingCorpse{}
	f.Repro.Phase = ReproReady
	w.detachFromPlay(f)
	w.Emit(EventFishDied, map[string]any{"fish_id": f.ID, "reason": string(reason)})
}

// sweepLifeState evicts corpses that finished decaying. The grace period and
// the decay window both come from tuning; eviction is a hard delete.
func (w *World) sweepLifeState() {
	c := w.tune.Corpse
	for id, f := range w.fish {
		if f.Alive {
			continue
		}
		if w.simTimeSec-f.DeathTimeSec >= c.GraceSec+c.DecaySec {
			delete(w.fish, id)
			if w.selectedFishID == id {
				w.selectedFishID = 0
			}
		}
	}
}

// spawnFish creates a fish from traits at a position. Callers pick traits:
// the initial population samples them, hatching blends parents.
func (w *World) spawnFish(pos Vec2, traits Traits) *Fish {
	w.nextFishID++
	sex := SexFemale
	if w.rng.IntN(2) == 1 {
		sex = SexMale
	}
	fi := w.tune.Fish
	f := &Fish{
		ID:             w.nextFishID,
		Pos:            w.clampIntoTank(pos),
		Heading:        rangeSample(w.rng, -math.Pi, math.Pi),
		Traits:         traits,
		SpawnTimeSec:   w.simTimeSec,
		BabyEndSec:     jitterAround(w.rng, fi.BabyEndSec, fi.StageJitterFrac),
		JuvenileEndSec: jitterAround(w.rng, fi.JuvenileEndSec, fi.StageJitterFrac),
		Energy:         1,
		Hunger:         HungerFed,
		Alive:          true,
		Repro:          Reproduction{Sex: sex, Phase: ReproReady},
		breathPhase:    rangeSample(w.rng, 0, 2*math.Pi),
	}
	f.OldStartSec = fi.OldStartRatio * traits.LifespanSec
	f.Size = fi.BirthSizeFrac * traits.SizeFactor
	w.fish[f.ID] = f
	w.Emit(EventFishBorn, map[string]any{"fish_id": f.ID})
	return f
}

// sampleTraits draws founder traits for the initial population.
func (w *World) sampleTraits() Traits {
	fi := w.tune.Fish
	b := w.tune.Breeding
	return Traits{
		SizeFactor:  rangeSample(w.rng, 0.85, 1.15),
		GrowthRate:  rangeSample(w.rng, 0.85, 1.15),
		SpeedFactor: rangeSample(w.rng, 0.85, 1.15),
		HueDeg:      rangeSample(w.rng, 0, 360),
		LifespanSec: math.Max(b.LifespanMinSec, jitterAround(w.rng, fi.LifespanMeanSec, fi.LifespanJitterFrac)),
	}
}
