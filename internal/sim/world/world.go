package world

import (
	"math"
	"sort"

	"fishtank.ai/internal/sim/tuning"
)

type Config struct {
	ID     string
	Width  float64
	Height float64
	Seed   int64
}

// World is the single-threaded authoritative simulation. All state must be
// accessed only from the goroutine driving Update.
type World struct {
	cfg  Config
	tune tuning.Tuning
	rng  Rand

	simTimeSec float64
	wallSec    float64 // real-time counter, autosave pacing only

	speedMult float64
	paused    bool

	width  float64
	height float64

	fish         map[int64]*Fish
	food         []*FoodPellet
	eggs         []*Egg
	playSessions map[int64]*PlaySession
	bubbles      []*Bubble

	water WaterState

	selectedFishID int64
	feedingCount   int // cumulative, drives the filter unlock

	nextFishID int64
	nextFoodID int64
	nextEggID  int64
	nextPlayID int64

	// Per-unordered-pair mating retry throttle. Transient.
	pairRetryAt map[pairKey]float64

	lastMotionDelta float64
	lastLifeDelta   float64

	events []Event
}

func New(cfg Config, tune tuning.Tuning) *World {
	if cfg.Width <= 0 {
		cfg.Width = tune.Tank.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = tune.Tank.Height
	}
	w := &World{
		cfg:          cfg,
		tune:         tune,
		rng:          NewRand(cfg.Seed),
		speedMult:    1,
		width:        cfg.Width,
		height:       cfg.Height,
		fish:         map[int64]*Fish{},
		playSessions: map[int64]*PlaySession{},
		water:        WaterState{Hygiene: 1, Filter: FilterState{Phase: FilterIdle}},
		pairRetryAt:  map[pairKey]float64{},
	}
	w.seedBubbles()
	return w
}

// SetRand swaps the random source. Tests use this to script outcomes.
func (w *World) SetRand(r Rand) {
	if r != nil {
		w.rng = r
	}
}

// SpawnInitialPopulation seeds n founder fish, backdated into adulthood so a
// fresh tank is immediately lively.
func (w *World) SpawnInitialPopulation(n int) {
	for i := 0; i < n; i++ {
		f := w.spawnFish(w.randomTankPoint(), w.sampleTraits())
		f.SpawnTimeSec = w.simTimeSec - f.JuvenileEndSec - rangeSample(w.rng, 0, 60)
		w.refreshLifecycle(f)
	}
}

// Update advances the simulation by one raw tick. It is a no-op while
// paused. The raw delta is split into a motion delta (scaled by the speed
// multiplier, paced for smooth rendering) and a life delta (scaled by the
// configured life scale, driving lifecycle/metabolism/reproduction). Long
// background gaps are applied in increments capped at MaxLifeStepSec so a
// single call's work is bounded and the steering integrator stays stable.
func (w *World) Update(rawDeltaSeconds float64) {
	if w.paused || rawDeltaSeconds <= 0 {
		return
	}
	w.wallSec += rawDeltaSeconds

	motionTotal := rawDeltaSeconds * w.speedMult
	lifeTotal := rawDeltaSeconds * w.tune.Clock.LifeScale
	w.lastMotionDelta = motionTotal
	w.lastLifeDelta = lifeTotal

	maxStep := w.tune.Clock.MaxLifeStepSec
	if maxStep <= 0 {
		maxStep = 0.25
	}
	steps := int(math.Ceil(lifeTotal / maxStep))
	if steps < 1 {
		steps = 1
	}
	motion := motionTotal / float64(steps)
	life := lifeTotal / float64(steps)
	for i := 0; i < steps; i++ {
		w.step(motion, life)
	}
}

// step runs all subsystems in the fixed phase order. The ordering is a
// correctness requirement: every fish commits a phase before any fish reads
// it in a later phase.
func (w *World) step(motionDelta, lifeDelta float64) {
	w.simTimeSec += lifeDelta

	fishes := w.sortedFish()

	for _, f := range fishes { // 1. lifecycle
		w.refreshLifecycle(f)
	}
	for _, f := range fishes { // 2. play-state refresh
		w.refreshPlayState(f)
	}
	w.tickPlaySessions()  // 3. maintain -> expand -> form
	w.tickReproduction()  // 4. mating + gestation + eggs
	for _, f := range fishes { // 5. metabolism
		w.tickMetabolism(f)
	}
	for _, f := range fishes { // 6. behavior decision
		w.decideBehavior(f)
	}
	for _, f := range fishes { // 7. steering integration
		w.integrateSteering(f, motionDelta)
	}
	w.tickFoodConsumption() // 8. eating
	w.sweepLifeState()      // 9. corpse eviction
	// 10. environmental ticks
	w.tickFood(motionDelta, lifeDelta)
	w.tickWater(lifeDelta)
	w.tickBubbles(motionDelta)
}

// sortedFish returns all fish ordered by id, the deterministic iteration
// order for every cross-entity scan.
func (w *World) sortedFish() []*Fish {
	out := make([]*Fish, 0, len(w.fish))
	for _, f := range w.fish {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
