package world

import (
	"math"
	"testing"
)

func TestStageAt_Thresholds(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, w.sampleTraits())
	f.SpawnTimeSec = 0
	f.BabyEndSec = 100
	f.JuvenileEndSec = 300
	f.OldStartSec = 1000

	cases := []struct {
		now  float64
		want LifeStage
	}{
		{50, StageBaby},
		{100, StageJuvenile},
		{299, StageJuvenile},
		{300, StageAdult},
		{999, StageAdult},
		{1000, StageOld},
	}
	for _, c := range cases {
		if got := f.StageAt(c.now); got != c.want {
			t.Fatalf("stage at %v: got %s want %s", c.now, got, c.want)
		}
	}
}

func TestGrowth_SizeInterpolatesWithAge(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, Traits{SizeFactor: 1, GrowthRate: 1, SpeedFactor: 1, LifespanSec: 5000})
	f.SpawnTimeSec = 0
	f.JuvenileEndSec = 300
	f.OldStartSec = 4000

	w.simTimeSec = 0
	w.refreshLifecycle(f)
	birth := f.Size
	if math.Abs(birth-w.tune.Fish.BirthSizeFrac) > 1e-9 {
		t.Fatalf("birth size: got %v want %v", birth, w.tune.Fish.BirthSizeFrac)
	}

	w.simTimeSec = 150
	w.refreshLifecycle(f)
	if f.Size <= birth || f.Size >= 1 {
		t.Fatalf("mid-growth size out of range: %v", f.Size)
	}

	w.simTimeSec = 300
	w.refreshLifecycle(f)
	if math.Abs(f.Size-1) > 1e-9 {
		t.Fatalf("adult size: got %v want 1", f.Size)
	}
}

func TestOldAgeDeath_RecordsReasonOnce(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, Traits{SizeFactor: 1, GrowthRate: 1, SpeedFactor: 1, LifespanSec: 700})
	f.Energy = 0.01 // near starving, but old age must win this tick

	w.simTimeSec = f.SpawnTimeSec + 701
	w.refreshLifecycle(f)

	if f.Alive {
		t.Fatalf("fish should be dead of old age")
	}
	if f.DeathReason != DeathOldAge {
		t.Fatalf("death reason: got %s", f.DeathReason)
	}
	if f.DeathTimeSec != w.simTimeSec {
		t.Fatalf("death time not stamped")
	}

	// A later starvation check must not overwrite the recorded reason.
	f.lastMoveDist = 1000
	w.tickMetabolism(f)
	if f.DeathReason != DeathOldAge {
		t.Fatalf("death reason overwritten: %s", f.DeathReason)
	}
}

func TestHunger_HystereticTransitions(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, w.sampleTraits())
	th := w.tune.Hunger

	f.Energy = 1 - (th.HungryThreshold + 0.01)
	w.refreshHunger(f)
	if f.Hunger != HungerHungry {
		t.Fatalf("expected HUNGRY, got %s", f.Hunger)
	}

	// Dropping just below the entry threshold must not flip back.
	f.Energy = 1 - (th.HungryThreshold - 0.01)
	w.refreshHunger(f)
	if f.Hunger != HungerHungry {
		t.Fatalf("hysteresis violated: got %s", f.Hunger)
	}

	// Below threshold minus hysteresis it recovers.
	f.Energy = 1 - (th.HungryThreshold - th.Hysteresis - 0.01)
	w.refreshHunger(f)
	if f.Hunger != HungerFed {
		t.Fatalf("expected FED, got %s", f.Hunger)
	}

	f.Energy = 1 - (th.StarvingThreshold + 0.01)
	w.refreshHunger(f)
	if f.Hunger != HungerStarving {
		t.Fatalf("expected STARVING, got %s", f.Hunger)
	}
}

func TestStarvation_EnergyDrainsWithDistance(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, w.sampleTraits())

	f.Energy = 0.001
	f.lastMoveDist = 100
	w.tickMetabolism(f)

	if f.Alive {
		t.Fatalf("fish should have starved")
	}
	if f.DeathReason != DeathStarvation {
		t.Fatalf("death reason: got %s", f.DeathReason)
	}
	if f.Speed != 0 {
		t.Fatalf("corpse speed not zeroed")
	}
	if _, ok := f.behavior.(SinkingCorpse); !ok {
		t.Fatalf("corpse behavior: %T", f.behavior)
	}
}

func TestMetabolism_IdleFishDoesNotStarve(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 100, Y: 100}, w.sampleTraits())
	f.Energy = 0.5
	f.lastMoveDist = 0

	w.tickMetabolism(f)
	if f.Energy != 0.5 {
		t.Fatalf("idle fish lost energy: %v", f.Energy)
	}
}

func TestSteering_BoundaryReflectsHeading(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 1, Y: 250}, w.sampleTraits())
	f.Heading = math.Pi // swimming straight left into the wall
	f.Speed = 500
	f.behavior = Wander{}
	f.wanderTarget = Vec2{X: -100, Y: 250}
	f.hasWander = true

	w.integrateSteering(f, 0.25)

	if f.Pos.X < 0 {
		t.Fatalf("fish escaped the tank: %+v", f.Pos)
	}
	if math.Abs(wrapAngle(f.Heading)) > math.Pi/2 {
		t.Fatalf("heading not reflected off the left wall: %v", f.Heading)
	}
}

func TestDecideBehavior_FedFishSeeksCloseFood(t *testing.T) {
	w := newTestWorld(t)
	f := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	p := w.SpawnFood(140, 100, 1, 30) // inside the fed detection radius

	w.decideBehavior(f)
	if b, ok := f.behavior.(SeekFood); !ok || b.FoodID != p.ID {
		t.Fatalf("fed fish ignored close food: %#v", f.behavior)
	}
}

func TestDecideBehavior_DetectionRadiusWidensWithHunger(t *testing.T) {
	w := newTestWorld(t)
	f := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	// Beyond the fed radius, inside the hungry radius.
	w.SpawnFood(200, 100, 1, 30)

	f.Hunger = HungerFed
	w.decideBehavior(f)
	if _, ok := f.behavior.(Wander); !ok {
		t.Fatalf("fed fish noticed food beyond its radius: %#v", f.behavior)
	}

	f.Hunger = HungerHungry
	w.decideBehavior(f)
	if _, ok := f.behavior.(SeekFood); !ok {
		t.Fatalf("hungry fish missed food in range: %#v", f.behavior)
	}
}

func TestWellbeing_NonLinearInHunger(t *testing.T) {
	w := newTestWorld(t)
	f := w.spawnFish(Vec2{X: 1, Y: 1}, w.sampleTraits())

	f.Energy = 1
	if got := f.Wellbeing(); got != 1 {
		t.Fatalf("full energy wellbeing: %v", got)
	}
	f.Energy = 0.8 // hunger 0.2
	slight := 1 - f.Wellbeing()
	f.Energy = 0.2 // hunger 0.8
	severe := 1 - f.Wellbeing()
	if severe <= 4*slight {
		t.Fatalf("wellbeing should degrade superlinearly: slight=%v severe=%v", slight, severe)
	}
}
