package world

import "math"

// FoodPellet free-falls, rests on the floor, and decays. Multiple bites per
// pellet are possible until Amount runs out or the TTL lapses.
type FoodPellet struct {
	ID       int64
	Pos      Vec2
	Amount   float64
	TTLSec   float64
	FallVel  float64
	SpawnSec float64
}

// Bubble is purely decorative and never persisted.
type Bubble struct {
	Pos       Vec2
	RiseSpeed float64
	SwayPhase float64
	BaseX     float64
}

func (w *World) foodByID(id int64) *FoodPellet {
	for _, p := range w.food {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (w *World) nearestFood(from Vec2, radius float64) *FoodPellet {
	var best *FoodPellet
	bestD := radius
	for _, p := range w.food {
		if p.Amount <= 0 {
			continue
		}
		if d := from.DistTo(p.Pos); d <= bestD {
			best = p
			bestD = d
		}
	}
	return best
}

// tickFood advances the ballistic fall with the motion delta and the decay
// countdown with the life delta. Expired pellets report one unit of dirt to
// the water model.
func (w *World) tickFood(motionDelta, lifeDelta float64) {
	floor := w.height - w.tune.Food.FloorClearance
	ft := w.tune.Food
	kept := w.food[:0]
	for _, p := range w.food {
		p.FallVel = math.Min(p.FallVel+ft.FallAccel*motionDelta, ft.MaxFallSpeed)
		p.Pos.Y += p.FallVel * motionDelta
		if p.Pos.Y >= floor {
			p.Pos.Y = floor
			// Damp out residual velocity once resting.
			p.FallVel = math.Max(0, p.FallVel-ft.FloorDamping*motionDelta)
		}

		p.TTLSec -= lifeDelta
		switch {
		case p.Amount <= 1e-9:
			w.Emit(EventFoodConsumed, map[string]any{"food_id": p.ID})
		case p.TTLSec <= 0:
			w.water.pendingDirtUnits++
			w.Emit(EventFoodExpired, map[string]any{"food_id": p.ID})
		default:
			kept = append(kept, p)
		}
	}
	w.food = kept
}

// tickFoodConsumption lets fish seeking food take a bite on contact. Eating
// restores a fixed satiety fraction per bite, never full energy.
func (w *World) tickFoodConsumption() {
	t := w.tune.Hunger
	for _, f := range w.sortedFish() {
		if !f.Alive {
			continue
		}
		b, ok := f.behavior.(SeekFood)
		if !ok {
			continue
		}
		p := w.foodByID(b.FoodID)
		if p == nil || p.Amount <= 0 {
			continue
		}
		if f.Pos.DistTo(p.Pos) > t.EatRadius {
			continue
		}
		bite := math.Min(t.BiteAmount, p.Amount)
		p.Amount -= bite
		f.Energy = clamp01(f.Energy + t.SatietyPerBite*(bite/t.BiteAmount))
		w.refreshHunger(f)
	}
}

func (w *World) tickBubbles(motionDelta float64) {
	bt := w.tune.Bubbles
	for _, b := range w.bubbles {
		b.Pos.Y -= b.RiseSpeed * motionDelta
		b.SwayPhase += 2 * math.Pi * bt.SwayHz * motionDelta
		b.Pos.X = b.BaseX + bt.SwayAmp*math.Sin(b.SwayPhase)
		if b.Pos.Y < 0 {
			w.respawnBubble(b)
		}
	}
}

func (w *World) respawnBubble(b *Bubble) {
	bt := w.tune.Bubbles
	b.BaseX = rangeSample(w.rng, 0, w.width)
	b.Pos = Vec2{X: b.BaseX, Y: w.height}
	b.RiseSpeed = rangeSample(w.rng, bt.RiseMin, bt.RiseMax)
	b.SwayPhase = rangeSample(w.rng, 0, 2*math.Pi)
}

func (w *World) seedBubbles() {
	w.bubbles = w.bubbles[:0]
	for i := 0; i < w.tune.Bubbles.Count; i++ {
		b := &Bubble{}
		w.respawnBubble(b)
		b.Pos.Y = rangeSample(w.rng, 0, w.height)
		w.bubbles = append(w.bubbles, b)
	}
}
