package world

import (
	"sort"
	"strconv"
	"strings"
)

// Public mutations. Invalid input is clamped or ignored, never a fault:
// guarded transitions return false instead of erroring.

func (w *World) TogglePause() bool {
	w.paused = !w.paused
	return w.paused
}

func (w *World) Paused() bool { return w.paused }

func (w *World) SetSpeedMultiplier(v float64) float64 {
	w.speedMult = clamp(v, w.tune.Clock.SpeedMin, w.tune.Clock.SpeedMax)
	return w.speedMult
}

func (w *World) SpeedMultiplier() float64 { return w.speedMult }

// Resize rescales every position into the new viewport, then clamps.
func (w *World) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	sx := width / w.width
	sy := height / w.height
	w.width, w.height = width, height

	rescale := func(p Vec2) Vec2 {
		return w.clampIntoTank(Vec2{X: p.X * sx, Y: p.Y * sy})
	}
	for _, f := range w.fish {
		f.Pos = rescale(f.Pos)
		f.wanderTarget = rescale(f.wanderTarget)
		f.Repro.LayTarget = rescale(f.Repro.LayTarget)
	}
	for _, p := range w.food {
		p.Pos = rescale(p.Pos)
	}
	for _, e := range w.eggs {
		e.Pos = rescale(e.Pos)
	}
	for _, s := range w.playSessions {
		s.Origin = rescale(s.Origin)
	}
	for _, b := range w.bubbles {
		b.Pos = rescale(b.Pos)
		b.BaseX = clamp(b.BaseX*sx, 0, w.width)
	}
}

// SpawnFood drops a pellet at (x, y). Non-positive amount/ttl fall back to
// the configured defaults. Each spawn counts toward the filter unlock.
func (w *World) SpawnFood(x, y, amount, ttlSec float64) *FoodPellet {
	if amount <= 0 {
		amount = w.tune.Food.DefaultAmount
	}
	if ttlSec <= 0 {
		ttlSec = w.tune.Food.DefaultTTLSec
	}
	w.nextFoodID++
	p := &FoodPellet{
		ID:       w.nextFoodID,
		Pos:      w.clampIntoTank(Vec2{X: x, Y: y}),
		Amount:   amount,
		TTLSec:   ttlSec,
		SpawnSec: w.simTimeSec,
	}
	w.food = append(w.food, p)

	w.feedingCount++
	if !w.water.Filter.Unlocked && w.feedingCount >= w.tune.Filter.UnlockFeedings {
		w.water.Filter.Unlocked = true
	}

	w.Emit(EventFoodSpawned, map[string]any{"food_id": p.ID})
	return p
}

// ConsumeFood takes up to amount from a pellet and returns what was actually
// consumed. Unknown ids consume nothing.
func (w *World) ConsumeFood(foodID int64, amount float64) float64 {
	p := w.foodByID(foodID)
	if p == nil || amount <= 0 {
		return 0
	}
	if amount > p.Amount {
		amount = p.Amount
	}
	p.Amount -= amount
	return amount
}

func (w *World) SelectFish(id int64) {
	if _, ok := w.fish[id]; ok {
		w.selectedFishID = id
	}
}

func (w *World) ToggleFishSelection(id int64) {
	if w.selectedFishID == id {
		w.selectedFishID = 0
		return
	}
	w.SelectFish(id)
}

// RenameFish normalizes the name and deduplicates it against every other
// live fish by suffixing a counter.
func (w *World) RenameFish(id int64, name string) bool {
	f, ok := w.fish[id]
	if !ok {
		return false
	}
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return false
	}
	f.Name = w.dedupeName(name, id)
	return true
}

func (w *World) dedupeName(name string, selfID int64) string {
	taken := func(candidate string) bool {
		// Corpses keep their name until discarded, so they still reserve it.
		for _, other := range w.fish {
			if other.ID != selfID && other.Name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + " " + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// DiscardFish removes a non-alive fish immediately. Live fish cannot be
// discarded.
func (w *World) DiscardFish(id int64) bool {
	f, ok := w.fish[id]
	if !ok || f.Alive {
		return false
	}
	delete(w.fish, id)
	if w.selectedFishID == id {
		w.selectedFishID = 0
	}
	return true
}

// RemoveCorpse is the user cleanup action; it stops further corpse dirt.
func (w *World) RemoveCorpse(id int64) bool {
	return w.DiscardFish(id)
}

// InstallWaterFilter starts the install transition. Guarded: requires the
// unlock, no prior install, and no transition in flight.
func (w *World) InstallWaterFilter() bool {
	fs := &w.water.Filter
	if !fs.Unlocked || fs.Installed || fs.Phase != FilterIdle {
		return false
	}
	fs.Phase = FilterInstalling
	fs.PhaseElapsed = 0
	return true
}

func (w *World) ToggleWaterFilterEnabled() bool {
	fs := &w.water.Filter
	if !fs.Installed {
		return false
	}
	fs.Enabled = !fs.Enabled
	return fs.Enabled
}

// MaintainWaterFilter starts maintenance. Guarded against the cooldown and
// any transition already in flight.
func (w *World) MaintainWaterFilter() bool {
	fs := &w.water.Filter
	if !fs.Installed || fs.Phase != FilterIdle {
		return false
	}
	fs.Phase = FilterMaintaining
	fs.PhaseElapsed = 0
	return true
}

// Read accessors. Slices are sorted copies safe to hand to collaborators.

func (w *World) Config() Config { return w.cfg }

func (w *World) SimTimeSec() float64      { return w.simTimeSec }
func (w *World) WallSec() float64         { return w.wallSec }
func (w *World) LastMotionDelta() float64 { return w.lastMotionDelta }
func (w *World) LastLifeDelta() float64   { return w.lastLifeDelta }
func (w *World) Size() (float64, float64) { return w.width, w.height }

func (w *World) Fish() []*Fish { return w.sortedFish() }

func (w *World) FishByID(id int64) (*Fish, bool) {
	f, ok := w.fish[id]
	return f, ok
}

func (w *World) SelectedFish() (*Fish, bool) {
	if w.selectedFishID == 0 {
		return nil, false
	}
	return w.FishByID(w.selectedFishID)
}

func (w *World) Water() WaterState { return w.water }

func (w *World) Food() []*FoodPellet {
	out := make([]*FoodPellet, len(w.food))
	copy(out, w.food)
	return out
}

func (w *World) Eggs() []*Egg {
	out := make([]*Egg, len(w.eggs))
	copy(out, w.eggs)
	return out
}

func (w *World) PlaySessions() []*PlaySession {
	out := make([]*PlaySession, 0, len(w.playSessions))
	for _, s := range w.playSessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Bubbles() []*Bubble {
	out := make([]*Bubble, len(w.bubbles))
	copy(out, w.bubbles)
	return out
}
