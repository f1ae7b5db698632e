package world

import "math"

type FilterPhase string

const (
	FilterIdle        FilterPhase = "IDLE"
	FilterInstalling  FilterPhase = "INSTALLING"
	FilterMaintaining FilterPhase = "MAINTAINING"
	FilterCooldown    FilterPhase = "COOLDOWN"
)

// FilterState is a small independent state machine. The three transient
// phases (installing, maintaining, cooldown) are mutually exclusive; Phase
// plus one elapsed accumulator encodes that invariant directly.
type FilterState struct {
	Unlocked     bool
	Installed    bool
	Enabled      bool
	Health       float64 // 0..1
	Phase        FilterPhase
	PhaseElapsed float64
}

type WaterState struct {
	Hygiene float64 // 0..1, higher is better
	Dirt    float64 // 0..1, higher is worse
	Filter  FilterState

	// Dirt units reported by expired food since the last water tick.
	pendingDirtUnits int
}

// filterEffective reports whether the filter currently mitigates anything:
// installed, user-enabled, not mid-maintenance, and above the depletion
// threshold. The flags stay true below the threshold; mitigation just stops.
func (ws *WaterState) filterEffective(depletion float64) bool {
	return ws.Filter.Installed &&
		ws.Filter.Enabled &&
		ws.Filter.Phase != FilterMaintaining &&
		ws.Filter.Health > depletion
}

// bioload is population size normalized against the reference count.
func (w *World) bioload() float64 {
	alive := 0
	for _, f := range w.fish {
		if f.Alive {
			alive++
		}
	}
	ref := w.tune.Water.ReferencePopulation
	if ref <= 0 {
		ref = 1
	}
	return float64(alive) / float64(ref)
}

// tickWater advances hygiene/dirt and the filter machine by the life delta.
//
// Shape contract: hygiene decay is monotonic in effective bioload and
// amplified by dirt; a working filter reduces effective bioload and removes
// dirt, and the gap it opens regenerates hygiene; filter wear accelerates
// with both bioload and dirt.
func (w *World) tickWater(lifeDelta float64) {
	wt := w.tune.Water
	ft := w.tune.Filter
	ws := &w.water

	raw := w.bioload()
	effective := raw
	working := ws.filterEffective(ft.DepletionThreshold)
	if working {
		effective = raw * (1 - ft.BioloadReduction)
	}

	// Dirt: ongoing bioload, expired food, unattended corpses.
	ws.Dirt += effective * wt.DirtFromBioloadSec * lifeDelta
	ws.Dirt += float64(ws.pendingDirtUnits) * wt.DirtPerExpiredFood
	ws.pendingDirtUnits = 0
	ws.Dirt += w.corpseDirt()
	if working {
		ws.Dirt -= ft.DirtRemovalPerSec * lifeDelta
	}
	ws.Dirt = clamp01(ws.Dirt)

	decay := effective * wt.HygieneDecayPerSec * (1 + wt.DirtAmplification*ws.Dirt)
	ws.Hygiene -= decay * lifeDelta
	if working && effective < raw {
		ws.Hygiene += (raw - effective) * wt.RecoveryPerSec * lifeDelta
	}
	ws.Hygiene = clamp01(ws.Hygiene)

	w.tickFilter(lifeDelta, raw)
}

func (w *World) tickFilter(lifeDelta, bioload float64) {
	ft := w.tune.Filter
	fs := &w.water.Filter

	switch fs.Phase {
	case FilterInstalling:
		fs.PhaseElapsed += lifeDelta
		if fs.PhaseElapsed >= ft.InstallSec {
			fs.Installed = true
			fs.Enabled = true
			fs.Health = 1
			fs.Phase = FilterIdle
			fs.PhaseElapsed = 0
			w.Emit(EventFilterInstalled, nil)
		}
	case FilterMaintaining:
		fs.PhaseElapsed += lifeDelta
		if fs.PhaseElapsed >= ft.MaintainSec {
			fs.Health = ft.MaintainRestore
			fs.Phase = FilterCooldown
			fs.PhaseElapsed = 0
			w.Emit(EventFilterMaintained, nil)
		}
	case FilterCooldown:
		fs.PhaseElapsed += lifeDelta
		if fs.PhaseElapsed >= ft.CooldownSec {
			fs.Phase = FilterIdle
			fs.PhaseElapsed = 0
		}
	}

	// Wear runs whenever installed, worse water wears it faster.
	if fs.Installed && fs.Phase != FilterMaintaining {
		wear := ft.WearPerSec * (bioload + w.water.Dirt) * lifeDelta
		fs.Health = clamp01(fs.Health - wear)
	}
}

// corpseDirt accumulates the stepped contribution of unattended corpses:
// after the grace period each corpse adds a fixed amount per elapsed step,
// capped, then saturates.
func (w *World) corpseDirt() float64 {
	c := w.tune.Corpse
	var dirt float64
	for _, f := range w.fish {
		if f.Alive || f.CorpseDirtSteps >= c.MaxDirtSteps {
			continue
		}
		since := w.simTimeSec - f.DeathTimeSec - c.GraceSec
		if since <= 0 {
			continue
		}
		steps := int(math.Floor(since / c.DirtStepSec))
		if steps > c.MaxDirtSteps {
			steps = c.MaxDirtSteps
		}
		if steps > f.CorpseDirtSteps {
			dirt += float64(steps-f.CorpseDirtSteps) * c.DirtPerStep
			f.CorpseDirtSteps = steps
		}
	}
	return dirt
}
