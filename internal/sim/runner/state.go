package runner

import (
	"fishtank.ai/internal/protocol"
	"fishtank.ai/internal/sim/world"
)

// BuildState renders the full panel view from the world. Must be called on
// the loop goroutine.
func BuildState(w *world.World, events []world.Event) protocol.StateMsg {
	width, height := w.Size()
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		SimTimeSec:      w.SimTimeSec(),
		SpeedMultiplier: w.SpeedMultiplier(),
		Paused:          w.Paused(),
		Width:           width,
		Height:          height,
		Fish:            []protocol.FishView{},
		Food:            []protocol.FoodView{},
		Eggs:            []protocol.EggView{},
		Play:            []protocol.PlayView{},
	}
	if sel, ok := w.SelectedFish(); ok {
		msg.SelectedFishID = sel.ID
	}

	now := w.SimTimeSec()
	for _, f := range w.Fish() {
		v := protocol.FishView{
			ID:        f.ID,
			Name:      f.Name,
			Pos:       [2]float64{f.Pos.X, f.Pos.Y},
			Heading:   f.Heading,
			Size:      f.Size,
			HueDeg:    f.Traits.HueDeg,
			Stage:     string(f.StageAt(now)),
			Sex:       string(f.Repro.Sex),
			Hunger:    string(f.Hunger),
			Energy:    f.Energy,
			Wellbeing: f.Wellbeing(),
			Alive:     f.Alive,
		}
		if !f.Alive {
			v.DeathReason = string(f.DeathReason)
		}
		if f.Repro.Phase != world.ReproReady {
			v.ReproPhase = string(f.Repro.Phase)
		}
		if f.Play.Role != world.RoleNone {
			v.PlayRole = string(f.Play.Role)
		}
		msg.Fish = append(msg.Fish, v)
	}

	for _, p := range w.Food() {
		msg.Food = append(msg.Food, protocol.FoodView{
			ID:     p.ID,
			Pos:    [2]float64{p.Pos.X, p.Pos.Y},
			Amount: p.Amount,
			TTLSec: p.TTLSec,
		})
	}
	for _, e := range w.Eggs() {
		msg.Eggs = append(msg.Eggs, protocol.EggView{
			ID:          e.ID,
			Pos:         [2]float64{e.Pos.X, e.Pos.Y},
			HatchDueSec: e.HatchDueSec,
		})
	}
	for _, s := range w.PlaySessions() {
		msg.Play = append(msg.Play, protocol.PlayView{
			ID:        s.ID,
			RunnerID:  s.RunnerID,
			ChaserIDs: append([]int64{}, s.ChaserIDs...),
		})
	}
	for _, b := range w.Bubbles() {
		msg.Bubbles = append(msg.Bubbles, protocol.BubbleView{Pos: [2]float64{b.Pos.X, b.Pos.Y}})
	}

	water := w.Water()
	msg.Water = protocol.WaterView{
		Hygiene: water.Hygiene,
		Dirt:    water.Dirt,
		Filter: protocol.FilterView{
			Unlocked:  water.Filter.Unlocked,
			Installed: water.Filter.Installed,
			Enabled:   water.Filter.Enabled,
			Health:    water.Filter.Health,
			Phase:     string(water.Filter.Phase),
		},
	}

	for _, ev := range events {
		msg.Events = append(msg.Events, protocol.EventRecord{
			SimTimeSec: ev.SimTimeSec,
			EventType:  string(ev.Type),
			Data:       ev.Data,
		})
	}
	return msg
}
