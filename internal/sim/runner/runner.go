package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"fishtank.ai/internal/persistence/snapshot"
	"fishtank.ai/internal/protocol"
	"fishtank.ai/internal/sim/tuning"
	"fishtank.ai/internal/sim/world"
	"fishtank.ai/internal/telemetry"
)

// AttachRequest registers a panel with the run loop. Resp receives the
// WELCOME built on the loop goroutine, so no panel ever reads the world
// from outside it.
type AttachRequest struct {
	Name string
	Out  chan []byte
	Resp chan protocol.WelcomeMsg
}

// CmdEnvelope carries one panel command into the loop. Commands are applied
// at tick boundaries in arrival order.
type CmdEnvelope struct {
	PanelID string
	Cmd     protocol.CmdMsg
}

// SavedSnapshot pairs an exported snapshot with the digest taken at the same
// instant, for the index row.
type SavedSnapshot struct {
	Snap   snapshot.TankV1
	Digest string
}

// EventLogger receives every engine event the loop flushes.
type EventLogger interface {
	WriteEvent(ev world.Event) error
}

type Options struct {
	AutosaveEvery time.Duration
	Snapshots     chan<- SavedSnapshot
	Events        EventLogger
	Telemetry     *telemetry.Recorder
}

// Runner owns the only goroutine that touches the World. Panels attach and
// detach through channels; the loop runs at the configured tick rate while
// any panel is connected and drops to a coarse background cadence otherwise
// (the engine subdivides long deltas internally).
type Runner struct {
	world *world.World
	tune  tuning.Tuning
	log   *log.Logger
	opts  Options

	attach chan AttachRequest
	detach chan string
	cmds   chan CmdEnvelope

	panels      map[string]chan []byte
	nextPanelID uint64

	metrics atomic.Value // Metrics
}

// Metrics is a point-in-time operational summary. Safe to read from any
// goroutine; updated by the loop after every tick.
type Metrics struct {
	SimTimeSec   float64 `json:"sim_time_sec"`
	FishAlive    int     `json:"fish_alive"`
	FishDead     int     `json:"fish_dead"`
	Eggs         int     `json:"eggs"`
	Food         int     `json:"food"`
	PlaySessions int     `json:"play_sessions"`
	Hygiene      float64 `json:"hygiene"`
	Panels       int     `json:"panels"`
	StepMS       float64 `json:"step_ms"`
}

func (r *Runner) Metrics() Metrics {
	m, _ := r.metrics.Load().(Metrics)
	return m
}

func (r *Runner) publishMetrics(stepMS float64) {
	var alive, dead int
	for _, f := range r.world.Fish() {
		if f.Alive {
			alive++
		} else {
			dead++
		}
	}
	r.metrics.Store(Metrics{
		SimTimeSec:   r.world.SimTimeSec(),
		FishAlive:    alive,
		FishDead:     dead,
		Eggs:         len(r.world.Eggs()),
		Food:         len(r.world.Food()),
		PlaySessions: len(r.world.PlaySessions()),
		Hygiene:      r.world.Water().Hygiene,
		Panels:       len(r.panels),
		StepMS:       stepMS,
	})
}

func New(w *world.World, tune tuning.Tuning, logger *log.Logger, opts Options) *Runner {
	return &Runner{
		world:  w,
		tune:   tune,
		log:    logger,
		opts:   opts,
		attach: make(chan AttachRequest, 8),
		detach: make(chan string, 8),
		cmds:   make(chan CmdEnvelope, 256),
		panels: map[string]chan []byte{},
	}
}

func (r *Runner) Attach() chan<- AttachRequest { return r.attach }
func (r *Runner) Detach() chan<- string        { return r.detach }
func (r *Runner) Cmds() chan<- CmdEnvelope     { return r.cmds }

const backgroundInterval = time.Second

func (r *Runner) foregroundInterval() time.Duration {
	hz := r.tune.Clock.TickRateHz
	if hz <= 0 {
		hz = 20
	}
	return time.Second / time.Duration(hz)
}

func (r *Runner) cadence() time.Duration {
	if len(r.panels) > 0 {
		return r.foregroundInterval()
	}
	return backgroundInterval
}

// Run drives the loop until the context is cancelled, then takes a final
// snapshot. It must be the only goroutine calling into the World.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cadence())
	defer ticker.Stop()

	last := time.Now()
	lastSave := time.Now()

	for {
		select {
		case <-ctx.Done():
			r.requestSnapshot()
			return ctx.Err()

		case req := <-r.attach:
			r.handleAttach(req)
			ticker.Reset(r.cadence())

		case id := <-r.detach:
			delete(r.panels, id)
			ticker.Reset(r.cadence())

		case <-ticker.C:
			now := time.Now()
			raw := now.Sub(last).Seconds()
			last = now

			r.drainCommands()
			r.world.Update(raw)
			events := r.world.FlushEvents()
			r.sinkEvents(events)
			r.broadcastState(events)
			r.publishMetrics(time.Since(now).Seconds() * 1000)

			if r.opts.AutosaveEvery > 0 && time.Since(lastSave) >= r.opts.AutosaveEvery {
				r.requestSnapshot()
				lastSave = time.Now()
			}
		}
	}
}

func (r *Runner) handleAttach(req AttachRequest) {
	r.nextPanelID++
	id := fmt.Sprintf("P%d", r.nextPanelID)
	r.panels[id] = req.Out

	cfg := r.world.Config()
	width, height := r.world.Size()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PanelID:         id,
		TankParams: protocol.TankParams{
			TankID:     cfg.ID,
			Width:      width,
			Height:     height,
			TickRateHz: r.tune.Clock.TickRateHz,
			Seed:       cfg.Seed,
		},
		SimTimeSec: r.world.SimTimeSec(),
	}
	req.Resp <- welcome
	r.log.Printf("panel attached id=%s name=%q panels=%d", id, req.Name, len(r.panels))
}

func (r *Runner) drainCommands() {
	for {
		select {
		case env := <-r.cmds:
			ack := r.applyCommand(env.Cmd)
			r.send(env.PanelID, ack)
		default:
			return
		}
	}
}

// applyCommand maps one CMD op onto the corresponding world mutation and
// reports the guarded-transition result.
func (r *Runner) applyCommand(cmd protocol.CmdMsg) protocol.AckMsg {
	w := r.world
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cmd.CmdID,
		Op:              cmd.Op,
		Accepted:        true,
	}

	switch cmd.Op {
	case protocol.OpSpawnFood:
		p := w.SpawnFood(cmd.X, cmd.Y, cmd.Amount, cmd.TTLSec)
		ack.Message = fmt.Sprintf("food_id=%d", p.ID)
	case protocol.OpTogglePause:
		ack.Message = fmt.Sprintf("paused=%t", w.TogglePause())
	case protocol.OpSetSpeed:
		ack.Message = fmt.Sprintf("speed=%g", w.SetSpeedMultiplier(cmd.Speed))
	case protocol.OpResize:
		w.Resize(cmd.Width, cmd.Height)
		width, height := w.Size()
		ack.Accepted = width == cmd.Width && height == cmd.Height
		if !ack.Accepted {
			ack.Code = "BAD_DIMENSIONS"
		}
	case protocol.OpSelectFish:
		w.ToggleFishSelection(cmd.FishID)
	case protocol.OpRenameFish:
		ack.Accepted = w.RenameFish(cmd.FishID, cmd.Name)
		if !ack.Accepted {
			ack.Code = "BAD_RENAME"
		}
	case protocol.OpDiscardFish:
		ack.Accepted = w.DiscardFish(cmd.FishID)
		if !ack.Accepted {
			ack.Code = "NOT_DISCARDABLE"
		}
	case protocol.OpRemoveCorpse:
		ack.Accepted = w.RemoveCorpse(cmd.FishID)
		if !ack.Accepted {
			ack.Code = "NOT_A_CORPSE"
		}
	case protocol.OpInstallFilter:
		ack.Accepted = w.InstallWaterFilter()
		if !ack.Accepted {
			ack.Code = "INSTALL_REJECTED"
		}
	case protocol.OpToggleFilter:
		if !w.Water().Filter.Installed {
			ack.Accepted = false
			ack.Code = "NOT_INSTALLED"
			break
		}
		ack.Message = fmt.Sprintf("enabled=%t", w.ToggleWaterFilterEnabled())
	case protocol.OpMaintainFilter:
		ack.Accepted = w.MaintainWaterFilter()
		if !ack.Accepted {
			ack.Code = "MAINTAIN_REJECTED"
		}
	default:
		ack.Accepted = false
		ack.Code = "UNKNOWN_OP"
	}

	ack.SimTimeSec = w.SimTimeSec()
	return ack
}

func (r *Runner) sinkEvents(events []world.Event) {
	if r.opts.Events != nil {
		for _, ev := range events {
			if err := r.opts.Events.WriteEvent(ev); err != nil {
				r.log.Printf("event log: %v", err)
			}
		}
	}
	if err := r.opts.Telemetry.Observe(r.world, events); err != nil {
		r.log.Printf("telemetry: %v", err)
	}
}

func (r *Runner) broadcastState(events []world.Event) {
	if len(r.panels) == 0 {
		return
	}
	state := BuildState(r.world, events)
	b, err := json.Marshal(state)
	if err != nil {
		r.log.Printf("state marshal: %v", err)
		return
	}
	for _, out := range r.panels {
		select {
		case out <- b:
		default:
			// Latest wins; a slow panel just misses frames.
		}
	}
}

func (r *Runner) send(panelID string, v any) {
	out, ok := r.panels[panelID]
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (r *Runner) requestSnapshot() {
	if r.opts.Snapshots == nil {
		return
	}
	saved := SavedSnapshot{
		Snap:   r.world.ExportSnapshot(),
		Digest: r.world.StateDigest(),
	}
	select {
	case r.opts.Snapshots <- saved:
	default:
		r.log.Printf("snapshot sink full; skipping autosave at sim=%.1fs", r.world.SimTimeSec())
	}
}
