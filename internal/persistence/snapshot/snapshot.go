package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version    int     `json:"version"`
	TankID     string  `json:"tank_id"`
	SimTimeSec float64 `json:"sim_time_sec"`
}

// TankV1 is the complete persisted state of one tank. Everything needed to
// reconstruct an equivalent World round-trips through it; transient behavior
// state does not.
type TankV1 struct {
	Header Header `json:"header"`

	Seed   int64   `json:"seed"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	WallSec      float64 `json:"wall_sec"`
	SpeedMult    float64 `json:"speed_mult"`
	Paused       bool    `json:"paused"`
	FeedingCount int     `json:"feeding_count"`
	SelectedFish int64   `json:"selected_fish,omitempty"`

	Fish     []FishV1        `json:"fish"`
	Food     []FoodV1        `json:"food"`
	Eggs     []EggV1         `json:"eggs"`
	Sessions []PlaySessionV1 `json:"play_sessions"`
	Water    WaterV1         `json:"water"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextFish int64 `json:"next_fish"`
	NextFood int64 `json:"next_food"`
	NextEgg  int64 `json:"next_egg"`
	NextPlay int64 `json:"next_play"`
}

type TraitsV1 struct {
	SizeFactor  float64 `json:"size_factor"`
	GrowthRate  float64 `json:"growth_rate"`
	SpeedFactor float64 `json:"speed_factor"`
	HueDeg      float64 `json:"hue_deg"`
	LifespanSec float64 `json:"lifespan_sec"`
}

type ReproductionV1 struct {
	Sex              string     `json:"sex"`
	Phase            string     `json:"phase"`
	FatherID         int64      `json:"father_id,omitempty"`
	DueTimeSec       float64    `json:"due_time_sec,omitempty"`
	LayTarget        [2]float64 `json:"lay_target,omitempty"`
	CooldownUntilSec float64    `json:"cooldown_until_sec,omitempty"`
}

type PlayStateV1 struct {
	SessionID     int64   `json:"session_id,omitempty"`
	Role          string  `json:"role,omitempty"`
	TargetID      int64   `json:"target_id,omitempty"`
	EligibleAtSec float64 `json:"eligible_at_sec,omitempty"`
}

type FishV1 struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name,omitempty"`
	Pos     [2]float64 `json:"pos"`
	Heading float64    `json:"heading"`
	Speed   float64    `json:"speed"`

	Traits TraitsV1 `json:"traits"`

	SpawnTimeSec   float64 `json:"spawn_time_sec"`
	BabyEndSec     float64 `json:"baby_end_sec"`
	JuvenileEndSec float64 `json:"juvenile_end_sec"`
	OldStartSec    float64 `json:"old_start_sec"`

	Energy float64 `json:"energy"`
	Hunger string  `json:"hunger"`

	Alive           bool    `json:"alive"`
	DeathReason     string  `json:"death_reason,omitempty"`
	DeathTimeSec    float64 `json:"death_time_sec,omitempty"`
	CorpseDirtSteps int     `json:"corpse_dirt_steps,omitempty"`

	Repro ReproductionV1 `json:"repro"`
	Play  PlayStateV1    `json:"play"`
}

type FoodV1 struct {
	ID       int64      `json:"id"`
	Pos      [2]float64 `json:"pos"`
	Amount   float64    `json:"amount"`
	TTLSec   float64    `json:"ttl_sec"`
	FallVel  float64    `json:"fall_vel"`
	SpawnSec float64    `json:"spawn_sec"`
}

type EggV1 struct {
	ID           int64      `json:"id"`
	Pos          [2]float64 `json:"pos"`
	LayTimeSec   float64    `json:"lay_time_sec"`
	HatchDueSec  float64    `json:"hatch_due_sec"`
	MotherID     int64      `json:"mother_id"`
	FatherID     int64      `json:"father_id"`
	MotherTraits TraitsV1   `json:"mother_traits"`
	FatherTraits TraitsV1   `json:"father_traits"`
	State        string     `json:"state"`
	Edible       bool       `json:"edible,omitempty"`
}

type PlaySessionV1 struct {
	ID           int64      `json:"id"`
	RunnerID     int64      `json:"runner_id"`
	ChaserIDs    []int64    `json:"chaser_ids"`
	ExpiresAtSec float64    `json:"expires_at_sec"`
	Origin       [2]float64 `json:"origin"`
}

type FilterV1 struct {
	Unlocked     bool    `json:"unlocked"`
	Installed    bool    `json:"installed"`
	Enabled      bool    `json:"enabled"`
	Health       float64 `json:"health"`
	Phase        string  `json:"phase"`
	PhaseElapsed float64 `json:"phase_elapsed"`
}

type WaterV1 struct {
	Hygiene float64  `json:"hygiene"`
	Dirt    float64  `json:"dirt"`
	Filter  FilterV1 `json:"filter"`
}

// WriteSnapshot writes a zstd-compressed file: one JSON header line for
// cheap inspection, then the gob body.
func WriteSnapshot(path string, snap TankV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (TankV1, error) {
	var snap TankV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
