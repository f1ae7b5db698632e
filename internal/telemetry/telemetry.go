package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"fishtank.ai/internal/sim/world"
)

// DefaultWindowSec is the aggregation window in simulated seconds.
const DefaultWindowSec = 60.0

// WindowStats is one aggregated row of windows.csv.
type WindowStats struct {
	WindowEndSec  float64 `csv:"window_end_sec"`
	FishAlive     int     `csv:"fish_alive"`
	FishDead      int     `csv:"fish_dead"`
	Eggs          int     `csv:"eggs"`
	Food          int     `csv:"food"`
	PlaySessions  int     `csv:"play_sessions"`
	Hygiene       float64 `csv:"hygiene"`
	Dirt          float64 `csv:"dirt"`
	WellbeingMean float64 `csv:"wellbeing_mean"`
	WellbeingStd  float64 `csv:"wellbeing_std"`
	Births        int     `csv:"births"`
	Deaths        int     `csv:"deaths"`
	EggsLaid      int     `csv:"eggs_laid"`
	FoodConsumed  int     `csv:"food_consumed"`
}

// Recorder aggregates per-window tank statistics into a CSV. All methods are
// nil-safe so callers can hold a nil *Recorder when telemetry is disabled.
type Recorder struct {
	windowSec float64
	file      *os.File

	headerWritten bool

	windowEnd    float64
	births       int
	deaths       int
	eggsLaid     int
	foodConsumed int
}

// NewRecorder opens windows.csv under dir. Returns nil if dir is empty
// (telemetry disabled).
func NewRecorder(dir string, windowSec float64) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if windowSec <= 0 {
		windowSec = DefaultWindowSec
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "windows.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating windows.csv: %w", err)
	}
	return &Recorder{windowSec: windowSec, file: f}, nil
}

// Observe ingests one tick's events and, when the window boundary has been
// crossed, writes the aggregated row. Must be called on the loop goroutine.
func (r *Recorder) Observe(w *world.World, events []world.Event) error {
	if r == nil {
		return nil
	}
	if r.windowEnd == 0 {
		r.windowEnd = w.SimTimeSec() + r.windowSec
	}

	for _, ev := range events {
		switch ev.Type {
		case world.EventFishBorn, world.EventEggHatched:
			r.births++
		case world.EventFishDied:
			r.deaths++
		case world.EventEggsLaid:
			r.eggsLaid++
		case world.EventFoodConsumed:
			r.foodConsumed++
		}
	}

	if w.SimTimeSec() < r.windowEnd {
		return nil
	}
	row := r.buildRow(w)
	r.windowEnd = w.SimTimeSec() + r.windowSec
	r.births, r.deaths, r.eggsLaid, r.foodConsumed = 0, 0, 0, 0
	return r.writeRow(row)
}

func (r *Recorder) buildRow(w *world.World) WindowStats {
	var alive, dead int
	var wellbeing []float64
	for _, f := range w.Fish() {
		if f.Alive {
			alive++
			wellbeing = append(wellbeing, f.Wellbeing())
		} else {
			dead++
		}
	}

	var mean, std float64
	if len(wellbeing) > 0 {
		mean = stat.Mean(wellbeing, nil)
	}
	if len(wellbeing) > 1 {
		std = stat.StdDev(wellbeing, nil)
	}

	water := w.Water()
	return WindowStats{
		WindowEndSec:  w.SimTimeSec(),
		FishAlive:     alive,
		FishDead:      dead,
		Eggs:          len(w.Eggs()),
		Food:          len(w.Food()),
		PlaySessions:  len(w.PlaySessions()),
		Hygiene:       water.Hygiene,
		Dirt:          water.Dirt,
		WellbeingMean: mean,
		WellbeingStd:  std,
		Births:        r.births,
		Deaths:        r.deaths,
		EggsLaid:      r.eggsLaid,
		FoodConsumed:  r.foodConsumed,
	}
}

func (r *Recorder) writeRow(row WindowStats) error {
	records := []WindowStats{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the CSV file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}
