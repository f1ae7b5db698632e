package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fishtank.ai/internal/persistence/indexdb"
	persistlog "fishtank.ai/internal/persistence/log"
	"fishtank.ai/internal/persistence/snapshot"
	"fishtank.ai/internal/sim/runner"
	"fishtank.ai/internal/sim/tuning"
	"fishtank.ai/internal/sim/world"
	"fishtank.ai/internal/telemetry"
	"fishtank.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		tankID     = flag.String("tank", "tank_1", "tank id")
		seed       = flag.Int64("seed", 1337, "tank seed (used only when starting a fresh tank)")
		fishN      = flag.Int("fish", 6, "initial population for a fresh tank")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (events + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		autosaveSec  = flag.Int("autosave_sec", 60, "autosave interval in wall seconds (0 disables)")
		telemetryDir = flag.String("telemetry", "", "telemetry output directory (empty to disable)")
		telemetryWin = flag.Float64("telemetry_window_sec", telemetry.DefaultWindowSec, "telemetry aggregation window in simulated seconds")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tankDir := filepath.Join(*dataDir, "tanks", *tankID)
	_ = os.MkdirAll(tankDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(tankDir)
	}

	// Load tuning (required for a fresh tank; optional for snapshot resumes).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		if os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Optional: read-model index backend (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		var err error
		idx, err = indexdb.OpenSQLite(filepath.Join(tankDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	// Create tank (fresh or resumed from snapshot).
	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.TankID != "" && snap.Header.TankID != *tankID {
			logger.Fatalf("snapshot tank id mismatch: flag=%s snap=%s", *tankID, snap.Header.TankID)
		}
		w = world.New(world.Config{
			ID:     *tankID,
			Width:  snap.Width,
			Height: snap.Height,
			Seed:   snap.Seed,
		}, tune)
		w.ImportSnapshot(snap)
		logger.Printf("resumed from snapshot=%s sim=%.1fs fish=%d", filepath.Base(snapshotToLoad), w.SimTimeSec(), len(w.Fish()))
	} else {
		w = world.New(world.Config{ID: *tankID, Seed: *seed}, tune)
		w.SpawnInitialPopulation(*fishN)
		logger.Printf("fresh tank id=%s seed=%d fish=%d", *tankID, *seed, *fishN)
	}

	ctx, cancel := signalContext()
	defer cancel()

	eventLog := persistlog.NewEventLogger(tankDir)
	defer eventLog.Close()

	rec, err := telemetry.NewRecorder(strings.TrimSpace(*telemetryDir), *telemetryWin)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}
	defer rec.Close()

	snapCh := make(chan runner.SavedSnapshot, 2)
	r := runner.New(w, tune, logger, runner.Options{
		AutosaveEvery: time.Duration(*autosaveSec) * time.Second,
		Snapshots:     snapCh,
		Events:        multiEventLogger{a: eventLog, b: idx},
		Telemetry:     rec,
	})

	// Snapshot writer.
	go func() {
		for {
			select {
			case <-ctx.Done():
				// Drain the final snapshot taken during shutdown.
				select {
				case saved := <-snapCh:
					writeSnapshot(tankDir, saved, idx, logger)
				default:
				}
				return
			case saved := <-snapCh:
				writeSnapshot(tankDir, saved, idx, logger)
			}
		}
	}()

	go func() {
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("runner stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := r.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP fishtank_sim_time_seconds Current simulated time.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_sim_time_seconds gauge\n")
		fmt.Fprintf(rw, "fishtank_sim_time_seconds{tank=%q} %.3f\n", *tankID, m.SimTimeSec)

		fmt.Fprintf(rw, "# HELP fishtank_fish Current fish counts by state.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_fish gauge\n")
		fmt.Fprintf(rw, "fishtank_fish{tank=%q,state=%q} %d\n", *tankID, "alive", m.FishAlive)
		fmt.Fprintf(rw, "fishtank_fish{tank=%q,state=%q} %d\n", *tankID, "dead", m.FishDead)

		fmt.Fprintf(rw, "# HELP fishtank_eggs Current incubating egg count.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_eggs gauge\n")
		fmt.Fprintf(rw, "fishtank_eggs{tank=%q} %d\n", *tankID, m.Eggs)

		fmt.Fprintf(rw, "# HELP fishtank_food_pellets Current food pellet count.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_food_pellets gauge\n")
		fmt.Fprintf(rw, "fishtank_food_pellets{tank=%q} %d\n", *tankID, m.Food)

		fmt.Fprintf(rw, "# HELP fishtank_play_sessions Current play session count.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_play_sessions gauge\n")
		fmt.Fprintf(rw, "fishtank_play_sessions{tank=%q} %d\n", *tankID, m.PlaySessions)

		fmt.Fprintf(rw, "# HELP fishtank_water_hygiene Water hygiene (0..1).\n")
		fmt.Fprintf(rw, "# TYPE fishtank_water_hygiene gauge\n")
		fmt.Fprintf(rw, "fishtank_water_hygiene{tank=%q} %.4f\n", *tankID, m.Hygiene)

		fmt.Fprintf(rw, "# HELP fishtank_panels Connected panel count.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_panels gauge\n")
		fmt.Fprintf(rw, "fishtank_panels{tank=%q} %d\n", *tankID, m.Panels)

		fmt.Fprintf(rw, "# HELP fishtank_step_ms Last tick duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_step_ms gauge\n")
		fmt.Fprintf(rw, "fishtank_step_ms{tank=%q} %.3f\n", *tankID, m.StepMS)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(r, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func writeSnapshot(tankDir string, saved runner.SavedSnapshot, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	path := filepath.Join(tankDir, "snapshots", fmt.Sprintf("%d.snap.zst", int64(saved.Snap.Header.SimTimeSec)))
	if err := snapshot.WriteSnapshot(path, saved.Snap); err != nil {
		logger.Printf("snapshot write: %v", err)
		return
	}
	if idx != nil {
		idx.RecordSnapshot(path, saved.Snap, saved.Digest)
	}
	logger.Printf("snapshot saved path=%s digest=%s", filepath.Base(path), saved.Digest[:12])
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(tankDir string) string {
	dir := filepath.Join(tankDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestSec int64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		sec, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || sec > bestSec {
			bestSec = sec
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// multiEventLogger fans events out to the JSONL log and the sqlite index.
type multiEventLogger struct {
	a runner.EventLogger
	b *indexdb.SQLiteIndex
}

func (m multiEventLogger) WriteEvent(ev world.Event) error {
	if m.a != nil {
		_ = m.a.WriteEvent(ev)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(ev)
	}
	return nil
}
