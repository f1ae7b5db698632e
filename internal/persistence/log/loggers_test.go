package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"fishtank.ai/internal/sim/world"
)

func TestEventLogger_WritesDecodableLines(t *testing.T) {
	dir := t.TempDir()

	l := NewEventLogger(dir)
	events := []world.Event{
		{SimTimeSec: 1, Type: world.EventFishBorn, Data: map[string]any{"fish_id": float64(1)}},
		{SimTimeSec: 2, Type: world.EventEggsLaid, Data: map[string]any{"mother_id": float64(2), "count": float64(3)}},
		{SimTimeSec: 3, Type: world.EventFilterInstalled},
	}
	for _, ev := range events {
		if err := l.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events", "events-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("log files: %v (err=%v)", files, err)
	}

	entries := readEntries(t, files[0])
	if len(entries) != len(events) {
		t.Fatalf("entries: got %d want %d", len(entries), len(events))
	}
	for i, e := range entries {
		if e.SimTimeSec != events[i].SimTimeSec || e.Type != string(events[i].Type) {
			t.Fatalf("entry %d mismatch: %+v", i, e)
		}
		if e.RecordedAt == "" {
			t.Fatalf("entry %d missing recorded_at", i)
		}
	}
	if entries[1].Data["count"] != float64(3) {
		t.Fatalf("data round-trip: %+v", entries[1].Data)
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w := NewJSONLZstdWriter(dir, "events")
	if err := w.Write(map[string]any{"n": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2 := NewJSONLZstdWriter(dir, "events")
	if err := w2.Write(map[string]any{"n": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events-*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		t.Fatalf("log files: %v (err=%v)", files, err)
	}

	// Both writes land in the same hour file in practice; count lines across
	// all files to stay robust at an hour boundary.
	var total int
	for _, path := range files {
		total += len(readLines(t, path))
	}
	if total != 2 {
		t.Fatalf("lines: got %d want 2", total)
	}
}

func readEntries(t *testing.T, path string) []EventEntry {
	t.Helper()
	var out []EventEntry
	for _, line := range readLines(t, path) {
		var e EventEntry
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var out [][]byte
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}
