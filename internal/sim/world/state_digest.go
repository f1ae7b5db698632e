package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"
)

// StateDigest hashes every persisted field in sorted order. Two worlds with
// equal digests are behaviorally equivalent; round-trip tests compare them.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	writeF64(h, &tmp, w.simTimeSec)
	writeF64(h, &tmp, w.wallSec)
	writeF64(h, &tmp, w.speedMult)
	h.Write([]byte{boolByte(w.paused)})
	writeU64(h, &tmp, uint64(w.feedingCount))
	writeU64(h, &tmp, uint64(w.nextFishID))
	writeU64(h, &tmp, uint64(w.nextFoodID))
	writeU64(h, &tmp, uint64(w.nextEggID))
	writeU64(h, &tmp, uint64(w.nextPlayID))

	for _, f := range w.sortedFish() {
		writeU64(h, &tmp, uint64(f.ID))
		h.Write([]byte(f.Name))
		writeF64(h, &tmp, f.Pos.X)
		writeF64(h, &tmp, f.Pos.Y)
		writeF64(h, &tmp, f.Heading)
		writeF64(h, &tmp, f.Speed)
		writeF64(h, &tmp, f.Traits.SizeFactor)
		writeF64(h, &tmp, f.Traits.GrowthRate)
		writeF64(h, &tmp, f.Traits.SpeedFactor)
		writeF64(h, &tmp, f.Traits.HueDeg)
		writeF64(h, &tmp, f.Traits.LifespanSec)
		writeF64(h, &tmp, f.SpawnTimeSec)
		writeF64(h, &tmp, f.BabyEndSec)
		writeF64(h, &tmp, f.JuvenileEndSec)
		writeF64(h, &tmp, f.OldStartSec)
		writeF64(h, &tmp, f.Energy)
		h.Write([]byte(f.Hunger))
		h.Write([]byte{boolByte(f.Alive)})
		h.Write([]byte(f.DeathReason))
		writeF64(h, &tmp, f.DeathTimeSec)
		writeU64(h, &tmp, uint64(f.CorpseDirtSteps))
		h.Write([]byte(f.Repro.Sex))
		h.Write([]byte(f.Repro.Phase))
		writeU64(h, &tmp, uint64(f.Repro.FatherID))
		writeF64(h, &tmp, f.Repro.DueTimeSec)
		writeF64(h, &tmp, f.Repro.LayTarget.X)
		writeF64(h, &tmp, f.Repro.LayTarget.Y)
		writeF64(h, &tmp, f.Repro.CooldownUntilSec)
		writeU64(h, &tmp, uint64(f.Play.SessionID))
		h.Write([]byte(f.Play.Role))
		writeU64(h, &tmp, uint64(f.Play.TargetID))
		writeF64(h, &tmp, f.Play.EligibleAtSec)
	}

	food := w.Food()
	sort.Slice(food, func(i, j int) bool { return food[i].ID < food[j].ID })
	for _, p := range food {
		writeU64(h, &tmp, uint64(p.ID))
		writeF64(h, &tmp, p.Pos.X)
		writeF64(h, &tmp, p.Pos.Y)
		writeF64(h, &tmp, p.Amount)
		writeF64(h, &tmp, p.TTLSec)
		writeF64(h, &tmp, p.FallVel)
	}

	eggs := w.Eggs()
	sort.Slice(eggs, func(i, j int) bool { return eggs[i].ID < eggs[j].ID })
	for _, e := range eggs {
		writeU64(h, &tmp, uint64(e.ID))
		writeF64(h, &tmp, e.Pos.X)
		writeF64(h, &tmp, e.Pos.Y)
		writeF64(h, &tmp, e.LayTimeSec)
		writeF64(h, &tmp, e.HatchDueSec)
		writeU64(h, &tmp, uint64(e.MotherID))
		writeU64(h, &tmp, uint64(e.FatherID))
		writeF64(h, &tmp, e.MotherTraits.SizeFactor)
		writeF64(h, &tmp, e.MotherTraits.LifespanSec)
		writeF64(h, &tmp, e.FatherTraits.SizeFactor)
		writeF64(h, &tmp, e.FatherTraits.LifespanSec)
		h.Write([]byte(e.State))
	}

	for _, s := range w.PlaySessions() {
		writeU64(h, &tmp, uint64(s.ID))
		writeU64(h, &tmp, uint64(s.RunnerID))
		for _, cid := range s.ChaserIDs {
			writeU64(h, &tmp, uint64(cid))
		}
		writeF64(h, &tmp, s.ExpiresAtSec)
	}

	writeF64(h, &tmp, w.water.Hygiene)
	writeF64(h, &tmp, w.water.Dirt)
	fs := w.water.Filter
	h.Write([]byte{boolByte(fs.Unlocked), boolByte(fs.Installed), boolByte(fs.Enabled)})
	writeF64(h, &tmp, fs.Health)
	h.Write([]byte(fs.Phase))
	writeF64(h, &tmp, fs.PhaseElapsed)

	return hex.EncodeToString(h.Sum(nil))
}

func writeU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func writeF64(h hash.Hash, tmp *[8]byte, v float64) {
	writeU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
