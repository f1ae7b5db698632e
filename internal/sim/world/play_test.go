package world

import "testing"

func TestFormPlaySessions_AssignsRunnerAndChaser(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	b := spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)

	// Join roll succeeds, the coin flip keeps a as the runner.
	w.SetRand(&scriptedRand{floats: []float64{0, 0.5}, ints: []int{0}, fallback: 0.9})
	w.formPlaySessions()

	sessions := w.PlaySessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions: got %d want 1", len(sessions))
	}
	s := sessions[0]
	if s.RunnerID != a.ID {
		t.Fatalf("runner: got %d want %d", s.RunnerID, a.ID)
	}
	if len(s.ChaserIDs) != 1 || s.ChaserIDs[0] != b.ID {
		t.Fatalf("chasers: %v", s.ChaserIDs)
	}
	if a.Play.Role != RoleRunner || a.Play.TargetID != b.ID {
		t.Fatalf("runner play state: %+v", a.Play)
	}
	if b.Play.Role != RoleChaser || b.Play.TargetID != a.ID {
		t.Fatalf("chaser play state: %+v", b.Play)
	}
	if s.ExpiresAtSec <= w.simTimeSec {
		t.Fatalf("session already expired: %v", s.ExpiresAtSec)
	}

	var started bool
	for _, ev := range w.FlushEvents() {
		if ev.Type == EventPlayStarted {
			started = true
		}
	}
	if !started {
		t.Fatalf("no PLAY_STARTED event emitted")
	}
}

func TestFormPlaySessions_FailedRollBacksOff(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	b := spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)

	w.SetRand(&scriptedRand{fallback: 0.9})
	w.formPlaySessions()

	if len(w.playSessions) != 0 {
		t.Fatalf("session formed on a failed roll")
	}
	want := w.simTimeSec + w.tune.Play.FailCooldownSec
	if a.Play.EligibleAtSec != want || b.Play.EligibleAtSec != want {
		t.Fatalf("fail cooldown not applied: a=%v b=%v", a.Play.EligibleAtSec, b.Play.EligibleAtSec)
	}

	// Even a guaranteed roll cannot re-pair them during the cooldown.
	w.SetRand(&scriptedRand{fallback: 0})
	w.formPlaySessions()
	if len(w.playSessions) != 0 {
		t.Fatalf("cooldown ignored")
	}
}

func TestPlayEligible_ExcludesOccupiedFish(t *testing.T) {
	w := newTestWorld(t)
	f := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)

	if !w.playEligible(f) {
		t.Fatalf("healthy adult must be eligible")
	}

	f.SpawnTimeSec = w.simTimeSec // newborn
	if w.playEligible(f) {
		t.Fatalf("baby must not play")
	}
	f.SpawnTimeSec = w.simTimeSec - f.JuvenileEndSec - 10

	f.Repro.Phase = ReproLaying
	if w.playEligible(f) {
		t.Fatalf("laying female must not play")
	}
	f.Repro.Phase = ReproReady

	f.Hunger = HungerStarving
	if w.playEligible(f) {
		t.Fatalf("starving fish must not play")
	}
	f.Hunger = HungerFed

	f.Play.SessionID = 7
	if w.playEligible(f) {
		t.Fatalf("fish already in a session must not re-join")
	}
}

func TestMaintainPlaySessions_TearsDownOnRunnerDeath(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	b := spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)
	w.SetRand(&scriptedRand{floats: []float64{0, 0.5}, ints: []int{0}, fallback: 0.9})
	w.formPlaySessions()
	w.FlushEvents()

	w.killFish(a, DeathOldAge)
	w.maintainPlaySessions()

	if len(w.playSessions) != 0 {
		t.Fatalf("session survived its runner's death")
	}
	if b.Play.SessionID != 0 || b.Play.Role != RoleNone {
		t.Fatalf("chaser not released: %+v", b.Play)
	}
	var ended bool
	for _, ev := range w.FlushEvents() {
		if ev.Type == EventPlayEnded {
			ended = true
		}
	}
	if !ended {
		t.Fatalf("no PLAY_ENDED event emitted")
	}
}

func TestPlaySessions_ExpireAndReleaseFish(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	b := spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)
	w.SetRand(&scriptedRand{floats: []float64{0, 0.5}, ints: []int{0}, fallback: 0.9})
	w.formPlaySessions()

	s := w.PlaySessions()[0]
	w.simTimeSec = s.ExpiresAtSec + 1

	w.refreshPlayState(a)
	w.refreshPlayState(b)
	w.maintainPlaySessions()

	if len(w.playSessions) != 0 {
		t.Fatalf("expired session not removed")
	}
	if a.Play.SessionID != 0 || b.Play.SessionID != 0 {
		t.Fatalf("fish not released on expiry")
	}
}

func TestExpandPlaySessions_AddsNearbyFishUpToCap(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
	spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)
	w.SetRand(&scriptedRand{floats: []float64{0, 0.5}, ints: []int{0}, fallback: 0.9})
	w.formPlaySessions()
	s := w.PlaySessions()[0]

	joiner := spawnAdult(w, s.Origin, SexFemale)
	w.SetRand(&scriptedRand{fallback: 0})
	w.expandPlaySessions()

	if len(s.ChaserIDs) != 2 {
		t.Fatalf("nearby fish not recruited: %v", s.ChaserIDs)
	}
	if joiner.Play.SessionID != s.ID || joiner.Play.Role != RoleChaser || joiner.Play.TargetID != a.ID {
		t.Fatalf("joiner play state: %+v", joiner.Play)
	}

	// Fill to the cap, then one more candidate must be ignored.
	for len(s.ChaserIDs) < w.tune.Play.MaxChasers {
		extra := spawnAdult(w, s.Origin, SexMale)
		w.expandPlaySessions()
		if extra.Play.SessionID == 0 {
			t.Fatalf("eligible fish below the cap not recruited")
		}
	}
	overflow := spawnAdult(w, s.Origin, SexFemale)
	w.expandPlaySessions()
	if overflow.Play.SessionID != 0 {
		t.Fatalf("cap exceeded: %v", s.ChaserIDs)
	}
}

func TestExpandPlaySessions_VisitsSessionsInIDOrder(t *testing.T) {
	// A bystander in range of two sessions must always be offered to the
	// lower-id one first, independent of map iteration order.
	for trial := 0; trial < 50; trial++ {
		w := newTestWorld(t)
		r1 := spawnAdult(w, Vec2{X: 100, Y: 100}, SexFemale)
		c1 := spawnAdult(w, Vec2{X: 120, Y: 100}, SexMale)
		r2 := spawnAdult(w, Vec2{X: 140, Y: 100}, SexFemale)
		c2 := spawnAdult(w, Vec2{X: 160, Y: 100}, SexMale)

		w.nextPlayID = 2
		s1 := &PlaySession{ID: 1, RunnerID: r1.ID, ChaserIDs: []int64{c1.ID},
			ExpiresAtSec: w.simTimeSec + 60, Origin: Vec2{X: 110, Y: 100}}
		s2 := &PlaySession{ID: 2, RunnerID: r2.ID, ChaserIDs: []int64{c2.ID},
			ExpiresAtSec: w.simTimeSec + 60, Origin: Vec2{X: 150, Y: 100}}
		w.playSessions[s1.ID] = s1
		w.playSessions[s2.ID] = s2
		r1.Play = PlayState{SessionID: s1.ID, Role: RoleRunner, TargetID: c1.ID}
		c1.Play = PlayState{SessionID: s1.ID, Role: RoleChaser, TargetID: r1.ID}
		r2.Play = PlayState{SessionID: s2.ID, Role: RoleRunner, TargetID: c2.ID}
		c2.Play = PlayState{SessionID: s2.ID, Role: RoleChaser, TargetID: r2.ID}

		// In range of both origins.
		joiner := spawnAdult(w, Vec2{X: 130, Y: 100}, SexFemale)

		// Exactly one winning draw; every later roll fails.
		w.SetRand(&scriptedRand{floats: []float64{0}, fallback: 0.9})
		w.expandPlaySessions()

		if joiner.Play.SessionID != s1.ID {
			t.Fatalf("trial %d: joined session %d, want %d", trial, joiner.Play.SessionID, s1.ID)
		}
	}
}
