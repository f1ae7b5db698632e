package world

// PlaySession is a transient group behavior: one runner, one or more
// chasers. Fish are referenced by id and looked up tolerantly; a session with
// no valid runner or no chasers tears itself down.
type PlaySession struct {
	ID           int64
	RunnerID     int64
	ChaserIDs    []int64
	ExpiresAtSec float64
	Origin       Vec2 // presentation only
}

func (w *World) playEligible(f *Fish) bool {
	if !f.Alive || f.Play.SessionID != 0 {
		return false
	}
	if w.simTimeSec < f.Play.EligibleAtSec {
		return false
	}
	stage := f.StageAt(w.simTimeSec)
	if stage == StageBaby {
		return false
	}
	// Otherwise occupied fish don't play.
	return f.Repro.Phase != ReproLaying && f.Hunger != HungerStarving
}

// refreshPlayState clears stale per-fish play flags before the session scan.
func (w *World) refreshPlayState(f *Fish) {
	if f.Play.SessionID == 0 {
		return
	}
	s, ok := w.playSessions[f.Play.SessionID]
	if !ok || !f.Alive || w.simTimeSec >= s.ExpiresAtSec {
		f.Play = PlayState{EligibleAtSec: f.Play.EligibleAtSec}
	}
}

// tickPlaySessions runs maintenance, then expansion, then new-session
// formation, in that order.
func (w *World) tickPlaySessions() {
	w.maintainPlaySessions()
	w.expandPlaySessions()
	w.formPlaySessions()
}

func (w *World) maintainPlaySessions() {
	for _, s := range w.PlaySessions() {
		runner, runnerOK := w.fish[s.RunnerID]
		if runnerOK {
			runnerOK = runner.Alive && runner.Play.SessionID == s.ID
		}

		chasers := s.ChaserIDs[:0]
		for _, cid := range s.ChaserIDs {
			c, ok := w.fish[cid]
			if ok && c.Alive && c.Play.SessionID == s.ID {
				chasers = append(chasers, cid)
			}
		}
		s.ChaserIDs = chasers

		if !runnerOK || len(s.ChaserIDs) == 0 || w.simTimeSec >= s.ExpiresAtSec {
			w.teardownPlaySession(s.ID)
			continue
		}

		// Chasers pursue the runner; the runner flees its nearest chaser.
		var origin Vec2
		nearest := int64(0)
		bestD := 0.0
		for _, cid := range s.ChaserIDs {
			c := w.fish[cid]
			c.Play.TargetID = s.RunnerID
			origin = origin.Add(c.Pos)
			if d := c.Pos.DistTo(runner.Pos); nearest == 0 || d < bestD {
				nearest = cid
				bestD = d
			}
		}
		runner.Play.TargetID = nearest
		s.Origin = origin.Add(runner.Pos).Scale(1 / float64(len(s.ChaserIDs)+1))
	}
}

// expandPlaySessions recruits nearby bystanders. Sessions are visited in
// ascending id order so RNG draws are spent identically run to run.
func (w *World) expandPlaySessions() {
	p := w.tune.Play
	for _, s := range w.PlaySessions() {
		if len(s.ChaserIDs) >= p.MaxChasers {
			continue
		}
		for _, f := range w.sortedFish() {
			if len(s.ChaserIDs) >= p.MaxChasers {
				break
			}
			if !w.playEligible(f) || f.Pos.DistTo(s.Origin) > p.EncounterRadius {
				continue
			}
			if w.rng.Float64() >= p.ExpandProbPerTick {
				continue
			}
			f.Play = PlayState{SessionID: s.ID, Role: RoleChaser, TargetID: s.RunnerID}
			s.ChaserIDs = append(s.ChaserIDs, f.ID)
		}
	}
}

func (w *World) formPlaySessions() {
	p := w.tune.Play
	fishes := w.sortedFish()
	for i := 0; i < len(fishes); i++ {
		for j := i + 1; j < len(fishes); j++ {
			a, b := fishes[i], fishes[j]
			if !w.playEligible(a) || !w.playEligible(b) {
				continue
			}
			if a.Pos.DistTo(b.Pos) > p.EncounterRadius {
				continue
			}
			prob := p.JoinProb
			// Ground algae zones make play more likely.
			if a.Pos.Y > w.height-p.AlgaeZoneHeight || b.Pos.Y > w.height-p.AlgaeZoneHeight {
				prob *= p.AlgaeBoost
			}
			if w.rng.Float64() >= clamp01(prob) {
				// Failed rolls back off so the same pair does not re-roll
				// every tick.
				a.Play.EligibleAtSec = w.simTimeSec + p.FailCooldownSec
				b.Play.EligibleAtSec = w.simTimeSec + p.FailCooldownSec
				continue
			}

			runner, chaser := a, b
			if w.rng.IntN(2) == 1 {
				runner, chaser = b, a
			}
			w.nextPlayID++
			s := &PlaySession{
				ID:           w.nextPlayID,
				RunnerID:     runner.ID,
				ChaserIDs:    []int64{chaser.ID},
				ExpiresAtSec: w.simTimeSec + rangeSample(w.rng, p.SessionMinSec, p.SessionMaxSec),
				Origin:       runner.Pos.Add(chaser.Pos).Scale(0.5),
			}
			w.playSessions[s.ID] = s
			runner.Play = PlayState{SessionID: s.ID, Role: RoleRunner, TargetID: chaser.ID}
			chaser.Play = PlayState{SessionID: s.ID, Role: RoleChaser, TargetID: runner.ID}
			w.Emit(EventPlayStarted, map[string]any{"session_id": s.ID, "runner_id": runner.ID})
		}
	}
}

func (w *World) teardownPlaySession(id int64) {
	s, ok := w.playSessions[id]
	if !ok {
		return
	}
	if f, ok := w.fish[s.RunnerID]; ok && f.Play.SessionID == id {
		f.Play = PlayState{}
	}
	for _, cid := range s.ChaserIDs {
		if f, ok := w.fish[cid]; ok && f.Play.SessionID == id {
			f.Play = PlayState{}
		}
	}
	delete(w.playSessions, id)
	w.Emit(EventPlayEnded, map[string]any{"session_id": id})
}

// detachFromPlay pulls a dying or discarded fish out of its session; the
// session itself is revalidated on the next maintenance pass.
func (w *World) detachFromPlay(f *Fish) {
	if f.Play.SessionID != 0 {
		f.Play = PlayState{}
	}
}
