package world

import "math"

// decideBehavior recomputes the per-tick behavior mode from committed state.
// Order of precedence: corpses sink, laying females walk to the lay target,
// players chase, fish with visible food seek it, everyone else wanders. The
// detection radius widens with hunger, so fed fish only notice food close by.
func (w *World) decideBehavior(f *Fish) {
	if !f.Alive {
		f.behavior = SinkingCorpse{}
		return
	}

	if f.Repro.Phase == ReproLaying {
		// The lay walk reuses the wander channel with a pinned target.
		f.wanderTarget = f.Repro.LayTarget
		f.hasWander = true
		f.behavior = Wander{}
		return
	}

	if f.Play.SessionID != 0 && f.Play.TargetID != 0 {
		if _, ok := w.fish[f.Play.TargetID]; ok {
			f.behavior = Playing{PartnerID: f.Play.TargetID}
			return
		}
	}

	if p := w.nearestFood(f.Pos, f.detectRadius(w)); p != nil {
		f.behavior = SeekFood{FoodID: p.ID}
		return
	}

	f.behavior = Wander{}
}

// integrateSteering turns and moves one fish by the motion delta.
func (w *World) integrateSteering(f *Fish, motionDelta float64) {
	prev := f.Pos
	fi := w.tune.Fish

	if _, dead := f.behavior.(SinkingCorpse); dead {
		f.Pos.Y += fi.SinkSpeed * motionDelta
		f.Pos = w.clampIntoTank(f.Pos)
		f.lastMoveDist = 0
		return
	}

	target, boost := w.steerTarget(f)

	// Replace the wander target when reached, or on a low-probability roll
	// so the population never retargets in sync.
	if _, wandering := f.behavior.(Wander); wandering && f.Repro.Phase != ReproLaying {
		if !f.hasWander || f.Pos.DistTo(f.wanderTarget) < fi.WanderReachRadius ||
			w.rng.Float64() < fi.RetargetProbPerSec*motionDelta {
			f.wanderTarget = w.randomTankPoint()
			f.hasWander = true
		}
		target = f.wanderTarget
	}

	seek := target.Sub(f.Pos).Norm()
	desired := seek.Add(w.wallAvoidance(f.Pos)).Norm()
	want := constrainHeading(f.Heading, desired, fi.FacingDeadband, fi.MaxTiltRad)

	// Two capped rates: the desired angle drifts, the body turns.
	want = turnToward(f.Heading, want, fi.DriftRateRad*motionDelta)
	f.Heading = turnToward(f.Heading, want, fi.TurnRateRad*motionDelta)

	f.breathPhase += 2 * math.Pi * fi.BreathHz * motionDelta
	cruise := fi.CruiseSpeed * f.Traits.SpeedFactor * f.hungerBoost(w) * boost
	cruise *= 1 + fi.BreathAmp*math.Sin(f.breathPhase)
	// Ease toward cruise instead of snapping.
	f.Speed += (cruise - f.Speed) * clamp01(3*motionDelta)

	f.Pos.X += math.Cos(f.Heading) * f.Speed * motionDelta
	f.Pos.Y += math.Sin(f.Heading) * f.Speed * motionDelta

	clamped := w.clampIntoTank(f.Pos)
	if clamped != f.Pos {
		// Reflect across the violated axis and retarget so no fish stays
		// pinned against an edge.
		if clamped.X != f.Pos.X {
			f.Heading = wrapAngle(math.Pi - f.Heading)
		}
		if clamped.Y != f.Pos.Y {
			f.Heading = wrapAngle(-f.Heading)
		}
		f.Pos = clamped
		f.wanderTarget = w.randomTankPoint()
		f.hasWander = true
	}

	f.lastMoveDist = f.Pos.DistTo(prev)
}

// steerTarget resolves the live position the current behavior is chasing.
// Food free-falls and partners move, so targets are re-read every tick.
func (w *World) steerTarget(f *Fish) (Vec2, float64) {
	switch b := f.behavior.(type) {
	case SeekFood:
		if p := w.foodByID(b.FoodID); p != nil {
			return p.Pos, 1
		}
	case Playing:
		if other, ok := w.fish[b.PartnerID]; ok {
			return other.Pos, w.tune.Play.SpeedBoost
		}
	}
	if f.hasWander {
		return f.wanderTarget, 1
	}
	return f.Pos, 1
}

// wallAvoidance grows quadratically as the fish approaches the configured
// margin from any boundary. Soft, no discrete bounce except at the edge.
func (w *World) wallAvoidance(p Vec2) Vec2 {
	m := w.tune.Tank.WallMargin
	if m <= 0 {
		return Vec2{}
	}
	var out Vec2
	if d := p.X; d < m {
		t := (m - d) / m
		out.X += t * t
	}
	if d := w.width - p.X; d < m {
		t := (m - d) / m
		out.X -= t * t
	}
	if d := p.Y; d < m {
		t := (m - d) / m
		out.Y += t * t
	}
	if d := w.height - p.Y; d < m {
		t := (m - d) / m
		out.Y -= t * t
	}
	return out
}

// constrainHeading keeps sprite orientation plausible: horizontal facing only
// flips once the desired direction crosses the cosine deadband, and vertical
// tilt never exceeds the maximum.
func constrainHeading(cur float64, desired Vec2, deadband, maxTilt float64) float64 {
	facingLeft := math.Abs(wrapAngle(cur)) > math.Pi/2
	wantLeft := facingLeft
	if desired.X > deadband {
		wantLeft = false
	} else if desired.X < -deadband {
		wantLeft = true
	}

	tilt := math.Asin(clamp(desired.Y, -1, 1))
	tilt = clamp(tilt, -maxTilt, maxTilt)

	if wantLeft {
		return wrapAngle(math.Pi - tilt)
	}
	return tilt
}

func (w *World) randomTankPoint() Vec2 {
	m := w.tune.Tank.WallMargin / 2
	return Vec2{
		X: rangeSample(w.rng, m, w.width-m),
		Y: rangeSample(w.rng, m, w.height-m),
	}
}

func (w *World) clampIntoTank(p Vec2) Vec2 {
	return Vec2{X: clamp(p.X, 0, w.width), Y: clamp(p.Y, 0, w.height)}
}
