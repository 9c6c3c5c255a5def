package game

import (
	"math"
	"math/rand"
)

// Step advances the match by one tick. The caller owns s exclusively; nothing
// here blocks or does I/O. rng drives the crazy-ball jitter.
func Step(s *State, rng *rand.Rand) {
	s.Tick++

	// Counting down before the ball pass gives a pickup its full window:
	// the tick that sets the countdown must not also consume from it.
	if s.ReverseTicks > 0 {
		s.ReverseTicks--
		if s.ReverseTicks == 0 {
			s.Reverse = [2]bool{}
		}
	}

	// Balls spawned this tick (multi) start moving next tick. Staging them
	// keeps the &s.Balls[i] pointers below valid.
	var spawned []Ball

	stepBall(s, &s.Ball, true, rng, &spawned)
	for i := range s.Balls {
		stepBall(s, &s.Balls[i], false, rng, &spawned)
	}
	s.Balls = append(s.Balls, spawned...)

	// Extra balls vanish once they leave the court; only the primary scores.
	kept := s.Balls[:0]
	for _, b := range s.Balls {
		if b.X > 0 && b.X < CourtWidth {
			kept = append(kept, b)
		}
	}
	s.Balls = kept
}

func stepBall(s *State, b *Ball, primary bool, rng *rand.Rand, spawned *[]Ball) {
	b.X += b.VX
	b.Y += b.VY

	if b.Y <= 0 || b.Y >= CourtHeight-BallSize {
		b.VY = -b.VY
	}

	for i := 0; i < 2; i++ {
		var atPlane bool
		if i == 0 {
			atPlane = b.X <= PaddleOffsetX+PaddleWidth
		} else {
			atPlane = b.X+BallSize >= CourtWidth-PaddleOffsetX-PaddleWidth-BallSize
		}
		if !atPlane {
			continue
		}
		if b.Y+BallSize > s.Paddles[i] && b.Y < s.Paddles[i]+s.PaddleSize[i] {
			if i == 0 {
				b.VX = math.Abs(b.VX) * BounceSpeedMult
			} else {
				b.VX = -math.Abs(b.VX) * BounceSpeedMult
			}
			b.VY += (b.Y + BallSize/2 - (s.Paddles[i] + s.PaddleSize[i]/2)) * SpinFactor
			s.Effects = append(s.Effects, Effect{Type: "paddle", Idx: i})
		}
	}

	if len(s.PowerUps) > 0 {
		remaining := s.PowerUps[:0]
		for _, pu := range s.PowerUps {
			hit := math.Abs(b.X+BallSize/2-pu.X) < PowerUpPickupDist &&
				math.Abs(b.Y+BallSize/2-pu.Y) < PowerUpPickupDist
			if hit {
				// Consumed exactly once: applied here, never re-listed.
				applyPowerUp(s, b, pu.Type, spawned)
				s.Effects = append(s.Effects, Effect{Type: "powerup", Power: pu.Type})
				continue
			}
			remaining = append(remaining, pu)
		}
		s.PowerUps = remaining
	}

	if b.CrazyTicks > 0 {
		b.CrazyTicks--
		b.VX += rng.Float64()*2 - 1
		b.VY += rng.Float64()*2 - 1
	}
	if b.InvisTicks > 0 {
		b.InvisTicks--
	}

	if !primary {
		return
	}
	if b.X+BallSize < 0 {
		s.Scores[1]++
		*b = Ball{X: CourtWidth / 2, Y: CourtHeight / 2, VX: ServeSpeedX, VY: ServeSpeedY}
	} else if b.X > CourtWidth {
		s.Scores[0]++
		*b = Ball{X: CourtWidth / 2, Y: CourtHeight / 2, VX: -ServeSpeedX, VY: ServeSpeedY}
	}
}

func applyPowerUp(s *State, b *Ball, kind string, spawned *[]Ball) {
	switch kind {
	case "speed":
		b.VX *= SpeedMult
	case "grow":
		resizePaddle(s, targetPaddle(b), PaddleMax)
	case "shrink":
		resizePaddle(s, targetPaddle(b), PaddleMin)
	case "multi":
		*spawned = append(*spawned, Ball{X: b.X, Y: b.Y, VX: -b.VX, VY: b.VY * MultiVYMult})
	case "slow":
		b.VX *= SlowMultX
		b.VY *= SlowMultY
	case "invis":
		b.InvisTicks = InvisDurationTicks
	case "crazy":
		b.CrazyTicks = CrazyDurationTicks
	case "reverse":
		s.Reverse[0] = !s.Reverse[0]
		s.Reverse[1] = !s.Reverse[1]
		s.ReverseTicks = ReverseDurationTicks
	}
}

// resizePaddle changes a paddle's height and re-clamps its position, since a
// grown paddle near the bottom edge could otherwise stick out of the court.
func resizePaddle(s *State, idx int, size float64) {
	s.PaddleSize[idx] = size
	s.Paddles[idx] = s.ClampPaddle(idx, s.Paddles[idx])
}

// targetPaddle picks the side affected by grow/shrink from the instantaneous
// vx sign. Spin can flip the sign mid-flight so this may hit either paddle;
// the rule is kept as-is.
func targetPaddle(b *Ball) int {
	if b.VX > 0 {
		return 1
	}
	return 0
}
