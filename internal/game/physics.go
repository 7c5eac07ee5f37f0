package game

import (
	"math"
	"math/rand"
)

// Ball is one in-flight drop. A ball with a SteeringPath is nudged toward
// its per-row decisions; a ball without one (or with an exhausted path)
// falls under pure physics and lands wherever the pegs send it.
type Ball struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`

	Path   *SteeringPath `json:"-"`
	rights int           // right decisions consumed so far

	steering     bool
	steerTargetX float64

	StartX    float64 `json:"start_x"`
	TargetBin int     `json:"-"` // -1 when untargeted
	DropID    int     `json:"-"`
	PlayerID  int     `json:"-"`
	Bet       float64 `json:"-"`
}

// Steered reports whether the ball was dropped with a target bin.
func (b *Ball) Steered() bool {
	return b.Path != nil
}

// stepBall advances one ball by dt seconds against the layout. It returns
// true once the ball has crossed the bottom sensor; the caller resolves the
// bin and removes the ball.
func stepBall(b *Ball, l *Layout, dt float64, rng *rand.Rand) bool {
	applySteering(b, l, dt)

	// Gravity, drag, terminal fall speed.
	b.Velocity.Y = fix(b.Velocity.Y + Gravity*dt)
	drag := 1 - AirDrag*(dt/ReferenceTickSeconds)
	if drag < 0 {
		drag = 0
	}
	b.Velocity = b.Velocity.Times(drag)

	terminal := TerminalRowGapsPerSec * l.RowGap
	if b.Velocity.Y > terminal {
		b.Velocity.Y = fix(terminal)
	}

	b.Position = b.Position.Plus(b.Velocity.Times(dt))

	collidePegs(b, l, rng)
	collideWalls(b, l)

	return b.Position.Y >= l.SensorY
}

// applySteering consumes every decision threshold the ball has passed this
// tick (a fast ball can cross more than one row boundary in a single step),
// then applies the active pull. Each consumed decision re-aims the ball at
// the gap center dictated by the cumulative left/right counts and biases
// the horizontal velocity toward it, capped; the pull itself is a per-tick
// force on top of normal collision response, never a position override.
func applySteering(b *Ball, l *Layout, dt float64) {
	vmax := SteerVelocityCap * l.Spacing

	for b.Path != nil && b.Path.Cursor < len(l.SteerYs) && b.Position.Y >= l.SteerYs[b.Path.Cursor] {
		d, ok := b.Path.Next()
		if !ok {
			break
		}
		if d == Right {
			b.rights++
		}
		b.steerTargetX = l.IdealX(b.rights, b.Path.Cursor)
		b.steering = true

		// Velocity bias toward the new target, up to the cap.
		if b.steerTargetX > b.Position.X {
			b.Velocity.X = fix(math.Min(b.Velocity.X+SteerBoostRatio*vmax, vmax))
		} else if b.steerTargetX < b.Position.X {
			b.Velocity.X = fix(math.Max(b.Velocity.X-SteerBoostRatio*vmax, -vmax))
		}
	}

	if !b.steering {
		return
	}

	// Critically damped pull toward the target gap center. The last target
	// stays active after the path is exhausted so the ball settles into the
	// middle of its bin instead of clipping a boundary peg.
	err := b.steerTargetX - b.Position.X
	ax := SteerStiffness*err - SteerDamping*b.Velocity.X
	b.Velocity.X = fix(b.Velocity.X + ax*dt)
	if b.Velocity.X > vmax {
		b.Velocity.X = fix(vmax)
	}
	if b.Velocity.X < -vmax {
		b.Velocity.X = fix(-vmax)
	}
}

// collidePegs resolves circle-vs-circle contacts with the peg field. Pegs
// are static: the ball is pushed out along the contact normal and its
// normal velocity is reflected with restitution. Unsteered balls also get a
// small random tangential kick so a dead-center hit cannot balance forever.
func collidePegs(b *Ball, l *Layout, rng *rand.Rand) {
	reach := l.RowGap
	minDist := b.Radius + l.PegRadius

	for i := range l.Pegs {
		peg := &l.Pegs[i]
		if math.Abs(peg.Position.Y-b.Position.Y) > reach {
			continue
		}
		if math.Abs(peg.Position.X-b.Position.X) > minDist {
			continue
		}

		delta := b.Position.Minus(peg.Position)
		distSq := delta.MagnitudeSquared()
		if distSq >= minDist*minDist || distSq == 0 {
			continue
		}

		n := delta.Normalize()
		b.Position = peg.Position.Plus(n.Times(minDist))

		vn := b.Velocity.Dot(n)
		if vn < 0 {
			b.Velocity = b.Velocity.Minus(n.Times((1 + PegRestitution) * vn))
		}

		if !b.steering && rng != nil {
			t := n.LeftNormal()
			kick := (rng.Float64() - 0.5) * 0.35 * b.Velocity.Magnitude()
			b.Velocity = b.Velocity.Plus(t.Times(kick))
		}
	}
}

// collideWalls keeps the ball inside the guard cone. Walls are treated as
// infinite lines over the vertical span of the peg triangle.
func collideWalls(b *Ball, l *Layout) {
	for i := range l.Walls {
		w := &l.Walls[i]
		if b.Position.Y < w.Top.Y || b.Position.Y > w.Bottom.Y {
			continue
		}

		// Signed distance along the inward normal; negative means the ball
		// center is outside the wall line.
		toBall := b.Position.Minus(w.Top)
		dist := toBall.Dot(w.Normal)
		if dist >= b.Radius {
			continue
		}

		b.Position = b.Position.Plus(w.Normal.Times(b.Radius - dist))
		vn := b.Velocity.Dot(w.Normal)
		if vn < 0 {
			b.Velocity = b.Velocity.Minus(w.Normal.Times((1 + WallRestitution) * vn))
		}
	}
}
