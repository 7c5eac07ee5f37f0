package game

// Board limits and physics constants. Distances are in canvas pixels,
// velocities in pixels per second. Steering magnitudes are expressed as
// multiples of the bottom-row peg spacing so one tuning holds for every
// supported row count.

const (
	MinRows = 8
	MaxRows = 20

	DefaultRows         = 16
	DefaultCanvasWidth  = 800.0
	DefaultCanvasHeight = 800.0

	TopPadding    = 80.0  // above the first peg row
	BottomPadding = 140.0 // reserved for the sinks
	SidePadding   = 40.0

	// Default radii as fractions of the bottom-row spacing. The steering
	// tolerances below assume ball + peg stay under half the gap width.
	PegRadiusRatio  = 0.125
	BallRadiusRatio = 0.24

	Gravity        = 1400.0 // px/s^2
	PegRestitution = 0.55
	WallRestitution = 0.4
	AirDrag        = 0.018 // velocity fraction shed per reference tick

	// Terminal fall speed in row-gaps per second. Capping the descent gives
	// the steering window a lower bound regardless of board height.
	TerminalRowGapsPerSec = 3.2

	// Steering tuning. The per-tick force is a critically damped pull
	// toward the decision's gap center: stiffness/damping are per-second
	// rates, so the convergence time is the same for every row count while
	// the traveled distance scales with the spacing. The velocity cap (in
	// spacings/s) stays below stiffness*spacing/2 so the pull can never
	// overshoot into the neighboring gap.
	SteerVelocityCap  = 2.6   // max |vx| while a decision is active, spacings/s
	SteerStiffness    = 250.0 // pull toward the target gap, 1/s^2
	SteerDamping      = 31.0  // velocity damping of the pull, 1/s
	SteerBoostRatio   = 0.9   // threshold-crossing velocity bias, fraction of the cap
	SteerLeadFraction = 0.85  // decision threshold sits this far above its peg row

	SpawnLeadRowGaps   = 1.5 // drop height above the first peg row
	SensorLagRowGaps   = 1.2 // sensor line below the last peg row
	LaunchJitterRatio  = 0.04 // random start offset for plain drops, spacings

	// Sink animation decay per reference tick.
	GlowDecay  = 0.04
	PressDecay = 0.08

	// Reference frame interval and the clamp applied to elapsed-time
	// scaling so a background pause cannot blow up the integration.
	ReferenceTickSeconds = 1.0 / 60.0
	MinTickScale         = 0.25
	MaxTickScale         = 3.0

	MaxIterations = 20000 // step safety cap when simulating to rest
)

// Risk selects a multiplier table variance tier.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ValidRisk reports whether r names a supported tier.
func ValidRisk(r Risk) bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// ClampRows forces a requested row count into the supported range. Layouts
// are never built for out-of-range counts, so bins always exist.
func ClampRows(rows int) int {
	if rows < MinRows {
		return MinRows
	}
	if rows > MaxRows {
		return MaxRows
	}
	return rows
}
