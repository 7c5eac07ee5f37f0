package game

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"
)

// BoardConfig is the explicit simulation context the engine is built from.
// The engine never reads ambient state: every change arrives through
// SetConfig and takes effect at a tick boundary.
type BoardConfig struct {
	Rows       int     `json:"rows"`
	Risk       Risk    `json:"risk"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PegRadius  float64 `json:"peg_radius"`
	BallRadius float64 `json:"ball_radius"`
}

func (c BoardConfig) normalized() BoardConfig {
	c.Rows = ClampRows(c.Rows)
	if !ValidRisk(c.Risk) {
		c.Risk = RiskMedium
	}
	if c.Width <= 0 {
		c.Width = DefaultCanvasWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultCanvasHeight
	}
	return c
}

// DropStrategy selects how a targeted drop reaches its bin. The two
// historical engines (kinematic offset table vs. continuous steering) live
// behind this one switch.
type DropStrategy string

const (
	// StrategySteer plans a per-row decision path and steers the ball
	// tick by tick. The outcome is exact.
	StrategySteer DropStrategy = "steer"
	// StrategyOffset launches from a calibrated offset with no steering.
	// The outcome is statistical but the motion is untouched physics.
	StrategyOffset DropStrategy = "offset"
)

// DropRequest is an external drop trigger. Requests are queued and applied
// at the next tick boundary, never mid-step.
type DropRequest struct {
	PlayerID  int
	DropID    int // persisted drops.id, 0 when the drop is not recorded
	Bet       float64
	TargetBin *int // nil for a natural drop
	Strategy  DropStrategy
}

// Resolution is fired once per ball that lands in a bin.
type Resolution struct {
	BallID     int     `json:"ball_id"`
	DropID     int     `json:"drop_id,omitempty"`
	PlayerID   int     `json:"player_id"`
	Bin        int     `json:"bin"`
	Multiplier float64 `json:"multiplier"`
	Bet        float64 `json:"bet"`
	Payout     float64 `json:"payout"`
	StartX     float64 `json:"start_x"`
	Steered    bool    `json:"steered"`
	Rows       int     `json:"rows"`
	Risk       Risk    `json:"risk"`
}

// VoidedBall is fired for every in-flight ball removed by a config rebuild
// or an off-board landing. Voids refund the bet; they are not losses.
type VoidedBall struct {
	BallID   int     `json:"ball_id"`
	DropID   int     `json:"drop_id,omitempty"`
	PlayerID int     `json:"player_id"`
	Bet      float64 `json:"bet"`
	Reason   string  `json:"reason"`
}

// FrameSnapshot is the read-only view handed to the rendering side each
// frame. Glow and Press are the transient sink animations, decayed by the
// engine and re-armed on ball arrival.
type FrameSnapshot struct {
	Config BoardConfig `json:"config"`
	Balls  []Ball      `json:"balls"`
	Glow   []float64   `json:"glow"`
	Press  []float64   `json:"press"`
}

// Stats aggregates settled money since engine start.
type Stats struct {
	Drops       int     `json:"drops"`
	TotalBet    float64 `json:"total_bet"`
	TotalPayout float64 `json:"total_payout"`
}

var ErrNegativeBet = errors.New("bet must not be negative")

// Engine owns the live ball set and the board geometry. All mutation
// happens inside Step; public methods only enqueue work or copy state out.
type Engine struct {
	mu     sync.Mutex
	cfg    BoardConfig
	layout *Layout

	balls  []*Ball
	nextID int
	rng    *rand.Rand

	offsets *OffsetTable

	pendingDrops []DropRequest
	pendingCfg   *BoardConfig

	glow  []float64
	press []float64

	stats Stats

	resolveFn func(Resolution)
	voidFn    func(VoidedBall)
	frameFn   func(FrameSnapshot)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewEngine builds an engine for the given board. The seed fixes the
// simulation's random stream (launch jitter, peg kicks, offset sampling) so
// runs are reproducible in tests.
func NewEngine(cfg BoardConfig, seed int64) *Engine {
	cfg = cfg.normalized()
	e := &Engine{
		cfg:     cfg,
		layout:  BuildLayout(cfg.Rows, cfg.PegRadius, cfg.BallRadius, cfg.Width, cfg.Height),
		rng:     rand.New(rand.NewSource(seed)),
		offsets: Offsets,
		stopCh:  make(chan struct{}),
	}
	e.glow = make([]float64, cfg.Rows+1)
	e.press = make([]float64, cfg.Rows+1)
	return e
}

// OnResolve registers the landing callback. Called from inside Step.
func (e *Engine) OnResolve(fn func(Resolution)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolveFn = fn
}

// OnVoid registers the forced-removal callback.
func (e *Engine) OnVoid(fn func(VoidedBall)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voidFn = fn
}

// OnFrame registers the per-tick snapshot callback for the render side.
func (e *Engine) OnFrame(fn func(FrameSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameFn = fn
}

// Drop enqueues a drop request; the ball body is created at the next tick
// boundary. An out-of-range target is clamped at spawn time, never refused.
func (e *Engine) Drop(req DropRequest) error {
	if req.Bet < 0 {
		return ErrNegativeBet
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingDrops = append(e.pendingDrops, req)
	return nil
}

// SetConfig schedules a board rebuild. It takes effect at the next tick
// boundary: the layout (and every row-y reference) is replaced wholesale
// and all in-flight balls are voided, because their steering thresholds
// would dangle against the old geometry.
func (e *Engine) SetConfig(cfg BoardConfig) {
	cfg = cfg.normalized()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingCfg = &cfg
}

// Config returns the active board configuration.
func (e *Engine) Config() BoardConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingCfg != nil {
		return *e.pendingCfg
	}
	return e.cfg
}

// Geometry returns the active layout. The layout is immutable once built;
// callers must not hold it across a config change.
func (e *Engine) Geometry() *Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout
}

// Stats returns the aggregate bet/payout counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// LiveBalls reports the number of in-flight balls.
func (e *Engine) LiveBalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.balls)
}

// Run drives the simulation until the context is cancelled or Stop is
// called. Frame-time variance is absorbed by scaling the step against the
// reference interval, clamped so a long pause cannot destabilize the
// integration.
func (e *Engine) Run(ctx context.Context) {
	interval := ReferenceTickSeconds * float64(time.Second)
	ticker := time.NewTicker(time.Duration(interval))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.release()
			return
		case <-e.stopCh:
			e.release()
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now

			scale := elapsed / ReferenceTickSeconds
			if scale < MinTickScale {
				scale = MinTickScale
			}
			if scale > MaxTickScale {
				scale = MaxTickScale
			}
			e.Step(ReferenceTickSeconds * scale)
		}
	}
}

// Stop halts the loop and releases all simulation bodies.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.balls {
		e.voidLocked(b, "engine stopped")
	}
	e.balls = nil
	log.Printf("[ENGINE] stopped, bodies released")
}

// Step advances the simulation by dt seconds. Queued config changes and
// drops are applied first, then every live ball is integrated, steered and
// collision-resolved; balls that cross the sensor are resolved and removed.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.applyPendingLocked()

	live := e.balls[:0]
	for _, b := range e.balls {
		if !stepBall(b, e.layout, dt, e.rng) {
			live = append(live, b)
			continue
		}
		e.resolveLocked(b)
	}
	e.balls = live

	decay := dt / ReferenceTickSeconds
	for i := range e.glow {
		e.glow[i] = clampUnit(e.glow[i] - GlowDecay*decay)
		e.press[i] = clampUnit(e.press[i] - PressDecay*decay)
	}

	if e.frameFn != nil {
		e.frameFn(e.snapshotLocked())
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (e *Engine) applyPendingLocked() {
	if e.pendingCfg != nil {
		cfg := *e.pendingCfg
		e.pendingCfg = nil

		if n := len(e.balls); n > 0 {
			log.Printf("[ENGINE] config change with %d balls in flight, voiding all", n)
			for _, b := range e.balls {
				e.voidLocked(b, "board rebuilt")
			}
			e.balls = nil
		}

		e.cfg = cfg
		e.layout = BuildLayout(cfg.Rows, cfg.PegRadius, cfg.BallRadius, cfg.Width, cfg.Height)
		e.glow = make([]float64, cfg.Rows+1)
		e.press = make([]float64, cfg.Rows+1)
	}

	for _, req := range e.pendingDrops {
		e.spawnLocked(req)
	}
	e.pendingDrops = nil
}

// spawnLocked is the unified resolveDrop entry point: one request in,
// starting conditions (launch x plus optional steering path) out.
func (e *Engine) spawnLocked(req DropRequest) {
	l := e.layout
	startX := l.CenterX
	var path *SteeringPath
	target := -1

	switch {
	case req.TargetBin == nil:
		// Natural drop: random launch offset, outcome decided by the pegs.
		startX = fix(l.CenterX + (e.rng.Float64()-0.5)*l.Spacing)

	case req.Strategy == StrategyOffset:
		target = clampBin(*req.TargetBin, l.Rows)
		px, err := e.offsets.PixelOffset(l.Rows, target, e.rng, l)
		if err != nil {
			// No calibration for this pair: uniform random across the
			// target bin's span. Defaulting to the bin center instead
			// would make calibrated and uncalibrated drops visibly
			// distinguishable.
			bin := l.Bins[target]
			px = bin.Left + e.rng.Float64()*(bin.Right-bin.Left) - l.CenterX
			log.Printf("[ENGINE] no calibrated offset for rows=%d bin=%d, using uniform fallback", l.Rows, target)
		}
		startX = fix(l.CenterX + px)

	default:
		target = clampBin(*req.TargetBin, l.Rows)
		path = ComputePath(target, l.Rows)
		startX = fix(l.CenterX + (e.rng.Float64()-0.5)*LaunchJitterRatio*l.Spacing)
	}

	e.nextID++
	ball := &Ball{
		ID:        e.nextID,
		Position:  NewVec2(startX, l.SpawnY),
		Radius:    l.BallRadius,
		Path:      path,
		StartX:    startX,
		TargetBin: target,
		DropID:    req.DropID,
		PlayerID:  req.PlayerID,
		Bet:       req.Bet,
	}
	e.balls = append(e.balls, ball)
	e.stats.Drops++
	e.stats.TotalBet += req.Bet
}

func clampBin(bin, rows int) int {
	if bin < 0 {
		return 0
	}
	if bin > rows {
		return rows
	}
	return bin
}

func (e *Engine) resolveLocked(b *Ball) {
	bin, ok := e.layout.BinIndexForX(b.Position.X)
	if !ok {
		// Landed outside the peg span. Excluded, not clamped: attributing
		// it to an edge bin would pay out on a landing that never entered
		// a sink.
		log.Printf("[ENGINE] ball %d landed off-board at x=%.1f, voiding", b.ID, b.Position.X)
		e.voidLocked(b, "landed outside bins")
		return
	}

	mult, err := Multiplier(e.cfg.Rows, e.cfg.Risk, bin)
	if err != nil {
		log.Printf("[ENGINE] multiplier lookup failed for ball %d: %v", b.ID, err)
		e.voidLocked(b, "multiplier unavailable")
		return
	}

	e.glow[bin] = 1
	e.press[bin] = 1

	payout := b.Bet * mult
	e.stats.TotalPayout += payout

	if e.resolveFn != nil {
		e.resolveFn(Resolution{
			BallID:     b.ID,
			DropID:     b.DropID,
			PlayerID:   b.PlayerID,
			Bin:        bin,
			Multiplier: mult,
			Bet:        b.Bet,
			Payout:     payout,
			StartX:     b.StartX,
			Steered:    b.Steered(),
			Rows:       e.cfg.Rows,
			Risk:       e.cfg.Risk,
		})
	}
}

func (e *Engine) voidLocked(b *Ball, reason string) {
	if e.voidFn != nil {
		e.voidFn(VoidedBall{BallID: b.ID, DropID: b.DropID, PlayerID: b.PlayerID, Bet: b.Bet, Reason: reason})
	}
}

// Snapshot returns a read-only copy of the render state.
func (e *Engine) Snapshot() FrameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() FrameSnapshot {
	balls := make([]Ball, len(e.balls))
	for i, b := range e.balls {
		balls[i] = *b
	}
	glow := make([]float64, len(e.glow))
	copy(glow, e.glow)
	press := make([]float64, len(e.press))
	copy(press, e.press)
	return FrameSnapshot{Config: e.cfg, Balls: balls, Glow: glow, Press: press}
}
