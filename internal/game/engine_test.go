package game

import (
	"context"
	"testing"
	"time"
)

func testConfig(rows int, risk Risk) BoardConfig {
	return BoardConfig{Rows: rows, Risk: risk, Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
}

// stepUntilSettled drives the engine until no balls remain or the tick
// budget runs out.
func stepUntilSettled(t *testing.T, e *Engine, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		e.Step(ReferenceTickSeconds)
		if e.LiveBalls() == 0 {
			return
		}
	}
	t.Fatalf("balls still in flight after %d ticks", maxTicks)
}

func intPtr(v int) *int { return &v }

func TestDropQueuedUntilTickBoundary(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 1)
	if err := e.Drop(DropRequest{Bet: 10}); err != nil {
		t.Fatal(err)
	}
	if n := e.LiveBalls(); n != 0 {
		t.Errorf("%d balls live before any Step", n)
	}
	e.Step(ReferenceTickSeconds)
	if n := e.LiveBalls(); n != 1 {
		t.Errorf("%d balls live after first Step, want 1", n)
	}
}

func TestNegativeBetRejected(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 1)
	if err := e.Drop(DropRequest{Bet: -1}); err != ErrNegativeBet {
		t.Errorf("err=%v, want ErrNegativeBet", err)
	}
}

func TestSteeredDropsLandInTargetBin(t *testing.T) {
	for _, rows := range []int{8, 12, 16, 20} {
		for _, target := range []int{0, 1, rows / 2, rows - 1, rows} {
			for seed := int64(1); seed <= 3; seed++ {
				e := NewEngine(testConfig(rows, RiskMedium), seed)

				var got []Resolution
				e.OnResolve(func(r Resolution) { got = append(got, r) })
				e.OnVoid(func(v VoidedBall) {
					t.Errorf("rows=%d target=%d seed=%d: ball voided (%s)", rows, target, seed, v.Reason)
				})

				if err := e.Drop(DropRequest{PlayerID: 1, Bet: 10, TargetBin: intPtr(target), Strategy: StrategySteer}); err != nil {
					t.Fatal(err)
				}
				stepUntilSettled(t, e, MaxIterations)

				if len(got) != 1 {
					t.Fatalf("rows=%d target=%d seed=%d: %d resolutions", rows, target, seed, len(got))
				}
				r := got[0]
				if r.Bin != target {
					t.Errorf("rows=%d target=%d seed=%d: landed in bin %d", rows, target, seed, r.Bin)
				}
				if !r.Steered {
					t.Error("steered drop reported as unsteered")
				}
				if r.Multiplier <= 0 || r.Payout != r.Bet*r.Multiplier {
					t.Errorf("bad payout: mult=%.2f bet=%.2f payout=%.2f", r.Multiplier, r.Bet, r.Payout)
				}
			}
		}
	}
}

func TestNaturalDropAlwaysTerminates(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		e := NewEngine(testConfig(16, RiskMedium), seed)

		resolved, voided := 0, 0
		var lastBin int
		e.OnResolve(func(r Resolution) { resolved++; lastBin = r.Bin })
		e.OnVoid(func(VoidedBall) { voided++ })

		if err := e.Drop(DropRequest{Bet: 1}); err != nil {
			t.Fatal(err)
		}
		stepUntilSettled(t, e, MaxIterations)

		if resolved+voided != 1 {
			t.Fatalf("seed=%d: resolved=%d voided=%d", seed, resolved, voided)
		}
		if resolved == 1 && (lastBin < 0 || lastBin > 16) {
			t.Errorf("seed=%d: bin %d out of range", seed, lastBin)
		}
		if !ValidRisk(e.Snapshot().Config.Risk) {
			t.Error("snapshot lost risk")
		}
	}
}

func TestOffsetStrategyTerminates(t *testing.T) {
	// Offset drops are statistical: the launch point is calibrated but the
	// descent is untouched physics, so only termination is guaranteed.
	for seed := int64(1); seed <= 5; seed++ {
		e := NewEngine(testConfig(16, RiskMedium), seed)
		done := 0
		e.OnResolve(func(Resolution) { done++ })
		e.OnVoid(func(VoidedBall) { done++ })
		if err := e.Drop(DropRequest{Bet: 5, TargetBin: intPtr(4), Strategy: StrategyOffset}); err != nil {
			t.Fatal(err)
		}
		stepUntilSettled(t, e, MaxIterations)
		if done != 1 {
			t.Fatalf("seed=%d: %d terminal events", seed, done)
		}
	}
}

func TestOffsetStrategyUncalibratedFallsBack(t *testing.T) {
	// rows=20 has no calibration data: the engine must fall back to a
	// uniform launch inside the target bin, not refuse the drop.
	e := NewEngine(testConfig(20, RiskMedium), 3)
	done := 0
	e.OnResolve(func(Resolution) { done++ })
	e.OnVoid(func(VoidedBall) { done++ })
	if err := e.Drop(DropRequest{Bet: 5, TargetBin: intPtr(10), Strategy: StrategyOffset}); err != nil {
		t.Fatal(err)
	}
	stepUntilSettled(t, e, MaxIterations)
	if done != 1 {
		t.Fatalf("%d terminal events", done)
	}
}

func TestConfigChangeVoidsInFlightBalls(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 1)

	var voids []VoidedBall
	e.OnVoid(func(v VoidedBall) { voids = append(voids, v) })
	e.OnResolve(func(r Resolution) {
		t.Errorf("ball resolved across a board rebuild: %+v", r)
	})

	if err := e.Drop(DropRequest{PlayerID: 7, Bet: 25, TargetBin: intPtr(8)}); err != nil {
		t.Fatal(err)
	}
	// Let the ball get into the peg field
	for i := 0; i < 30; i++ {
		e.Step(ReferenceTickSeconds)
	}
	if e.LiveBalls() != 1 {
		t.Fatalf("expected 1 ball in flight, got %d", e.LiveBalls())
	}

	e.SetConfig(testConfig(12, RiskHigh))
	e.Step(ReferenceTickSeconds)

	if len(voids) != 1 {
		t.Fatalf("%d voids, want 1", len(voids))
	}
	if voids[0].Bet != 25 || voids[0].PlayerID != 7 {
		t.Errorf("void lost ball identity: %+v", voids[0])
	}
	if e.LiveBalls() != 0 {
		t.Errorf("%d balls survived the rebuild", e.LiveBalls())
	}

	cfg := e.Config()
	if cfg.Rows != 12 || cfg.Risk != RiskHigh {
		t.Errorf("config not applied: %+v", cfg)
	}
	if snap := e.Snapshot(); len(snap.Glow) != 13 || len(snap.Press) != 13 {
		t.Errorf("sink animation arrays not resized: glow=%d press=%d", len(snap.Glow), len(snap.Press))
	}
}

func TestConfigChangeAppliedAtTickBoundaryOnly(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 1)
	e.SetConfig(testConfig(8, RiskLow))

	// Config() reflects the queued value immediately for API reads...
	if cfg := e.Config(); cfg.Rows != 8 {
		t.Errorf("queued config not visible: rows=%d", cfg.Rows)
	}
	// ...but the geometry only swaps at the next Step.
	if l := e.Geometry(); l.Rows != 16 {
		t.Errorf("layout rebuilt before tick boundary: rows=%d", l.Rows)
	}
	e.Step(ReferenceTickSeconds)
	if l := e.Geometry(); l.Rows != 8 {
		t.Errorf("layout not rebuilt after tick: rows=%d", l.Rows)
	}
}

func TestSameSeedSameOutcome(t *testing.T) {
	run := func() Resolution {
		e := NewEngine(testConfig(16, RiskMedium), 42)
		var res Resolution
		e.OnResolve(func(r Resolution) { res = r })
		e.OnVoid(func(v VoidedBall) { res = Resolution{Bin: -1} })
		if err := e.Drop(DropRequest{Bet: 1}); err != nil {
			t.Fatal(err)
		}
		stepUntilSettled(t, e, MaxIterations)
		return res
	}

	a, b := run(), run()
	if a.Bin != b.Bin || a.StartX != b.StartX {
		t.Errorf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestResolutionLightsUpSink(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 2)
	var bin int
	resolved := false
	e.OnResolve(func(r Resolution) { bin = r.Bin; resolved = true })
	e.OnVoid(func(VoidedBall) { t.Skip("drop voided, nothing to assert") })

	if err := e.Drop(DropRequest{Bet: 1, TargetBin: intPtr(8)}); err != nil {
		t.Fatal(err)
	}
	stepUntilSettled(t, e, MaxIterations)
	if !resolved {
		t.Fatal("drop never resolved")
	}

	// Glow is armed to 1 on arrival and decays per tick afterwards.
	snap := e.Snapshot()
	if snap.Glow[bin] < 0.9 {
		t.Errorf("glow[%d]=%.2f right after landing", bin, snap.Glow[bin])
	}
	for i := 0; i < 30; i++ {
		e.Step(ReferenceTickSeconds)
	}
	after := e.Snapshot()
	if after.Glow[bin] >= snap.Glow[bin] {
		t.Errorf("glow did not decay: %.2f -> %.2f", snap.Glow[bin], after.Glow[bin])
	}
}

func TestStatsAccumulate(t *testing.T) {
	e := NewEngine(testConfig(16, RiskMedium), 5)
	e.OnVoid(func(VoidedBall) {})

	for i := 0; i < 3; i++ {
		if err := e.Drop(DropRequest{Bet: 10, TargetBin: intPtr(8)}); err != nil {
			t.Fatal(err)
		}
		stepUntilSettled(t, e, MaxIterations)
	}

	s := e.Stats()
	if s.Drops != 3 {
		t.Errorf("drops=%d, want 3", s.Drops)
	}
	if s.TotalBet != 30 {
		t.Errorf("total bet=%.2f, want 30", s.TotalBet)
	}
	if s.TotalPayout <= 0 {
		t.Errorf("total payout=%.2f, want positive", s.TotalPayout)
	}
}

func TestOutOfRangeTargetClamped(t *testing.T) {
	e := NewEngine(testConfig(8, RiskMedium), 9)
	var res Resolution
	e.OnResolve(func(r Resolution) { res = r })
	e.OnVoid(func(VoidedBall) { t.Fatal("clamped drop voided") })

	if err := e.Drop(DropRequest{Bet: 1, TargetBin: intPtr(99)}); err != nil {
		t.Fatal(err)
	}
	stepUntilSettled(t, e, MaxIterations)
	if res.Bin != 8 {
		t.Errorf("target 99 on 8 rows landed in bin %d, want 8", res.Bin)
	}
}

func TestRunLoopResolvesDrops(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time loop test")
	}
	e := NewEngine(testConfig(8, RiskMedium), 11)

	done := make(chan Resolution, 1)
	e.OnResolve(func(r Resolution) { done <- r })
	e.OnVoid(func(VoidedBall) {})

	if err := e.Drop(DropRequest{Bet: 1, TargetBin: intPtr(4)}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	defer e.Stop()

	select {
	case r := <-done:
		if r.Bin != 4 {
			t.Errorf("loop-driven drop landed in bin %d, want 4", r.Bin)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("drop never resolved while the loop was running")
	}
}

func TestOutcomesCarryDropID(t *testing.T) {
	// Landed ball: the resolution must reference the drop it was queued as.
	e := NewEngine(testConfig(8, RiskMedium), 4)
	var res Resolution
	e.OnResolve(func(r Resolution) { res = r })
	e.OnVoid(func(VoidedBall) { t.Fatal("steered drop voided") })

	if err := e.Drop(DropRequest{PlayerID: 3, DropID: 77, Bet: 2, TargetBin: intPtr(2)}); err != nil {
		t.Fatal(err)
	}
	stepUntilSettled(t, e, MaxIterations)
	if res.DropID != 77 {
		t.Errorf("resolution carries drop id %d, want 77", res.DropID)
	}

	// Voided ball: the refund path needs the same reference, otherwise a
	// player with two pending drops gets the wrong row voided.
	e2 := NewEngine(testConfig(8, RiskMedium), 4)
	var void VoidedBall
	e2.OnVoid(func(v VoidedBall) { void = v })

	if err := e2.Drop(DropRequest{PlayerID: 3, DropID: 88, Bet: 2, TargetBin: intPtr(5)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		e2.Step(ReferenceTickSeconds)
	}
	e2.SetConfig(testConfig(12, RiskMedium))
	e2.Step(ReferenceTickSeconds)
	if void.DropID != 88 {
		t.Errorf("void carries drop id %d, want 88", void.DropID)
	}
}
