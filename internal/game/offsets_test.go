package game

import (
	"math"
	"math/rand"
	"testing"
)

func TestEmbeddedOffsetsParse(t *testing.T) {
	for _, rows := range []int{8, 12, 16} {
		spacing, ok := Offsets.CalibratedSpacing(rows)
		if !ok {
			t.Fatalf("no calibration entry for rows=%d", rows)
		}
		if spacing <= 0 {
			t.Errorf("rows=%d: non-positive calibration spacing %.4f", rows, spacing)
		}
	}
}

func TestSampleReturnsRecordedOffset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		off, err := Offsets.Sample(16, 8, rng)
		if err != nil {
			t.Fatal(err)
		}
		// Center-bin offsets sit near the board center
		if math.Abs(off) > 1 {
			t.Errorf("center-bin offset %.3f more than one spacing out", off)
		}
	}
}

func TestSampleUnknownPair(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := Offsets.Sample(20, 0, rng); err != ErrNoCalibration {
		t.Errorf("uncalibrated rows: err=%v, want ErrNoCalibration", err)
	}
	if _, err := Offsets.Sample(16, 99, rng); err != ErrNoCalibration {
		t.Errorf("uncalibrated bin: err=%v, want ErrNoCalibration", err)
	}
}

func TestRebaseRoundTrip(t *testing.T) {
	cases := []struct{ offset, from, to float64 }{
		{120, 42.1, 38.0},
		{-75.5, 38.0, 60.25},
		{0, 40, 55},
		{33.33, 55, 55},
	}
	for _, c := range cases {
		once := Rebase(c.offset, c.from, c.to)
		back := Rebase(once, c.to, c.from)
		if math.Abs(back-c.offset) > 1e-9 {
			t.Errorf("Rebase(%.4f, %.2f, %.2f) round trip gave %.6f", c.offset, c.from, c.to, back)
		}
	}
	// Zero source spacing must not divide by zero
	if got := Rebase(50, 0, 40); got != 50 {
		t.Errorf("zero fromSpacing: got %.2f, want passthrough", got)
	}
}

func TestPixelOffsetLandsInsideTargetBin(t *testing.T) {
	// Every recorded offset, rebased to the live layout, must start the ball
	// within the horizontal span of its target bin.
	rng := rand.New(rand.NewSource(99))
	for _, rows := range []int{8, 12, 16} {
		l := BuildLayout(rows, 0, 0, DefaultCanvasWidth, DefaultCanvasHeight)
		for bin := 0; bin <= rows; bin++ {
			for i := 0; i < 20; i++ {
				px, err := Offsets.PixelOffset(rows, bin, rng, l)
				if err != nil {
					t.Fatalf("rows=%d bin=%d: %v", rows, bin, err)
				}
				x := l.CenterX + px
				b := l.Bins[bin]
				if x < b.Left || x > b.Right {
					t.Errorf("rows=%d bin=%d: launch x %.2f outside bin [%.2f, %.2f]",
						rows, bin, x, b.Left, b.Right)
				}
			}
		}
	}
}

func TestLoadOffsetsRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad rows key", `{"abc": {"spacing": 40, "bins": {"0": [0.1]}}}`},
		{"bad bin key", `{"8": {"spacing": 40, "bins": {"x": [0.1]}}}`},
		{"bin out of range", `{"8": {"spacing": 40, "bins": {"9": [0.1]}}}`},
		{"empty offsets", `{"8": {"spacing": 40, "bins": {"0": []}}}`},
		{"zero spacing", `{"8": {"spacing": 0, "bins": {"0": [0.1]}}}`},
		{"not json", `{{`},
	}
	for _, c := range cases {
		if _, err := LoadOffsets([]byte(c.data)); err == nil {
			t.Errorf("%s: accepted", c.name)
		}
	}
}
