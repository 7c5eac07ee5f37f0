package game

import "testing"

func TestPathRightCountMatchesTarget(t *testing.T) {
	for rows := 1; rows <= MaxRows; rows++ {
		for target := 0; target <= rows; target++ {
			p := ComputePath(target, rows)
			if len(p.Decisions) != rows {
				t.Fatalf("rows=%d target=%d: got %d decisions", rows, target, len(p.Decisions))
			}
			if got := p.RightCount(); got != target {
				t.Errorf("rows=%d target=%d: %d rights (%s)", rows, target, got, p.String())
			}
		}
	}
}

func TestPathSpreadsRightsEvenly(t *testing.T) {
	// After row i the cumulative right count must be exactly floor(i*k/n):
	// rights never bunch at the start or the end of the descent.
	for rows := 1; rows <= MaxRows; rows++ {
		for target := 0; target <= rows; target++ {
			p := ComputePath(target, rows)
			rights := 0
			for i := 1; i <= rows; i++ {
				if p.Decisions[i-1] == Right {
					rights++
				}
				if want := i * target / rows; rights != want {
					t.Fatalf("rows=%d target=%d: after row %d got %d rights, want %d (%s)",
						rows, target, i, rights, want, p.String())
				}
			}
		}
	}
}

func TestCenterPathAlternates(t *testing.T) {
	// Center target on an even board: rights and lefts interleave, never
	// bunch. A run longer than 2 would read as visibly steered motion.
	p := ComputePath(8, 16)
	if p.RightCount() != 8 {
		t.Fatalf("center path has %d rights, want 8", p.RightCount())
	}
	run := 1
	for i := 1; i < len(p.Decisions); i++ {
		if p.Decisions[i] == p.Decisions[i-1] {
			run++
			if run > 2 {
				t.Fatalf("run of %d identical decisions at row %d (%s)", run, i, p.String())
			}
		} else {
			run = 1
		}
	}
}

func TestPathClampsTarget(t *testing.T) {
	if got := ComputePath(-3, 10).RightCount(); got != 0 {
		t.Errorf("negative target: %d rights, want 0", got)
	}
	if got := ComputePath(99, 10).RightCount(); got != 10 {
		t.Errorf("oversized target: %d rights, want 10", got)
	}
}

func TestPathCursorConsumesInOrder(t *testing.T) {
	p := ComputePath(3, 8)
	seen := make([]Decision, 0, 8)
	for {
		d, ok := p.Next()
		if !ok {
			break
		}
		seen = append(seen, d)
	}
	if len(seen) != 8 {
		t.Fatalf("consumed %d decisions, want 8", len(seen))
	}
	if p.Remaining() != 0 {
		t.Errorf("Remaining=%d after exhaustion", p.Remaining())
	}
	for i, d := range seen {
		if d != p.Decisions[i] {
			t.Errorf("decision %d consumed out of order", i)
		}
	}
	// Exhausted path keeps returning ok=false
	if _, ok := p.Next(); ok {
		t.Error("Next returned ok on exhausted path")
	}
}

func TestPathNilSafe(t *testing.T) {
	var p *SteeringPath
	if _, ok := p.Next(); ok {
		t.Error("nil path returned a decision")
	}
	if p.Remaining() != 0 {
		t.Error("nil path has remaining decisions")
	}
}
