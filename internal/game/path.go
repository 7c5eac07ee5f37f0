package game

// Decision is a single left/right choice at one peg row.
type Decision byte

const (
	Left  Decision = 'L'
	Right Decision = 'R'
)

// SteeringPath is an ordered per-row decision sequence that funnels a ball
// into one exact bin. Decisions are consumed monotonically in row order and
// never replayed; Cursor is the next undecided row.
type SteeringPath struct {
	Decisions []Decision
	Cursor    int
}

// ComputePath plans the decisions that land a ball in targetBin on a board
// of the given depth. The target is clamped into [0, rows] so planning can
// never fail.
//
// Right-moves are spread with an even-distribution rule: after row i the
// cumulative right count is exactly floor(i*k/n). That yields k rights in
// total and avoids bunching ("all lefts then all rights"), which would read
// as visibly steered motion.
func ComputePath(targetBin, rows int) *SteeringPath {
	n := rows
	if n < 0 {
		n = 0
	}
	k := targetBin
	if k < 0 {
		k = 0
	}
	if k > n {
		k = n
	}

	decisions := make([]Decision, n)
	prev := 0
	for i := 1; i <= n; i++ {
		curr := i * k / n
		if curr > prev {
			decisions[i-1] = Right
		} else {
			decisions[i-1] = Left
		}
		prev = curr
	}

	return &SteeringPath{Decisions: decisions}
}

// Next consumes and returns the next decision. ok is false once the path is
// exhausted; an exhausted ball falls under pure physics.
func (p *SteeringPath) Next() (Decision, bool) {
	if p == nil || p.Cursor >= len(p.Decisions) {
		return 0, false
	}
	d := p.Decisions[p.Cursor]
	p.Cursor++
	return d, true
}

// Remaining reports how many rows are still undecided.
func (p *SteeringPath) Remaining() int {
	if p == nil {
		return 0
	}
	return len(p.Decisions) - p.Cursor
}

// RightCount returns the number of right decisions in the whole path, which
// equals the target bin index by construction.
func (p *SteeringPath) RightCount() int {
	c := 0
	for _, d := range p.Decisions {
		if d == Right {
			c++
		}
	}
	return c
}

// String renders the path as an "LRLR..." sequence.
func (p *SteeringPath) String() string {
	b := make([]byte, len(p.Decisions))
	for i, d := range p.Decisions {
		b[i] = byte(d)
	}
	return string(b)
}
