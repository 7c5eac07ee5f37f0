package game

// Peg is a fixed circular obstacle in the triangular field.
type Peg struct {
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Wall is one of the two slanted guides bounding the peg cone. The normal
// points into the board; collision response mirrors the cushion handling.
type Wall struct {
	Name      string `json:"name"`
	Top       Vec2   `json:"top"`
	Bottom    Vec2   `json:"bottom"`
	Direction Vec2   `json:"direction"` // normalized, top to bottom
	Normal    Vec2   `json:"normal"`    // inward
}

// Bin is a landing interval between two adjacent bottom-row pegs.
type Bin struct {
	Index  int     `json:"index"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Center float64 `json:"center"`
}

// Layout holds the complete board geometry for one row count. It is pure
// data: rebuilding it is the only way to change rows or radii.
type Layout struct {
	Rows       int
	Width      float64
	Height     float64
	PegRadius  float64
	BallRadius float64

	// Spacing is the horizontal distance between adjacent bottom-row pegs.
	// Every row shares it; it is the reference unit for steering and for
	// calibrated offsets.
	Spacing float64
	RowGap  float64
	CenterX float64

	Pegs  []Peg
	Walls [2]Wall
	Bins  []Bin

	RowYs       []float64 // y of peg row r
	SteerYs     []float64 // decision threshold above peg row r
	BottomPegXs []float64 // rows+2 values, strictly increasing
	SpawnY      float64
	SensorY     float64
}

// BuildLayout computes pegs, walls and bins for a row count. Out-of-range
// row counts are clamped, never rejected, so at least MinRows+1 bins always
// exist. Non-positive radii fall back to the spacing-proportional defaults.
func BuildLayout(rows int, pegRadius, ballRadius, width, height float64) *Layout {
	rows = ClampRows(rows)
	if width < 4*SidePadding {
		width = DefaultCanvasWidth
	}
	if height <= TopPadding+BottomPadding {
		height = DefaultCanvasHeight
	}

	spacing := fix((width - 2*SidePadding) / float64(rows+1))
	if pegRadius <= 0 {
		pegRadius = fix(spacing * PegRadiusRatio)
	}
	if ballRadius <= 0 {
		ballRadius = fix(spacing * BallRadiusRatio)
	}

	usable := height - TopPadding - BottomPadding
	rowGap := fix(usable / float64(rows-1))
	centerX := fix(width / 2)

	l := &Layout{
		Rows:       rows,
		Width:      width,
		Height:     height,
		PegRadius:  pegRadius,
		BallRadius: ballRadius,
		Spacing:    spacing,
		RowGap:     rowGap,
		CenterX:    centerX,
		RowYs:      make([]float64, rows),
		SteerYs:    make([]float64, rows),
	}

	for r := 0; r < rows; r++ {
		y := fix(TopPadding + float64(r)*rowGap)
		l.RowYs[r] = y
		l.SteerYs[r] = fix(y - SteerLeadFraction*rowGap)

		count := 3 + r
		for j := 0; j < count; j++ {
			x := fix(centerX + (float64(j)-float64(count-1)/2)*spacing)
			l.Pegs = append(l.Pegs, Peg{Row: r, Col: j, Position: Vec2{X: x, Y: y}, Radius: pegRadius})
		}
	}

	bottomCount := rows + 2
	l.BottomPegXs = make([]float64, bottomCount)
	for j := 0; j < bottomCount; j++ {
		l.BottomPegXs[j] = fix(centerX + (float64(j)-float64(bottomCount-1)/2)*spacing)
	}

	l.Bins = make([]Bin, rows+1)
	for i := 0; i <= rows; i++ {
		left := l.BottomPegXs[i]
		right := l.BottomPegXs[i+1]
		l.Bins[i] = Bin{Index: i, Left: left, Right: right, Center: fix((left + right) / 2)}
	}

	l.SpawnY = fix(l.RowYs[0] - SpawnLeadRowGaps*rowGap)
	l.SensorY = fix(l.RowYs[rows-1] + SensorLagRowGaps*rowGap)
	l.Walls = buildWalls(l)

	return l
}

// buildWalls derives the guard walls from the slope between the outermost
// peg of the top row and the outermost peg of the bottom row, pushed out by
// a peg radius so the wall surface clears the edge pegs.
func buildWalls(l *Layout) [2]Wall {
	topY := l.RowYs[0]
	botY := l.RowYs[l.Rows-1]

	leftTop := NewVec2(l.CenterX-l.Spacing-l.PegRadius*2, topY-l.RowGap)
	leftBot := NewVec2(l.BottomPegXs[0]-l.PegRadius*2, botY+l.RowGap)
	leftDir := leftBot.Minus(leftTop).Normalize()

	rightTop := NewVec2(l.CenterX+l.Spacing+l.PegRadius*2, topY-l.RowGap)
	rightBot := NewVec2(l.BottomPegXs[len(l.BottomPegXs)-1]+l.PegRadius*2, botY+l.RowGap)
	rightDir := rightBot.Minus(rightTop).Normalize()

	return [2]Wall{
		{Name: "left", Top: leftTop, Bottom: leftBot, Direction: leftDir, Normal: leftDir.LeftNormal().Times(-1)},
		{Name: "right", Top: rightTop, Bottom: rightBot, Direction: rightDir, Normal: rightDir.LeftNormal()},
	}
}

// BinBoundaries returns the left edge of every bin, strictly increasing.
func (l *Layout) BinBoundaries() []float64 {
	out := make([]float64, len(l.Bins))
	for i, b := range l.Bins {
		out[i] = b.Left
	}
	return out
}

// BinCenters returns the center x of every bin, left to right.
func (l *Layout) BinCenters() []float64 {
	out := make([]float64, len(l.Bins))
	for i, b := range l.Bins {
		out[i] = b.Center
	}
	return out
}

// SinkWidth returns the horizontal span of one bin.
func (l *Layout) SinkWidth() float64 {
	return l.Spacing
}

// BinIndexForX maps a final x position to a bin index. A ball left of the
// first bottom peg or right of the last one is not attributed to any bin:
// those landings are void, never clamped into an edge bin.
func (l *Layout) BinIndexForX(x float64) (int, bool) {
	count := 0
	for _, px := range l.BottomPegXs {
		if px < x {
			count++
		}
	}
	idx := count - 1
	if idx < 0 || idx > l.Rows {
		return 0, false
	}
	return idx, true
}

// IdealX returns the x a ball should occupy after consuming `consumed`
// decisions of which `rights` went right. Each decision shifts the ball
// half a spacing off the peg it is about to pass.
func (l *Layout) IdealX(rights, consumed int) float64 {
	return fix(l.CenterX + (2*float64(rights)-float64(consumed))*l.Spacing/2)
}
