package game

import (
	"fmt"
	"math"
)

// Payout tables per (row count, risk tier). Values are calibration data,
// not physics: they are derived once at init from the inverse binomial mass
// with a risk-dependent shaping exponent, then normalized to the target
// return-to-player and rounded. Deriving them keeps every table symmetric
// and center-minimal for all supported row counts.

const targetRTP = 0.99

var riskShaping = map[Risk]float64{
	RiskLow:    0.42,
	RiskMedium: 0.72,
	RiskHigh:   1.0,
}

var multiplierTables = buildMultiplierTables()

func buildMultiplierTables() map[Risk]map[int][]float64 {
	tables := make(map[Risk]map[int][]float64, len(riskShaping))
	for risk, alpha := range riskShaping {
		tables[risk] = make(map[int][]float64, MaxRows-MinRows+1)
		for rows := MinRows; rows <= MaxRows; rows++ {
			table := buildTable(rows, alpha)
			if len(table) != rows+1 {
				panic(fmt.Sprintf("multiplier table mismatch for risk %s rows %d: %d entries", risk, rows, len(table)))
			}
			tables[risk][rows] = table
		}
	}
	return tables
}

func buildTable(rows int, alpha float64) []float64 {
	n := rows
	probs := make([]float64, n+1)
	raw := make([]float64, n+1)

	total := math.Pow(2, float64(n))
	for i := 0; i <= n/2; i++ {
		p := binomial(n, i) / total
		probs[i] = p
		probs[n-i] = p
		r := math.Pow(1/p, alpha)
		raw[i] = r
		raw[n-i] = r
	}

	// Normalize so an unsteered (binomial) drop returns targetRTP on average.
	expected := 0.0
	for i := 0; i <= n; i++ {
		expected += probs[i] * raw[i]
	}
	scale := targetRTP / expected

	table := make([]float64, n+1)
	for i := 0; i <= n/2; i++ {
		v := roundMultiplier(raw[i] * scale)
		table[i] = v
		table[n-i] = v
	}
	return table
}

// roundMultiplier rounds to 2 decimal places. Uniform rounding keeps the
// center-to-edge monotonicity of the raw values.
func roundMultiplier(v float64) float64 {
	return math.Round(v*100) / 100
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 0; i < k; i++ {
		c = c * float64(n-i) / float64(i+1)
	}
	return c
}

// MultiplierTable returns a copy of the payout array for a row count and
// risk tier. Row counts are clamped like everywhere else; an unknown risk
// is an error.
func MultiplierTable(rows int, risk Risk) ([]float64, error) {
	riskTables, ok := multiplierTables[risk]
	if !ok {
		return nil, fmt.Errorf("unknown risk tier: %s", risk)
	}
	table, ok := riskTables[ClampRows(rows)]
	if !ok {
		return nil, fmt.Errorf("no multiplier table for rows %d", rows)
	}
	out := make([]float64, len(table))
	copy(out, table)
	return out, nil
}

// Multiplier looks up the payout factor for one bin.
func Multiplier(rows int, risk Risk, bin int) (float64, error) {
	table, err := MultiplierTable(rows, risk)
	if err != nil {
		return 0, err
	}
	if bin < 0 || bin >= len(table) {
		return 0, fmt.Errorf("bin %d out of range for rows %d", bin, ClampRows(rows))
	}
	return table[bin], nil
}
