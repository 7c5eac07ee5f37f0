package game

import (
	"math"
	"testing"
)

func TestMultiplierTableShape(t *testing.T) {
	for rows := MinRows; rows <= MaxRows; rows++ {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			table, err := MultiplierTable(rows, risk)
			if err != nil {
				t.Fatalf("rows=%d risk=%s: %v", rows, risk, err)
			}
			if len(table) != rows+1 {
				t.Errorf("rows=%d risk=%s: %d entries, want %d", rows, risk, len(table), rows+1)
			}
			for bin, m := range table {
				if m <= 0 {
					t.Errorf("rows=%d risk=%s bin=%d: non-positive multiplier %.2f", rows, risk, bin, m)
				}
			}
		}
	}
}

func TestMultiplierTableSymmetry(t *testing.T) {
	for rows := MinRows; rows <= MaxRows; rows++ {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			table, err := MultiplierTable(rows, risk)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i <= rows/2; i++ {
				if table[i] != table[rows-i] {
					t.Errorf("rows=%d risk=%s: table[%d]=%.2f != table[%d]=%.2f",
						rows, risk, i, table[i], rows-i, table[rows-i])
				}
			}
		}
	}
}

func TestMultipliersGrowTowardEdges(t *testing.T) {
	for rows := MinRows; rows <= MaxRows; rows++ {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			table, _ := MultiplierTable(rows, risk)
			mid := rows / 2
			for i := mid; i > 0; i-- {
				if table[i-1] < table[i] {
					t.Errorf("rows=%d risk=%s: table[%d]=%.2f < table[%d]=%.2f (should grow toward the edge)",
						rows, risk, i-1, table[i-1], i, table[i])
				}
			}
			// Center is the minimum, edge the maximum
			if table[0] <= table[mid] {
				t.Errorf("rows=%d risk=%s: edge %.2f not above center %.2f", rows, risk, table[0], table[mid])
			}
		}
	}
}

func TestHighRiskSteeperThanLow(t *testing.T) {
	for _, rows := range []int{8, 16, 20} {
		low, _ := MultiplierTable(rows, RiskLow)
		high, _ := MultiplierTable(rows, RiskHigh)
		if high[0] <= low[0] {
			t.Errorf("rows=%d: high edge %.2f not above low edge %.2f", rows, high[0], low[0])
		}
		if high[rows/2] >= low[rows/2] {
			t.Errorf("rows=%d: high center %.2f not below low center %.2f", rows, high[rows/2], low[rows/2])
		}
	}
}

func TestExpectedReturnNearTarget(t *testing.T) {
	// The binomial-weighted expected multiplier should sit close to the
	// configured return-to-player; rounding to 2dp perturbs it slightly.
	for _, rows := range []int{8, 16} {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			table, _ := MultiplierTable(rows, risk)
			ev := 0.0
			total := math.Pow(2, float64(rows))
			for i := 0; i <= rows; i++ {
				ev += binomial(rows, i) / total * table[i]
			}
			if math.Abs(ev-targetRTP) > 0.02 {
				t.Errorf("rows=%d risk=%s: expected return %.4f too far from %.2f", rows, risk, ev, targetRTP)
			}
		}
	}
}

func TestMultiplierErrors(t *testing.T) {
	if _, err := MultiplierTable(16, Risk("extreme")); err == nil {
		t.Error("unknown risk accepted")
	}
	if _, err := Multiplier(16, RiskMedium, -1); err == nil {
		t.Error("negative bin accepted")
	}
	if _, err := Multiplier(16, RiskMedium, 17); err == nil {
		t.Error("out-of-range bin accepted")
	}
	if m, err := Multiplier(16, RiskMedium, 8); err != nil || m <= 0 {
		t.Errorf("center lookup failed: m=%.2f err=%v", m, err)
	}
}
