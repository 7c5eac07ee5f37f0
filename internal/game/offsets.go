package game

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

// Calibrated launch offsets: for a given row count and target bin, the
// recorded starting x offsets (in bottom-row spacing units, 0 = board
// center) that statistically land an unsteered ball in that bin. Produced
// by the external calibration tool and consumed here as an opaque asset.

//go:embed offsets.json
var offsetsJSON []byte

// ErrNoCalibration is returned when no offsets were recorded for a
// (rows, bin) pair. Callers fall back to a uniform random offset across the
// target bin instead of failing the drop.
var ErrNoCalibration = errors.New("no calibrated offsets for this rows/bin pair")

type offsetEntry struct {
	// Spacing is the bottom-row spacing of the board the data was recorded
	// on. Offsets are stored in spacing units, so applying them to another
	// geometry only needs a rebase against the current spacing.
	Spacing float64
	Bins    map[int][]float64
}

// OffsetTable holds calibrated offsets keyed by row count.
type OffsetTable struct {
	byRows map[int]offsetEntry
}

// Offsets is the package-level table loaded from the embedded asset.
var Offsets = mustLoadOffsets(offsetsJSON)

func mustLoadOffsets(data []byte) *OffsetTable {
	t, err := LoadOffsets(data)
	if err != nil {
		panic(fmt.Sprintf("failed to parse calibrated offsets: %v", err))
	}
	return t
}

// LoadOffsets parses a serialized offset table. Bin keys must be integers
// and every offset list must be non-empty.
func LoadOffsets(data []byte) (*OffsetTable, error) {
	raw := map[string]struct {
		Spacing float64              `json:"spacing"`
		Bins    map[string][]float64 `json:"bins"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	table := &OffsetTable{byRows: make(map[int]offsetEntry, len(raw))}
	for rowsKey, entry := range raw {
		rows, err := strconv.Atoi(rowsKey)
		if err != nil {
			return nil, fmt.Errorf("invalid rows key %q: %w", rowsKey, err)
		}
		if entry.Spacing <= 0 {
			return nil, fmt.Errorf("rows %d: non-positive calibration spacing", rows)
		}
		bins := make(map[int][]float64, len(entry.Bins))
		for binKey, offsets := range entry.Bins {
			bin, err := strconv.Atoi(binKey)
			if err != nil {
				return nil, fmt.Errorf("rows %d: invalid bin key %q: %w", rows, binKey, err)
			}
			if bin < 0 || bin > rows {
				return nil, fmt.Errorf("rows %d: bin %d out of range", rows, bin)
			}
			if len(offsets) == 0 {
				return nil, fmt.Errorf("rows %d bin %d: empty offset list", rows, bin)
			}
			copied := make([]float64, len(offsets))
			copy(copied, offsets)
			bins[bin] = copied
		}
		table.byRows[rows] = offsetEntry{Spacing: entry.Spacing, Bins: bins}
	}
	return table, nil
}

// Sample picks one recorded offset uniformly at random, in spacing units of
// the calibration geometry.
func (t *OffsetTable) Sample(rows, bin int, rng *rand.Rand) (float64, error) {
	entry, ok := t.byRows[rows]
	if !ok {
		return 0, ErrNoCalibration
	}
	offsets, ok := entry.Bins[bin]
	if !ok {
		return 0, ErrNoCalibration
	}
	return offsets[rng.Intn(len(offsets))], nil
}

// CalibratedSpacing returns the spacing the row count was recorded at.
func (t *OffsetTable) CalibratedSpacing(rows int) (float64, bool) {
	entry, ok := t.byRows[rows]
	return entry.Spacing, ok
}

// Rebase converts an absolute pixel offset recorded on a board with
// fromSpacing to the equivalent offset on a board with toSpacing. Round
// trips are idempotent: Rebase(Rebase(x, a, b), b, a) == x.
func Rebase(offset, fromSpacing, toSpacing float64) float64 {
	if fromSpacing == 0 {
		return offset
	}
	return offset * (toSpacing / fromSpacing)
}

// PixelOffset resolves a sampled offset to an absolute x offset from the
// center of the given layout. The recorded value is first expanded to
// pixels in its calibration geometry, then rebased to the current board:
// skipping the rebase would bake in the calibration-time spacing and shift
// every steered-free drop after a row or radius change.
func (t *OffsetTable) PixelOffset(rows, bin int, rng *rand.Rand, l *Layout) (float64, error) {
	units, err := t.Sample(rows, bin, rng)
	if err != nil {
		return 0, err
	}
	entry := t.byRows[rows]
	calibrated := units * entry.Spacing
	return Rebase(calibrated, entry.Spacing, l.Spacing), nil
}
