package thermals

import (
	"fmt"
	"math"
)

// Heuristic score weights; tuned by eye against flown days, not fitted.
const (
	wCAPE  = 0.45
	wRad   = 0.35
	wPrior = 0.20

	capeScale = 1000.0 // J/kg treated as "strong"
	radScale  = 600.0  // W/m^2 typical daytime peak
	windKill  = 12.0   // m/s at which thermalling is hopeless
)

// Features holds the weather inputs for one cell's score.
type Features struct {
	CAPEJkg      float64
	GlobalRadW   float64
	WindSpeed10m float64
}

// ScoreCells fills Score and ClimbMS on each cell from its weather
// features and the historical prior. feats and prior must be per-cell
// parallel slices; prior may be nil for a uniform (absent) prior.
func ScoreCells(cells []Cell, feats []Features, prior []float64) error {
	if len(feats) != len(cells) {
		return fmt.Errorf("feature count %d does not match cell count %d", len(feats), len(cells))
	}
	if prior != nil && len(prior) != len(cells) {
		return fmt.Errorf("prior count %d does not match cell count %d", len(prior), len(cells))
	}

	for i := range cells {
		f := feats[i]

		capeZ := clamp01(f.CAPEJkg / capeScale)
		radZ := clamp01(f.GlobalRadW / radScale)
		priorZ := 0.0
		if prior != nil {
			priorZ = clamp01(prior[i])
		}

		score := wCAPE*capeZ + wRad*radZ + wPrior*priorZ
		score *= clamp01(1.0 - f.WindSpeed10m/windKill)

		// Climb proxy: sun-driven base rate 0.3..1.5 m/s scaled by
		// the composite score.
		base := 0.3 + 1.2*radZ
		cells[i].Score = score
		cells[i].ClimbMS = score * base
	}

	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
