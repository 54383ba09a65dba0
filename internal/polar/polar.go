// Package polar models glider performance: the sink-rate polar and the
// MacCready speed-to-fly solution derived from it.
package polar

import (
	"fmt"
	"math"
)

const (
	// MinAirspeed is the floor applied to any computed speed-to-fly, m/s IAS.
	MinAirspeed = 10.0

	// SafeAirspeed is returned when the polar admits no real best-speed
	// solution, m/s IAS.
	SafeAirspeed = 35.0

	// StallGuardAirspeed bounds the degenerate-coefficient fallback, m/s IAS.
	StallGuardAirspeed = 25.0
)

// Polar is a quadratic sink-rate curve sink = a + b*V + c*V^2 over
// indicated airspeed V, with a multiplicative degradation factor for
// accumulated performance loss (bugs, rain). Immutable after construction.
type Polar struct {
	a, b, c     float64
	degradation float64
}

// New builds a polar from quadratic coefficients and a degradation factor.
// The degradation factor must be positive; 1.0 means a clean wing.
func New(a, b, c, degradation float64) (*Polar, error) {
	if degradation <= 0 {
		return nil, fmt.Errorf("polar degradation factor must be > 0, got %f", degradation)
	}
	return &Polar{a: a, b: b, c: c, degradation: degradation}, nil
}

// SinkRate returns the still-air sink rate in m/s (positive down) at the
// given indicated airspeed in m/s.
func (p *Polar) SinkRate(iasMS float64) float64 {
	return p.degradation * (p.a + p.b*iasMS + p.c*iasMS*iasMS)
}

// SpeedToFly returns the MacCready optimal cruise indicated airspeed in
// m/s for the given climb-rate setting. It is the positive root of
// c*V^2 + b*V + (a + mc) = 0; when the polar is degenerate (non-positive
// quadratic coefficient or discriminant) a safe fixed airspeed is
// returned instead of an error.
func (p *Polar) SpeedToFly(mcMS float64) float64 {
	a, b, c := p.c, p.b, p.a+mcMS
	disc := b*b - 4*a*c

	if a <= 0 {
		return SafeAirspeed
	}
	if disc <= 0 {
		return math.Max(StallGuardAirspeed, b/(2*a))
	}

	return math.Max(MinAirspeed, (-b+math.Sqrt(disc))/(2*a))
}
