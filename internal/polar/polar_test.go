package polar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveDegradation(t *testing.T) {
	_, err := New(0.3, 0.005, 0.0012, 0)
	assert.Error(t, err)

	_, err = New(0.3, 0.005, 0.0012, -1.1)
	assert.Error(t, err)
}

func TestSinkRate(t *testing.T) {
	p, err := New(0.3, 0.005, 0.0012, 1.0)
	require.NoError(t, err)

	// a + b*30 + c*900 = 0.3 + 0.15 + 1.08
	assert.InDelta(t, 1.53, p.SinkRate(30.0), 1e-9)

	degraded, err := New(0.3, 0.005, 0.0012, 1.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.1*p.SinkRate(30.0), degraded.SinkRate(30.0), 1e-9)
}

func TestSpeedToFlyFallbacks(t *testing.T) {
	// All-positive coefficients leave no real root; the guard speed wins
	// over the tiny vertex speed b/(2c).
	p, err := New(0.3, 0.005, 0.0012, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, StallGuardAirspeed, p.SpeedToFly(0.0), 1e-9)

	// Non-positive quadratic coefficient: fixed safe airspeed.
	flat, err := New(0.3, 0.005, 0.0, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, SafeAirspeed, flat.SpeedToFly(1.0), 1e-9)

	concave, err := New(0.3, 0.005, -0.001, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, SafeAirspeed, concave.SpeedToFly(1.0), 1e-9)
}

func TestSpeedToFlyRealRoot(t *testing.T) {
	// A polar with negative linear term has a genuine positive root:
	// 0.001*V^2 - 0.06*V + (0.8 + mc) = 0.
	p, err := New(0.8, -0.06, 0.001, 1.0)
	require.NoError(t, err)

	v0 := p.SpeedToFly(0.0)
	assert.Greater(t, v0, MinAirspeed)

	// Root check: the returned speed satisfies the quadratic.
	assert.InDelta(t, 0.0, 0.001*v0*v0-0.06*v0+0.8, 1e-6)

	v2 := p.SpeedToFly(0.05)
	assert.InDelta(t, 0.0, 0.001*v2*v2-0.06*v2+0.85, 1e-6)

	// Never negative or near-zero, whatever the setting.
	assert.GreaterOrEqual(t, p.SpeedToFly(1000.0), MinAirspeed)
}
