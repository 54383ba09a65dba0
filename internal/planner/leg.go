package planner

import (
	"math"

	"github.com/yegors/glideplan/internal/geo"
)

const (
	// minDensityRatio floors the density used for the IAS->TAS
	// conversion at 0.3 of sea level, keeping the scaling finite.
	minDensityRatio = 0.3

	// minGroundSpeedMS floors the along-track ground speed so a strong
	// headwind cannot blow up the time integral.
	minGroundSpeedMS = 0.1
)

// windAlongTrack projects a wind given by speed and direction-from onto
// the track bearing. Positive means tailwind.
func windAlongTrack(speedMS, dirFromDeg, trackDeg float64) float64 {
	blowToDeg := math.Mod(dirFromDeg+180.0, 360.0)
	delta := (math.Mod(blowToDeg-trackDeg+540.0, 360.0) - 180.0) * math.Pi / 180.0
	return speedMS * math.Cos(delta)
}

// simulateLeg integrates a straight great-circle leg in fixed-length
// steps. It returns the arrival altitude expected when departing at
// startAltM, the cruise time, and the start altitude that would have been
// required to arrive exactly at floorM. The integration is re-run in full
// for every start altitude: true airspeed and ground speed depend on
// density along the actual altitude profile, so results do not translate.
func (p *Planner) simulateLeg(startLat, startLon, startAltM, endLat, endLon, floorM float64) LegResult {
	totalD := geo.Haversine(startLat, startLon, endLat, endLon)
	track := geo.InitialBearing(startLat, startLon, endLat, endLon)
	nSteps := int(math.Ceil(totalD / p.stepM))
	if nSteps < 1 {
		nSteps = 1
	}
	ds := totalD / float64(nSteps)

	ias := p.polar.SpeedToFly(p.macCreadyMS)
	sink := p.polar.SinkRate(ias)

	alt := startAltM
	lat, lon := startLat, startLon
	elapsed := 0.0

	for i := 0; i < nSteps; i++ {
		env := p.sampler.Sample(lat, lon, alt)
		rho := env.Density
		if rho <= 0 {
			rho = geo.ISADensity(alt)
		}

		tas := ias * math.Sqrt(geo.SeaLevelDensity/math.Max(minDensityRatio, rho))
		groundSpeed := math.Max(minGroundSpeedMS, tas+windAlongTrack(env.WindSpeedMS, env.WindFromDeg, track))

		dt := ds / groundSpeed
		alt += (env.VerticalMS - sink) * dt
		elapsed += dt
		lat, lon = geo.Destination(lat, lon, track, ds)
	}

	return LegResult{
		DistanceM:         totalD,
		CruiseTimeS:       elapsed,
		ArrivalAltM:       alt,
		RequiredStartAltM: startAltM + (floorM - alt),
	}
}

// SimulateLeg exposes single-leg simulation for callers wanting a
// feasibility check outside a full search.
func (p *Planner) SimulateLeg(startLat, startLon, startAltM, endLat, endLon, floorM float64) LegResult {
	return p.simulateLeg(startLat, startLon, startAltM, endLat, endLon, floorM)
}
