// Package geo provides the great-circle and standard-atmosphere math used
// by the leg simulator and the environment samplers.
package geo

import "math"

const (
	// EarthRadiusM is the mean Earth radius in meters.
	EarthRadiusM = 6371000.0

	// SeaLevelDensity is the ISA sea-level air density in kg/m^3.
	SeaLevelDensity = 1.225

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Haversine returns the great-circle distance in meters between two
// lat/lon points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dlat := (lat2 - lat1) * degToRad
	dlon := (lon2 - lon1) * degToRad

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// InitialBearing returns the initial great-circle bearing in degrees from
// point 1 to point 2, normalized to [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dlon := (lon2 - lon1) * degToRad

	y := math.Sin(dlon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dlon)
	bearing := math.Atan2(y, x) * radToDeg

	return math.Mod(bearing+360.0, 360.0)
}

// Destination returns the point reached by travelling distanceM meters
// from lat/lon on the given initial bearing (degrees), following the
// great circle. Longitude is normalized to [-180, 180).
func Destination(lat, lon, bearingDeg, distanceM float64) (float64, float64) {
	delta := distanceM / EarthRadiusM
	theta := bearingDeg * degToRad
	lat1 := lat * degToRad
	lon1 := lon * degToRad

	sinLat1, cosLat1 := math.Sin(lat1), math.Cos(lat1)
	sinDelta, cosDelta := math.Sin(delta), math.Cos(delta)

	sinLat2 := sinLat1*cosDelta + cosLat1*sinDelta*math.Cos(theta)
	lat2 := math.Asin(sinLat2)
	y := math.Sin(theta) * sinDelta * cosLat1
	x := cosDelta - sinLat1*sinLat2
	lon2 := lon1 + math.Atan2(y, x)

	return lat2 * radToDeg, math.Mod(lon2*radToDeg+540.0, 360.0) - 180.0
}

// CrossTrackDistance returns the perpendicular distance in meters from a
// point to the great circle through start and end. The sign is positive
// right of track, negative left.
func CrossTrackDistance(lat, lon, startLat, startLon, endLat, endLon float64) float64 {
	d13 := Haversine(startLat, startLon, lat, lon) / EarthRadiusM
	theta13 := InitialBearing(startLat, startLon, lat, lon) * degToRad
	theta12 := InitialBearing(startLat, startLon, endLat, endLon) * degToRad

	return math.Asin(math.Sin(d13)*math.Sin(theta13-theta12)) * EarthRadiusM
}

// ISADensity returns the standard-atmosphere air density in kg/m^3 at the
// given altitude (meters MSL), using the barometric formula with a linear
// temperature lapse. Temperature is clamped at 180 K so the formula stays
// finite at extreme altitudes.
func ISADensity(altitudeM float64) float64 {
	const (
		t0 = 288.15  // sea-level temperature, K
		l  = 0.0065  // lapse rate, K/m
		g0 = 9.80665 // gravitational acceleration, m/s^2
		r  = 287.05  // specific gas constant for dry air, J/(kg K)
		p0 = 101325.0
	)

	t := math.Max(180.0, t0-l*altitudeM)
	p := p0 * math.Pow(t/t0, g0/(l*r))

	return p / (r * t)
}
