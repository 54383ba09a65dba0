// Package wx provides the environment sampling capability consumed by the
// leg simulator: wind, vertical air motion and air density at a point and
// altitude. Implementations range from fixed test fixtures to gridded
// snapshots built from live weather data.
package wx

import (
	"math"

	"github.com/yegors/glideplan/internal/geo"
)

// Sample is the environment at one point and altitude.
type Sample struct {
	WindSpeedMS float64 // wind speed, m/s
	WindFromDeg float64 // meteorological direction the wind blows from, degrees
	VerticalMS  float64 // vertical air motion, m/s, positive up
	Density     float64 // air density, kg/m^3
}

// Sampler answers environment queries. Implementations must be safe for
// synchronous use from a tight integration loop: no blocking I/O inside
// Sample.
type Sampler interface {
	Sample(lat, lon, altitudeM float64) Sample
}

// Constant is a Sampler returning the same wind and vertical motion
// everywhere, with ISA density for the queried altitude. Used as a test
// fixture and as a stand-in when no weather source is configured.
type Constant struct {
	WindSpeedMS float64
	WindFromDeg float64
	VerticalMS  float64
}

func (c Constant) Sample(lat, lon, altitudeM float64) Sample {
	return Sample{
		WindSpeedMS: c.WindSpeedMS,
		WindFromDeg: c.WindFromDeg,
		VerticalMS:  c.VerticalMS,
		Density:     geo.ISADensity(altitudeM),
	}
}

// CellWeather is the surface weather attached to one grid cell centroid.
type CellWeather struct {
	Lat         float64
	Lon         float64
	WindSpeedMS float64
	WindFromDeg float64
	VerticalMS  float64
}

// GridSampler resolves queries against a snapshot of cell weather by
// nearest centroid. Density always follows the standard atmosphere; the
// snapshot carries surface values only.
type GridSampler struct {
	cells []CellWeather
}

// NewGridSampler builds a sampler over a weather snapshot. The cell slice
// is retained, not copied; callers must not mutate it afterwards.
func NewGridSampler(cells []CellWeather) *GridSampler {
	return &GridSampler{cells: cells}
}

func (g *GridSampler) Sample(lat, lon, altitudeM float64) Sample {
	s := Sample{Density: geo.ISADensity(altitudeM)}
	if len(g.cells) == 0 {
		return s
	}

	best := 0
	bestDist := math.Inf(1)
	for i, c := range g.cells {
		// Squared equirectangular distance is enough for nearest-cell
		// selection at grid scale.
		dlat := c.Lat - lat
		dlon := (c.Lon - lon) * math.Cos(lat*math.Pi/180.0)
		d := dlat*dlat + dlon*dlon
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	c := g.cells[best]
	s.WindSpeedMS = c.WindSpeedMS
	s.WindFromDeg = c.WindFromDeg
	s.VerticalMS = c.VerticalMS
	return s
}

// WindUV converts wind speed and meteorological direction-from to u/v
// components (u east, v north), m/s.
func WindUV(speedMS, dirFromDeg float64) (u, v float64) {
	rad := dirFromDeg * math.Pi / 180.0
	return -speedMS * math.Sin(rad), -speedMS * math.Cos(rad)
}
