// Package thermals turns weather snapshots and historical observations
// into scored grid cells and, from those, the candidate-waypoint graph the
// route planner searches.
package thermals

import (
	"fmt"
	"math"

	"github.com/yegors/glideplan/internal/geo"
)

// BBox is a geographic bounding box in degrees.
type BBox struct {
	MinLat float64 `toml:"min_lat"`
	MinLon float64 `toml:"min_lon"`
	MaxLat float64 `toml:"max_lat"`
	MaxLon float64 `toml:"max_lon"`
}

// Validate checks box ordering.
func (b BBox) Validate() error {
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return fmt.Errorf("degenerate bbox: [%f,%f] x [%f,%f]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	}
	return nil
}

// Cell is one grid cell centroid with its live score.
type Cell struct {
	ID      int     `json:"cell_id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Score   float64 `json:"thermal_score"`
	ClimbMS float64 `json:"climb_ms"`
}

// BuildGrid lays out square cells of roughly resM meters over the box and
// returns their centroids. Cell size is converted to degrees at the box's
// center latitude, which is accurate enough at soaring-area scale.
func BuildGrid(bbox BBox, resM float64) ([]Cell, error) {
	if err := bbox.Validate(); err != nil {
		return nil, err
	}
	if resM <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %f", resM)
	}

	const mPerDegLat = 111320.0
	centerLat := (bbox.MinLat + bbox.MaxLat) / 2.0
	dLat := resM / mPerDegLat
	dLon := resM / (mPerDegLat * math.Cos(centerLat*math.Pi/180.0))

	var cells []Cell
	id := 0
	for lat := bbox.MinLat; lat < bbox.MaxLat; lat += dLat {
		for lon := bbox.MinLon; lon < bbox.MaxLon; lon += dLon {
			cells = append(cells, Cell{
				ID:  id,
				Lat: lat + dLat/2,
				Lon: lon + dLon/2,
			})
			id++
		}
	}

	return cells, nil
}

// PriorPoint is one historical observation location used for the
// hour-conditioned prior.
type PriorPoint struct {
	Lat float64
	Lon float64
}

// Prior evaluates a gaussian-kernel density of historical observations at
// each cell centroid, normalized to [0, 1]. With fewer than minSamples
// points the prior is uninformative and all zeros are returned.
func Prior(points []PriorPoint, cells []Cell, bandwidthKm float64, minSamples int) []float64 {
	out := make([]float64, len(cells))
	if len(points) < minSamples || bandwidthKm <= 0 {
		return out
	}

	inv2bw2 := 1.0 / (2.0 * bandwidthKm * bandwidthKm)
	maxVal := 0.0
	for i, c := range cells {
		sum := 0.0
		for _, p := range points {
			dKm := geo.Haversine(c.Lat, c.Lon, p.Lat, p.Lon) / 1000.0
			sum += math.Exp(-dKm * dKm * inv2bw2)
		}
		out[i] = sum
		if sum > maxVal {
			maxVal = sum
		}
	}

	if maxVal > 0 {
		for i := range out {
			out[i] /= maxVal
		}
	}
	return out
}
