package thermals

import (
	"fmt"
	"math"
	"sort"

	"github.com/yegors/glideplan/internal/geo"
	"github.com/yegors/glideplan/internal/planner"
)

// Candidate is a climb resource considered for routing.
type Candidate struct {
	ID       string   `json:"id"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	ClimbMS  float64  `json:"climb_ms"`
	CeilingM *float64 `json:"ceiling_m,omitempty"`
}

// SelectCandidates picks at most topK scored cells as candidates,
// suppressing cells within minSepM of an already-picked stronger one so
// one broad thermal area does not flood the graph.
func SelectCandidates(cells []Cell, minScore float64, topK int, minSepM float64, ceilingM *float64) []Candidate {
	ordered := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if c.Score >= minScore && c.ClimbMS > 0 {
			ordered = append(ordered, c)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].ID < ordered[j].ID
	})

	var picked []Candidate
	for _, c := range ordered {
		if topK > 0 && len(picked) >= topK {
			break
		}
		tooClose := false
		for _, p := range picked {
			if geo.Haversine(c.Lat, c.Lon, p.Lat, p.Lon) < minSepM {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		picked = append(picked, Candidate{
			ID:       fmt.Sprintf("T%d", c.ID),
			Lat:      c.Lat,
			Lon:      c.Lon,
			ClimbMS:  c.ClimbMS,
			CeilingM: ceilingM,
		})
	}

	return picked
}

// CorridorFilter keeps candidates inside a band of halfWidthM around the
// start-goal great circle whose along-track position makes forward
// progress (with a small slack behind the start and past the goal).
func CorridorFilter(cands []Candidate, startLat, startLon, goalLat, goalLon, halfWidthM float64) []Candidate {
	routeLen := geo.Haversine(startLat, startLon, goalLat, goalLon)
	slack := halfWidthM / 2.0

	var kept []Candidate
	for _, c := range cands {
		xt := geo.CrossTrackDistance(c.Lat, c.Lon, startLat, startLon, goalLat, goalLon)
		if math.Abs(xt) > halfWidthM {
			continue
		}
		along := alongTrackDistance(c.Lat, c.Lon, startLat, startLon, goalLat, goalLon)
		if along < -slack || along > routeLen+slack {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// alongTrackDistance projects a point onto the start-goal great circle
// and returns the signed distance from the start, in meters; negative
// means the point lies behind the start.
func alongTrackDistance(lat, lon, startLat, startLon, goalLat, goalLon float64) float64 {
	const degToRad = math.Pi / 180.0

	d13 := geo.Haversine(startLat, startLon, lat, lon) / geo.EarthRadiusM
	theta13 := geo.InitialBearing(startLat, startLon, lat, lon)
	theta12 := geo.InitialBearing(startLat, startLon, goalLat, goalLon)

	xt := math.Asin(math.Sin(d13) * math.Sin((theta13-theta12)*degToRad))
	at := math.Acos(clampAbs1(math.Cos(d13) / math.Cos(xt)))
	if math.Cos((theta13-theta12)*degToRad) < 0 {
		at = -at
	}
	return at * geo.EarthRadiusM
}

func clampAbs1(v float64) float64 {
	return math.Max(-1.0, math.Min(1.0, v))
}

// BuildGraph assembles the planner graph: the start, the goal, and every
// candidate in between, with directed edges toward any node strictly
// further along track. maxLegM of 0 leaves leg length unlimited.
func BuildGraph(start, goal planner.Node, cands []Candidate, maxLegM float64) *planner.Graph {
	type entry struct {
		node  planner.Node
		along float64
	}

	routeLen := geo.Haversine(start.Lat, start.Lon, goal.Lat, goal.Lon)
	entries := []entry{{node: start, along: 0}}
	for _, c := range cands {
		entries = append(entries, entry{
			node: planner.Node{
				ID:          c.ID,
				Lat:         c.Lat,
				Lon:         c.Lon,
				ClimbRateMS: c.ClimbMS,
				CeilingM:    c.CeilingM,
			},
			along: alongTrackDistance(c.Lat, c.Lon, start.Lat, start.Lon, goal.Lat, goal.Lon),
		})
	}
	entries = append(entries, entry{node: goal, along: routeLen})

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].along < entries[j].along })

	g := &planner.Graph{
		Nodes: make(map[string]planner.Node, len(entries)),
		Edges: make(map[string][]string, len(entries)),
	}
	for _, e := range entries {
		g.Nodes[e.node.ID] = e.node
	}

	for i, from := range entries {
		for j := i + 1; j < len(entries); j++ {
			to := entries[j]
			if to.along <= from.along {
				continue
			}
			if maxLegM > 0 && geo.Haversine(from.node.Lat, from.node.Lon, to.node.Lat, to.node.Lon) > maxLegM {
				continue
			}
			g.Edges[from.node.ID] = append(g.Edges[from.node.ID], to.node.ID)
		}
	}

	return g
}
