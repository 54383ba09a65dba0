// Package planner contains the glide route core: physics-based leg
// simulation and a best-first search over (waypoint, altitude) states that
// schedules minimal thermal top-up climbs while minimizing total time.
package planner

import (
	"errors"
	"fmt"
)

// ErrNoRoute is returned by PlanRoute when the search frontier is
// exhausted without reaching the goal. Callers should test with errors.Is
// to distinguish it from input validation failures.
var ErrNoRoute = errors.New("no feasible route to goal")

// Node is a candidate waypoint. A positive ClimbRateMS marks a usable
// thermal; CeilingM (nil = unbounded) caps how high a top-up climb at this
// node may go.
type Node struct {
	ID          string   `json:"id"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	ClimbRateMS float64  `json:"climb_rate_ms"`
	CeilingM    *float64 `json:"ceiling_m,omitempty"`
}

// Graph is the waypoint graph the search runs over. Edges maps a node ID
// to the ordered IDs reachable from it. Immutable during a search.
type Graph struct {
	Nodes map[string]Node     `json:"nodes"`
	Edges map[string][]string `json:"edges"`
}

// Validate fails fast on malformed input so the search never runs on
// silently wrong physics.
func (g *Graph) Validate() error {
	if g == nil || len(g.Nodes) == 0 {
		return errors.New("graph has no nodes")
	}
	for id, n := range g.Nodes {
		if n.ID != id {
			return fmt.Errorf("node keyed %q carries ID %q", id, n.ID)
		}
		if n.ClimbRateMS < 0 {
			return fmt.Errorf("node %q has negative climb rate %f", id, n.ClimbRateMS)
		}
	}
	for from, tos := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			return fmt.Errorf("edge source %q is not a node", from)
		}
		for _, to := range tos {
			if _, ok := g.Nodes[to]; !ok {
				return fmt.Errorf("edge %s -> %s references undefined node", from, to)
			}
		}
	}
	return nil
}

// LegResult is the outcome of integrating one leg from a given start
// altitude against an arrival floor. Derived value, never persisted.
type LegResult struct {
	DistanceM         float64 // great-circle leg length
	CruiseTimeS       float64 // integrated time at the chosen airspeed
	ArrivalAltM       float64 // altitude expected on arrival
	RequiredStartAltM float64 // start altitude needed to arrive at the floor
}

// StepLog records one edge of a finished route: how much was climbed
// before departing and how the leg itself went.
type StepLog struct {
	From       string  `json:"from_id"`
	To         string  `json:"to_id"`
	ClimbM     float64 `json:"climbed_m"`
	ClimbTimeS float64 `json:"climb_time_s"`
	CruiseS    float64 `json:"cruise_time_s"`
	DepartAltM float64 `json:"depart_h_msl"`
	ArriveAltM float64 `json:"arrive_h_msl"`
}

// RoutePlan is the search result: visited waypoints in order, total
// elapsed time, final altitude and the per-edge breakdown. Read-only once
// produced.
type RoutePlan struct {
	Path       []string  `json:"path"`
	TotalTimeS float64   `json:"total_time_s"`
	FinalAltM  float64   `json:"final_arrival_h_msl"`
	Steps      []StepLog `json:"steps"`
}
