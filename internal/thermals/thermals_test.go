package thermals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/glideplan/internal/planner"
)

func TestBuildGrid(t *testing.T) {
	bbox := BBox{MinLat: 45.0, MinLon: 5.0, MaxLat: 45.1, MaxLon: 5.1}

	cells, err := BuildGrid(bbox, 2000.0)
	require.NoError(t, err)
	require.NotEmpty(t, cells)

	// ~11 km per side at 2 km cells: a handful of rows and columns.
	assert.Greater(t, len(cells), 20)
	assert.Less(t, len(cells), 60)

	for _, c := range cells {
		assert.GreaterOrEqual(t, c.Lat, 45.0)
		assert.LessOrEqual(t, c.Lat, 45.1)
		assert.GreaterOrEqual(t, c.Lon, 5.0)
		assert.LessOrEqual(t, c.Lon, 5.1)
	}
}

func TestBuildGridRejectsBadInput(t *testing.T) {
	_, err := BuildGrid(BBox{MinLat: 46, MinLon: 5, MaxLat: 45, MaxLon: 6}, 1000)
	assert.Error(t, err)

	_, err = BuildGrid(BBox{MinLat: 45, MinLon: 5, MaxLat: 46, MaxLon: 6}, 0)
	assert.Error(t, err)
}

func TestScoreCells(t *testing.T) {
	cells := []Cell{{ID: 0}, {ID: 1}, {ID: 2}}
	feats := []Features{
		{CAPEJkg: 1200, GlobalRadW: 650, WindSpeed10m: 2},  // booming
		{CAPEJkg: 300, GlobalRadW: 200, WindSpeed10m: 5},   // weak
		{CAPEJkg: 1200, GlobalRadW: 650, WindSpeed10m: 15}, // blown out
	}

	require.NoError(t, ScoreCells(cells, feats, nil))

	assert.Greater(t, cells[0].Score, cells[1].Score)
	assert.Greater(t, cells[0].ClimbMS, cells[1].ClimbMS)

	// Wind beyond the kill threshold zeroes the cell entirely.
	assert.Zero(t, cells[2].Score)
	assert.Zero(t, cells[2].ClimbMS)
}

func TestScoreCellsPriorRaisesScore(t *testing.T) {
	mk := func() []Cell { return []Cell{{ID: 0}} }
	feats := []Features{{CAPEJkg: 600, GlobalRadW: 400, WindSpeed10m: 3}}

	without := mk()
	require.NoError(t, ScoreCells(without, feats, nil))

	with := mk()
	require.NoError(t, ScoreCells(with, feats, []float64{1.0}))

	assert.Greater(t, with[0].Score, without[0].Score)
}

func TestScoreCellsLengthMismatch(t *testing.T) {
	err := ScoreCells([]Cell{{}, {}}, []Features{{}}, nil)
	assert.Error(t, err)
}

func TestPrior(t *testing.T) {
	cells := []Cell{
		{ID: 0, Lat: 45.00, Lon: 5.00},
		{ID: 1, Lat: 45.20, Lon: 5.40},
	}

	// Cluster of observations on top of the first cell.
	var pts []PriorPoint
	for i := 0; i < 20; i++ {
		pts = append(pts, PriorPoint{Lat: 45.0 + float64(i%5)*0.001, Lon: 5.0})
	}

	prior := Prior(pts, cells, 2.0, 10)
	require.Len(t, prior, 2)
	assert.InDelta(t, 1.0, prior[0], 1e-9, "densest cell normalizes to 1")
	assert.Less(t, prior[1], 0.01)

	// Below the sample threshold the prior is uninformative.
	flat := Prior(pts[:5], cells, 2.0, 10)
	assert.Equal(t, []float64{0, 0}, flat)
}

func TestSelectCandidates(t *testing.T) {
	cells := []Cell{
		{ID: 0, Lat: 45.00, Lon: 5.00, Score: 0.9, ClimbMS: 1.8},
		{ID: 1, Lat: 45.001, Lon: 5.001, Score: 0.8, ClimbMS: 1.5}, // too close to 0
		{ID: 2, Lat: 45.10, Lon: 5.10, Score: 0.7, ClimbMS: 1.2},
		{ID: 3, Lat: 45.20, Lon: 5.20, Score: 0.3, ClimbMS: 0.5}, // below min score
	}

	cands := SelectCandidates(cells, 0.55, 10, 1000.0, nil)
	require.Len(t, cands, 2)
	assert.Equal(t, "T0", cands[0].ID)
	assert.Equal(t, "T2", cands[1].ID)

	// topK caps the list after suppression.
	one := SelectCandidates(cells, 0.55, 1, 1000.0, nil)
	assert.Len(t, one, 1)
}

func TestCorridorFilter(t *testing.T) {
	cands := []Candidate{
		{ID: "ON", Lat: 45.05, Lon: 5.10, ClimbMS: 1.5},
		{ID: "WIDE", Lat: 45.40, Lon: 5.05, ClimbMS: 1.5},  // far off track
		{ID: "BEHIND", Lat: 44.80, Lon: 4.60, ClimbMS: 1.5}, // behind the start
	}

	kept := CorridorFilter(cands, 45.00, 5.00, 45.15, 5.35, 10000.0)
	require.Len(t, kept, 1)
	assert.Equal(t, "ON", kept[0].ID)
}

func TestBuildGraphForwardProgress(t *testing.T) {
	start := planner.Node{ID: "START", Lat: 45.00, Lon: 5.00}
	goal := planner.Node{ID: "GOAL", Lat: 45.15, Lon: 5.35}
	cands := []Candidate{
		{ID: "T1", Lat: 45.05, Lon: 5.10, ClimbMS: 1.5},
		{ID: "T2", Lat: 45.10, Lon: 5.22, ClimbMS: 2.0},
	}

	g := BuildGraph(start, goal, cands, 0)
	require.NoError(t, g.Validate())
	require.Len(t, g.Nodes, 4)

	assert.ElementsMatch(t, []string{"T1", "T2", "GOAL"}, g.Edges["START"])
	assert.ElementsMatch(t, []string{"T2", "GOAL"}, g.Edges["T1"])
	assert.ElementsMatch(t, []string{"GOAL"}, g.Edges["T2"])
	assert.Empty(t, g.Edges["GOAL"])
}

func TestBuildGraphMaxLeg(t *testing.T) {
	start := planner.Node{ID: "START", Lat: 45.00, Lon: 5.00}
	goal := planner.Node{ID: "GOAL", Lat: 45.15, Lon: 5.35}
	cands := []Candidate{{ID: "T1", Lat: 45.05, Lon: 5.10, ClimbMS: 1.5}}

	// The direct start-goal leg (~30 km) exceeds the cap; the hops via
	// T1 do not.
	g := BuildGraph(start, goal, cands, 25000.0)
	require.NoError(t, g.Validate())
	assert.NotContains(t, g.Edges["START"], "GOAL")
	assert.Contains(t, g.Edges["START"], "T1")
	assert.Contains(t, g.Edges["T1"], "GOAL")
}
