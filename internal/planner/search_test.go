package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/glideplan/internal/wx"
	"github.com/yegors/glideplan/pkg/logger"
)

func ceilingM(v float64) *float64 { return &v }

// thermalGraph is the canonical three-waypoint scenario: a start without
// lift, one thermal en route, and a goal two legs away that cannot be
// reached without topping up at the thermal.
func thermalGraph(ceiling *float64) *Graph {
	return &Graph{
		Nodes: map[string]Node{
			"START": {ID: "START", Lat: 45.00, Lon: 5.00},
			"T1":    {ID: "T1", Lat: 45.05, Lon: 5.10, ClimbRateMS: 1.5, CeilingM: ceiling},
			"GOAL":  {ID: "GOAL", Lat: 45.15, Lon: 5.35},
		},
		Edges: map[string][]string{
			"START": {"T1"},
			"T1":    {"GOAL"},
		},
	}
}

func TestPlanRouteWithTopUpClimb(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	plan, err := pl.PlanRoute(thermalGraph(ceilingM(2400.0)), "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)

	assert.Equal(t, []string{"START", "T1", "GOAL"}, plan.Path)
	require.Len(t, plan.Steps, 2)

	// The first leg is within glide; the climb happens at the thermal.
	assert.Zero(t, plan.Steps[0].ClimbM)
	assert.Greater(t, plan.Steps[1].ClimbM, 0.0)
	assert.InDelta(t, plan.Steps[1].ClimbM/1.5, plan.Steps[1].ClimbTimeS, 1e-9)

	// Ceiling respected and the floor met on arrival.
	assert.LessOrEqual(t, plan.Steps[1].DepartAltM, 2400.0+1e-6)
	assert.GreaterOrEqual(t, plan.FinalAltM, 900.0-1e-6)
	assert.GreaterOrEqual(t, plan.Steps[0].ArriveAltM, 900.0-1e-6)

	// Total time is exactly the sum of the per-step climb and cruise times.
	var sum float64
	for _, s := range plan.Steps {
		sum += s.ClimbTimeS + s.CruiseS
	}
	assert.InDelta(t, sum, plan.TotalTimeS, 1e-9)

	// Step log chains: each arrival altitude feeds the next departure
	// (modulo the climb recorded on the next step).
	assert.InDelta(t, plan.Steps[0].ArriveAltM+plan.Steps[1].ClimbM, plan.Steps[1].DepartAltM, 1e-9)
}

func TestPlanRouteCeilingTooLow(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	// The final leg needs roughly 1900 m at departure; a 1600 m ceiling
	// cannot provide it, and there is no other branch.
	_, err := pl.PlanRoute(thermalGraph(ceilingM(1600.0)), "START", "GOAL", 1800.0, 900.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestPlanRouteSkipsThermallessBranch(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	// Two parallel intermediate waypoints: A has no lift, B does. The
	// goal leg needs a climb from either, so only B can appear.
	g := &Graph{
		Nodes: map[string]Node{
			"START": {ID: "START", Lat: 45.00, Lon: 5.00},
			"A":     {ID: "A", Lat: 45.05, Lon: 5.10},
			"B":     {ID: "B", Lat: 45.05, Lon: 5.12, ClimbRateMS: 1.5, CeilingM: ceilingM(2600.0)},
			"GOAL":  {ID: "GOAL", Lat: 45.15, Lon: 5.35},
		},
		Edges: map[string][]string{
			"START": {"A", "B"},
			"A":     {"GOAL"},
			"B":     {"GOAL"},
		},
	}

	plan, err := pl.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"START", "B", "GOAL"}, plan.Path)
	assert.NotContains(t, plan.Path, "A")
}

func TestPlanRouteMonotonicVsDirectLeg(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	g := &Graph{
		Nodes: map[string]Node{
			"START": {ID: "START", Lat: 45.00, Lon: 5.00},
			"T1":    {ID: "T1", Lat: 45.04, Lon: 5.02, ClimbRateMS: 2.0},
			"GOAL":  {ID: "GOAL", Lat: 45.05, Lon: 5.10},
		},
		Edges: map[string][]string{
			"START": {"GOAL", "T1"},
			"T1":    {"GOAL"},
		},
	}

	direct := pl.SimulateLeg(45.00, 5.00, 1800.0, 45.05, 5.10, 900.0)
	require.LessOrEqual(t, direct.RequiredStartAltM, 1800.0, "direct leg must be feasible for this test")

	plan, err := pl.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, plan.TotalTimeS, direct.CruiseTimeS-1e-9)
	// The search should in fact pick the direct edge here.
	assert.Equal(t, []string{"START", "GOAL"}, plan.Path)
}

func TestPlanRouteStartIsGoal(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	plan, err := pl.PlanRoute(thermalGraph(nil), "START", "START", 1800.0, 900.0)
	require.NoError(t, err)

	// A zero-step route is a success, distinct from no-route-found.
	assert.Equal(t, []string{"START"}, plan.Path)
	assert.Empty(t, plan.Steps)
	assert.Zero(t, plan.TotalTimeS)
	assert.Equal(t, 1800.0, plan.FinalAltM)
}

func TestPlanRouteUnboundedCeiling(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	// Nil ceiling means the top-up is limited only by what the leg needs.
	plan, err := pl.PlanRoute(thermalGraph(nil), "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)
	assert.Greater(t, plan.Steps[1].ClimbM, 0.0)
}

func TestPlanRouteValidation(t *testing.T) {
	pl := testPlanner(t, wx.Constant{}, Config{})

	t.Run("unknown start", func(t *testing.T) {
		_, err := pl.PlanRoute(thermalGraph(nil), "NOPE", "GOAL", 1800.0, 900.0)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRoute)
	})

	t.Run("unknown goal", func(t *testing.T) {
		_, err := pl.PlanRoute(thermalGraph(nil), "START", "NOPE", 1800.0, 900.0)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRoute)
	})

	t.Run("dangling edge", func(t *testing.T) {
		g := thermalGraph(nil)
		g.Edges["T1"] = append(g.Edges["T1"], "GHOST")
		_, err := pl.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
		assert.ErrorContains(t, err, "undefined")
	})

	t.Run("negative climb rate", func(t *testing.T) {
		g := thermalGraph(nil)
		n := g.Nodes["T1"]
		n.ClimbRateMS = -0.5
		g.Nodes["T1"] = n
		_, err := pl.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
		assert.ErrorContains(t, err, "negative climb rate")
	})
}

func TestNewPlannerValidation(t *testing.T) {
	p := testPolar(t)

	_, err := New(p, wx.Constant{}, Config{StepLengthM: -5}, logger.Nop())
	assert.Error(t, err)

	_, err = New(p, wx.Constant{}, Config{BucketWidthM: -1}, logger.Nop())
	assert.Error(t, err)

	_, err = New(p, wx.Constant{}, Config{MacCreadyMS: -1}, logger.Nop())
	assert.Error(t, err)

	_, err = New(nil, wx.Constant{}, Config{}, logger.Nop())
	assert.Error(t, err)

	_, err = New(p, nil, Config{}, logger.Nop())
	assert.Error(t, err)
}

func TestPlanRouteTailwindFasterThanStillAir(t *testing.T) {
	still := testPlanner(t, wx.Constant{}, Config{})
	// Wind from the west-southwest is mostly on the tail for this
	// northeast-bound route.
	wind := testPlanner(t, wx.Constant{WindSpeedMS: 8.0, WindFromDeg: 240.0}, Config{})

	g := thermalGraph(ceilingM(2400.0))
	a, err := still.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)
	b, err := wind.PlanRoute(g, "START", "GOAL", 1800.0, 900.0)
	require.NoError(t, err)

	assert.Less(t, b.TotalTimeS, a.TotalTimeS)
}
