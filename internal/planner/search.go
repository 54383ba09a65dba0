package planner

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/yegors/glideplan/internal/polar"
	"github.com/yegors/glideplan/internal/wx"
	"github.com/yegors/glideplan/pkg/logger"
)

const (
	// DefaultStepLengthM is the along-track integration step.
	DefaultStepLengthM = 1000.0

	// DefaultBucketWidthM is the altitude discretization used to dedupe
	// (waypoint, altitude) states. Narrower buckets trade search cost
	// for altitude-resolution fidelity.
	DefaultBucketWidthM = 50.0

	// altToleranceM absorbs floating-point noise in altitude
	// feasibility comparisons.
	altToleranceM = 1e-6
)

// Config carries the planner tunables.
type Config struct {
	MacCreadyMS  float64 // climb-rate setting for speed-to-fly
	StepLengthM  float64 // integration step, 0 selects the default
	BucketWidthM float64 // altitude bucket, 0 selects the default
}

// Planner runs leg simulations and route searches. It holds no state
// between invocations; concurrent searches on the same Planner are
// independent.
type Planner struct {
	polar        *polar.Polar
	sampler      wx.Sampler
	macCreadyMS  float64
	stepM        float64
	bucketWidthM float64
	logger       *logger.Logger
}

// New creates a planner. Step length and bucket width must be positive
// once defaulted; a negative MacCready setting is rejected since the polar
// solve assumes a climb expectation >= 0.
func New(p *polar.Polar, sampler wx.Sampler, cfg Config, log *logger.Logger) (*Planner, error) {
	if p == nil {
		return nil, fmt.Errorf("planner requires a polar")
	}
	if sampler == nil {
		return nil, fmt.Errorf("planner requires an environment sampler")
	}
	if cfg.StepLengthM == 0 {
		cfg.StepLengthM = DefaultStepLengthM
	}
	if cfg.BucketWidthM == 0 {
		cfg.BucketWidthM = DefaultBucketWidthM
	}
	if cfg.StepLengthM <= 0 {
		return nil, fmt.Errorf("step length must be positive, got %f", cfg.StepLengthM)
	}
	if cfg.BucketWidthM <= 0 {
		return nil, fmt.Errorf("bucket width must be positive, got %f", cfg.BucketWidthM)
	}
	if cfg.MacCreadyMS < 0 {
		return nil, fmt.Errorf("MacCready setting must be >= 0, got %f", cfg.MacCreadyMS)
	}

	return &Planner{
		polar:        p,
		sampler:      sampler,
		macCreadyMS:  cfg.MacCreadyMS,
		stepM:        cfg.StepLengthM,
		bucketWidthM: cfg.BucketWidthM,
		logger:       log.Named("planner"),
	}, nil
}

// expanded is one reached search state, stored in an arena so frontier
// entries stay small and never compare payloads.
type expanded struct {
	nodeID string
	altM   float64
	timeS  float64
	parent int     // arena index of predecessor, -1 at the root
	step   StepLog // edge that produced this state, zero at the root
}

// frontierItem orders the priority queue by accumulated time with a
// monotonically increasing sequence number as tie-break.
type frontierItem struct {
	timeS float64
	seq   uint64
	arena int
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].timeS != f[j].timeS {
		return f[i].timeS < f[j].timeS
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

type stateKey struct {
	nodeID string
	bucket int
}

// PlanRoute searches for the time-minimal route from startID to goalID,
// departing at startAltM and requiring every leg to arrive at or above
// floorM. It returns ErrNoRoute (wrapped) when the state space is
// exhausted without reaching the goal.
func (p *Planner) PlanRoute(g *Graph, startID, goalID string, startAltM, floorM float64) (*RoutePlan, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if _, ok := g.Nodes[startID]; !ok {
		return nil, fmt.Errorf("start node %q not in graph", startID)
	}
	if _, ok := g.Nodes[goalID]; !ok {
		return nil, fmt.Errorf("goal node %q not in graph", goalID)
	}

	arena := []expanded{{nodeID: startID, altM: startAltM, parent: -1}}
	seen := make(map[stateKey]float64)

	var seq uint64
	pq := &frontier{{timeS: 0, seq: 0, arena: 0}}
	heap.Init(pq)

	popped := 0
	for pq.Len() > 0 {
		item := heap.Pop(pq).(frontierItem)
		cur := arena[item.arena]
		popped++

		// First pop of the goal is optimal: edge costs are
		// non-negative and the heuristic is zero.
		if cur.nodeID == goalID {
			plan := p.assemble(arena, item.arena)
			p.logger.Debug("Route found",
				logger.Int("states_popped", popped),
				logger.Int("path_len", len(plan.Path)),
				logger.Float64("total_time_s", plan.TotalTimeS),
			)
			return plan, nil
		}

		key := stateKey{nodeID: cur.nodeID, bucket: p.altBucket(cur.altM)}
		if best, ok := seen[key]; ok && cur.timeS >= best {
			continue
		}
		seen[key] = cur.timeS

		node := g.Nodes[cur.nodeID]
		for _, nbID := range g.Edges[cur.nodeID] {
			nb := g.Nodes[nbID]

			leg := p.simulateLeg(node.Lat, node.Lon, cur.altM, nb.Lat, nb.Lon, floorM)

			departAlt := cur.altM
			climbM := 0.0
			climbTime := 0.0

			if cur.altM+altToleranceM < leg.RequiredStartAltM {
				// Too low for this leg; a top-up climb here is the
				// only way to take it.
				if node.ClimbRateMS <= 0 {
					continue
				}

				climbNeeded := leg.RequiredStartAltM - cur.altM
				maxClimb := math.Inf(1)
				if node.CeilingM != nil {
					maxClimb = math.Max(0, *node.CeilingM-cur.altM)
				}
				if climbNeeded > maxClimb+altToleranceM {
					continue
				}

				climbM = climbNeeded
				climbTime = climbM / node.ClimbRateMS
				departAlt = cur.altM + climbM

				// Density along the higher profile changes the leg;
				// re-run the integration from the post-climb altitude.
				leg = p.simulateLeg(node.Lat, node.Lon, departAlt, nb.Lat, nb.Lon, floorM)
			}

			arena = append(arena, expanded{
				nodeID: nbID,
				altM:   leg.ArrivalAltM,
				timeS:  cur.timeS + climbTime + leg.CruiseTimeS,
				parent: item.arena,
				step: StepLog{
					From:       cur.nodeID,
					To:         nbID,
					ClimbM:     climbM,
					ClimbTimeS: climbTime,
					CruiseS:    leg.CruiseTimeS,
					DepartAltM: departAlt,
					ArriveAltM: leg.ArrivalAltM,
				},
			})
			seq++
			heap.Push(pq, frontierItem{timeS: arena[len(arena)-1].timeS, seq: seq, arena: len(arena) - 1})
		}
	}

	return nil, fmt.Errorf("%w: %s -> %s from %.0f m", ErrNoRoute, startID, goalID, startAltM)
}

func (p *Planner) altBucket(altM float64) int {
	return int(math.Round(altM / p.bucketWidthM))
}

// assemble walks arena back-pointers from the terminal state and packages
// the winning path, step log and timings.
func (p *Planner) assemble(arena []expanded, terminal int) *RoutePlan {
	var steps []StepLog
	for i := terminal; arena[i].parent >= 0; i = arena[i].parent {
		steps = append(steps, arena[i].step)
	}
	// Reverse into travel order.
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	path := make([]string, 0, len(steps)+1)
	if len(steps) == 0 {
		path = append(path, arena[terminal].nodeID)
	} else {
		path = append(path, steps[0].From)
		for _, s := range steps {
			path = append(path, s.To)
		}
	}

	return &RoutePlan{
		Path:       path,
		TotalTimeS: arena[terminal].timeS,
		FinalAltM:  arena[terminal].altM,
		Steps:      steps,
	}
}
