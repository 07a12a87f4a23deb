package tactics

import (
	"fmt"
	"math/rand"
	"strings"
)

// TestSim is a headless simulation harness used exclusively by tests and the
// headless report tool. It wraps a World with deterministic seeding, caller
// assigned agent ids, and structured logging.
type TestSim struct {
	World  *World
	SimLog *SimLog

	floors []floorSpec
	rng    *rand.Rand
	tuning Tuning

	// caller id -> arena id, for both teams
	idMap map[int]AgentID
}

type floorSpec struct {
	w, h      int
	obstacles []rect
	covers    []coverSpec
	elevators []Tile
}

type coverSpec struct {
	tile Tile
	kind CoverKind
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // map size, obstacles, seed, tuning — applied first
	simOptAgent                      // add agents — applied after floors are built
	simOptSquad                      // form squads — applied after agents exist
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapSize sets floor 0's dimensions.
func WithMapSize(w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.floors[0].w = w
		ts.floors[0].h = h
	}}
}

// WithObstacle adds a blocking rectangle to a floor.
func WithObstacle(floor, x, y, w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.ensureFloor(floor)
		f := &ts.floors[floor]
		f.obstacles = append(f.obstacles, rect{x: x, y: y, w: w, h: h})
	}}
}

// WithCover places a cover object on a floor tile.
func WithCover(floor, tileX, tileY int, kind CoverKind) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.ensureFloor(floor)
		f := &ts.floors[floor]
		f.covers = append(f.covers, coverSpec{tile: Tile{X: tileX, Y: tileY}, kind: kind})
	}}
}

// WithFloor adds an upper floor with the given dimensions.
func WithFloor(floor, w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.ensureFloor(floor)
		ts.floors[floor].w = w
		ts.floors[floor].h = h
	}}
}

// WithElevator marks a tile as an elevator stop on a floor. Cross-floor
// travel requires a stop on both ends.
func WithElevator(floor, tileX, tileY int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.ensureFloor(floor)
		f := &ts.floors[floor]
		f.elevators = append(f.elevators, Tile{X: tileX, Y: tileY})
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- test harness
	}}
}

// WithTuning replaces the default tuning block.
func WithTuning(tn Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.tuning = tn
	}}
}

// WithRedAgent adds a red agent with default attributes on floor 0.
func WithRedAgent(id int, x, y float64) SimOption {
	return withAgent(id, AffilRed, 0, x, y, DefaultAttributes())
}

// WithBlueAgent adds a blue agent with default attributes on floor 0.
func WithBlueAgent(id int, x, y float64) SimOption {
	return withAgent(id, AffilBlue, 0, x, y, DefaultAttributes())
}

// WithAgent adds an agent with explicit floor and attributes.
func WithAgent(id int, affil Affiliation, floor int, x, y float64, attr Attributes) SimOption {
	return withAgent(id, affil, floor, x, y, attr)
}

func withAgent(id int, affil Affiliation, floor int, x, y float64, attr Attributes) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		a := ts.World.Spawn(affil, floor, Vec2{X: x, Y: y}, attr)
		if a != nil {
			ts.idMap[id] = a.ID()
		}
	}}
}

// WithRedSquad groups existing red agents (by caller id) into a squad.
func WithRedSquad(ids ...int) SimOption {
	return SimOption{simOptSquad, func(ts *TestSim) { ts.formSquad(AffilRed, ids) }}
}

// WithBlueSquad groups existing blue agents (by caller id) into a squad.
func WithBlueSquad(ids ...int) SimOption {
	return SimOption{simOptSquad, func(ts *TestSim) { ts.formSquad(AffilBlue, ids) }}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (floors, obstacles, cover, seed, tuning)
//  2. Build the World and its floors
//  3. Agents
//  4. Squads
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		floors: []floorSpec{{w: 1280, h: 720}},
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
		tuning: DefaultTuning(),
		idMap:  make(map[int]AgentID),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.World = NewWorld(ts.tuning, ts.rng)
	ts.SimLog = ts.World.Log
	for _, fs := range ts.floors {
		idx := ts.World.AddFloor(fs.w, fs.h, fs.obstacles, fs.elevators)
		for _, c := range fs.covers {
			ts.World.Floors()[idx].Cover.AddCover(c.tile, c.kind)
		}
	}
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptSquad {
			o.fn(ts)
		}
	}
	return ts
}

// ensureFloor grows the floor spec list so index floor is addressable.
// Upper floors default to floor 0's footprint.
func (ts *TestSim) ensureFloor(floor int) {
	for len(ts.floors) <= floor {
		ts.floors = append(ts.floors, floorSpec{w: ts.floors[0].w, h: ts.floors[0].h})
	}
}

func (ts *TestSim) formSquad(affil Affiliation, ids []int) {
	var arena []AgentID
	for _, id := range ids {
		if aid, ok := ts.idMap[id]; ok {
			arena = append(arena, aid)
		}
	}
	ts.World.FormSquad(affil, arena...)
}

// Agent resolves a caller id to its agent; nil when unknown or destroyed.
func (ts *TestSim) Agent(id int) *Agent {
	aid, ok := ts.idMap[id]
	if !ok {
		return nil
	}
	return ts.World.Agent(aid)
}

// AllByTeam returns living and dead agents of one affiliation in spawn order.
func (ts *TestSim) AllByTeam(affil Affiliation) []*Agent {
	var out []*Agent
	for _, a := range ts.World.Agents() {
		if a.Affil() == affil {
			out = append(out, a)
		}
	}
	return out
}

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.World.Step()
	}
}

// RunUntil advances up to maxTicks, stopping early if predicate returns true.
// Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.World.Step()
		if predicate(ts) {
			return ts.World.Tick()
		}
	}
	return -1
}

// Snapshot returns a one-screen summary of the current world state, useful
// in t.Log output when a scenario assertion fails.
func (ts *TestSim) Snapshot() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Snapshot at T=%03d ---\n", ts.World.Tick())
	for _, a := range ts.World.Agents() {
		t := TileOf(a.Pos())
		alive := "alive"
		if !a.Alive() {
			alive = "dead"
		}
		fmt.Fprintf(&sb, "%-4s %-5s floor=%d tile=(%d,%d) hp=%.0f state=%s motion=%s\n",
			a.Label(), alive, a.Floor(), t.X, t.Y, a.Health(), a.StateName(), a.Motion().State())
	}
	for _, sq := range ts.World.Squads() {
		fmt.Fprintf(&sb, "squad%d leader=%d assignments=%d\n",
			sq.ID(), int(sq.Leader()), len(sq.Assignments()))
	}
	return sb.String()
}
