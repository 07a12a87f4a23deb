package tactics

import (
	"math/rand"
)

// Floor is one level of the battlefield: a walkability grid, its occupancy
// ledger, its cover, and the elevator tiles that connect it to other floors.
type Floor struct {
	Grid      *NavGrid
	Ledger    *OccupancyLedger
	Cover     *CoverField
	Oracle    *GridPathOracle
	Elevators []Tile
}

// World is the owning arena for agents, squads, and floors. All cross
// references between them are id lookups into the world, which keeps
// lifetimes acyclic. Execution is single-threaded and cooperative: Step
// advances everything in a fixed, deterministic order.
type World struct {
	floors []*Floor
	oracle *GridPathOracle
	threat *HeatField
	tuning Tuning
	rng    *rand.Rand

	agents map[AgentID]*Agent
	order  []AgentID // deterministic iteration order
	squads []*Squad

	tick   int
	nextID AgentID

	Log *SimLog
}

// NewWorld creates an empty world. The RNG is injected so runs are
// reproducible; pass rand.New(rand.NewSource(seed)).
func NewWorld(tuning Tuning, rng *rand.Rand) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) // #nosec G404 -- simulation, not crypto
	}
	return &World{
		tuning: tuning,
		rng:    rng,
		agents: make(map[AgentID]*Agent),
		nextID: 1,
		Log:    NewSimLog(false),
	}
}

// AddFloor appends a floor built from the map dimensions and obstacle list
// and returns its index. Each floor carries its own path oracle bound to its
// grid; the first floor added also creates the shared threat field.
func (w *World) AddFloor(mapW, mapH int, obstacles []rect, elevators []Tile) int {
	grid := NewNavGrid(mapW, mapH, obstacles, agentRadius)
	ledger := NewOccupancyLedger()
	cover := NewCoverField(nil, obstacles, grid, ledger)
	oracle := NewGridPathOracle(grid, 8)
	f := &Floor{Grid: grid, Ledger: ledger, Cover: cover, Oracle: oracle, Elevators: elevators}
	w.floors = append(w.floors, f)
	if w.oracle == nil {
		w.oracle = oracle
	}
	if w.threat == nil {
		w.threat = NewHeatField(mapW, mapH)
	}
	return len(w.floors) - 1
}

// agentRadius pads obstacle footprints so paths keep clearance.
const agentRadius = 6

// Floors returns the floor list.
func (w *World) Floors() []*Floor { return w.floors }

// FloorOf returns the floor an agent stands on.
func (w *World) FloorOf(a *Agent) *Floor {
	if a.floor < 0 || a.floor >= len(w.floors) {
		return nil
	}
	return w.floors[a.floor]
}

// Oracle returns floor 0's path oracle.
func (w *World) Oracle() *GridPathOracle { return w.oracle }

// Threat returns the shared threat field.
func (w *World) Threat() *HeatField { return w.threat }

// Tuning returns the active tuning block.
func (w *World) Tuning() *Tuning { return &w.tuning }

// Rand returns the injected RNG.
func (w *World) Rand() *rand.Rand { return w.rng }

// Tick returns the current simulation tick.
func (w *World) Tick() int { return w.tick }

// Scorer builds a destination scorer bound to the given floor's cover and
// path oracle.
func (w *World) Scorer(floor int) *Scorer {
	var cf *CoverField
	oracle := w.oracle
	if floor >= 0 && floor < len(w.floors) {
		cf = w.floors[floor].Cover
		oracle = w.floors[floor].Oracle
	}
	return NewScorer(oracle, w.threat, cf, cf, &w.tuning)
}

// Spawn creates an agent on the given floor at pos and occupies its starting
// tile. Returns nil when the floor does not exist.
func (w *World) Spawn(affil Affiliation, floor int, pos Vec2, attr Attributes) *Agent {
	if floor < 0 || floor >= len(w.floors) {
		return nil
	}
	f := w.floors[floor]
	a := &Agent{
		id:         w.nextID,
		affil:      affil,
		floor:      floor,
		pos:        pos,
		health:     agentMaxHealth,
		attr:       attr,
		perception: NewPerception(),
		alive:      true,
	}
	a.label = agentLabel(affil, a.id)
	w.nextID++
	a.motion = NewMotionController(a, f.Ledger, f.Grid, f.Oracle, &w.tuning, &w.tick)
	a.machine = NewStateMachine(a, w)
	f.Ledger.Occupy(a.id, TileOf(pos))
	w.agents[a.id] = a
	w.order = append(w.order, a.id)
	return a
}

// Agent looks up an agent by id; nil when unknown or destroyed.
func (w *World) Agent(id AgentID) *Agent { return w.agents[id] }

// Agents returns all agents in deterministic spawn order.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, len(w.order))
	for _, id := range w.order {
		if a, ok := w.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FormSquad groups existing agents into a squad. The first member is the
// designated leader. Returns nil if no listed agent exists.
func (w *World) FormSquad(affil Affiliation, ids ...AgentID) *Squad {
	var members []AgentID
	for _, id := range ids {
		if a := w.agents[id]; a != nil && a.affil == affil {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return nil
	}
	sq := NewSquad(len(w.squads), affil, members, w)
	w.squads = append(w.squads, sq)
	return sq
}

// Squads returns all squads.
func (w *World) Squads() []*Squad { return w.squads }

// SquadOf returns the squad containing the agent, or nil.
func (w *World) SquadOf(id AgentID) *Squad {
	for _, sq := range w.squads {
		for _, m := range sq.members {
			if m == id {
				return sq
			}
		}
	}
	return nil
}

// Kill marks an agent dead. The corpse keeps its occupancy but every soft
// claim and pending move is released immediately.
func (w *World) Kill(id AgentID) {
	a := w.agents[id]
	if a == nil || !a.alive {
		return
	}
	a.alive = false
	a.health = 0
	a.motion.Interrupt()
	if f := w.FloorOf(a); f != nil {
		f.Ledger.ClearReservation(id)
	}
	w.Log.Add(w.tick, a.label, a.affil.String(), "agent", "killed", "", 0)
}

// Destroy removes an agent from the arena entirely: all ledger entries are
// released, suppression assignments involving it are dropped, rosters are
// pruned, and the threat field forgets it.
func (w *World) Destroy(id AgentID) {
	a := w.agents[id]
	if a == nil {
		return
	}
	a.alive = false
	a.motion.Destroy()
	for _, f := range w.floors {
		f.Ledger.ReleaseAll(id)
	}
	if w.threat != nil {
		w.threat.Forget(id)
	}
	for _, sq := range w.squads {
		sq.removeAgent(id)
	}
	for _, other := range w.agents {
		other.perception.Drop(id)
	}
	delete(w.agents, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// MoveAgentToFloor transfers an agent between floors through an elevator:
// old-floor claims are released, the motion controller is rebound, and the
// arrival tile is occupied. Fails when the arrival tile is claimed.
func (w *World) MoveAgentToFloor(a *Agent, floor int, arrival Tile) bool {
	if floor < 0 || floor >= len(w.floors) || floor == a.floor {
		return false
	}
	dst := w.floors[floor]
	if !dst.Ledger.IsAvailable(arrival, a.id) {
		return false
	}
	if src := w.FloorOf(a); src != nil {
		src.Ledger.ReleaseAll(a.id)
	}
	a.floor = floor
	a.pos = arrival.Center()
	a.motion.Destroy()
	a.motion.rebind(dst.Ledger, dst.Grid, dst.Oracle)
	dst.Ledger.Occupy(a.id, arrival)
	return true
}

// Step advances the world one tick: resolve queued path requests, cool the
// threat field, run squad coordination, then run every agent's behavior and
// motion in spawn order.
func (w *World) Step() {
	w.tick++
	for _, f := range w.floors {
		f.Oracle.Pump()
	}
	if w.threat != nil {
		w.threat.Decay()
	}
	for _, sq := range w.squads {
		sq.Tick(w.tick)
	}
	for _, id := range append([]AgentID(nil), w.order...) {
		a := w.agents[id]
		if a == nil || !a.alive {
			continue
		}
		if a.machine != nil {
			a.machine.Update()
		}
		a.motion.Tick()
	}
}

// think records a one-line trace for an agent, mirroring a unit voicing its
// reasoning in the sim log.
func (w *World) think(a *Agent, msg string) {
	w.Log.Add(w.tick, a.label, a.affil.String(), "think", "trace", msg, 0)
}
