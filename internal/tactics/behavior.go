package tactics

import "fmt"

// Behavior state names. The squad coordinator only ever inspects these
// strings, never state internals.
const (
	StatePatrol    = "patrol"
	StateGuard     = "guard"
	StateSearch    = "search"
	StateCombat    = "combat"
	StateSuppress  = "suppress"
	StateFlank     = "flank"
	StateSeekCover = "seek_cover"
)

// State is one behavior of the per-agent state machine. Implementations are
// a closed set; the coordinator addresses them by name only.
type State interface {
	Name() string
	Enter(a *Agent, w *World)
	Update(a *Agent, w *World)
	Exit(a *Agent, w *World)
}

// StateMachine runs one agent's behavior. Transitions release the agent's
// movement commands on exit, so a forced override never leaves a dangling
// reservation.
type StateMachine struct {
	agent *Agent
	world *World

	current State
}

// NewStateMachine starts the agent guarding its spawn position.
func NewStateMachine(a *Agent, w *World) *StateMachine {
	sm := &StateMachine{agent: a, world: w}
	sm.current = &GuardState{}
	sm.current.Enter(a, w)
	return sm
}

// Current returns the active state.
func (sm *StateMachine) Current() State { return sm.current }

// Transition switches to next, running Exit and Enter hooks.
func (sm *StateMachine) Transition(next State) {
	if sm.current != nil {
		sm.current.Exit(sm.agent, sm.world)
	}
	// Movement commands never survive a state change.
	sm.agent.motion.Interrupt()
	old := ""
	if sm.current != nil {
		old = sm.current.Name()
	}
	sm.current = next
	sm.world.Log.Add(sm.world.tick, sm.agent.label, sm.agent.affil.String(),
		"state", "change", fmt.Sprintf("%s -> %s", old, next.Name()), 0)
	next.Enter(sm.agent, sm.world)
}

// Force overrides the active state unconditionally. Used for flank events and
// suppress commands.
func (sm *StateMachine) Force(next State) {
	sm.Transition(next)
}

// Update runs one tick of the active state.
func (sm *StateMachine) Update() {
	if sm.current != nil {
		sm.current.Update(sm.agent, sm.world)
	}
}

// nearestPerceivedHostile returns the closest living remembered hostile, or
// nil.
func nearestPerceivedHostile(a *Agent, w *World) *Agent {
	var best *Agent
	bestD := 0.0
	for _, c := range a.perception.PerceivedHostiles() {
		h := w.Agent(c.Target)
		if h == nil || !h.alive || h.floor != a.floor {
			continue
		}
		d := Dist(a.pos, h.pos)
		if best == nil || d < bestD {
			best = h
			bestD = d
		}
	}
	return best
}

// --- Guard ---

// GuardState holds a post and watches for contacts.
type GuardState struct {
	post Tile
}

func (s *GuardState) Name() string { return StateGuard }

func (s *GuardState) Enter(a *Agent, w *World) {
	s.post = TileOf(a.pos)
}

func (s *GuardState) Update(a *Agent, w *World) {
	if h := nearestPerceivedHostile(a, w); h != nil {
		a.machine.Transition(&CombatState{target: h.id})
		return
	}
	// Drift back to post if displaced.
	if TileOf(a.pos) != s.post && a.motion.State() == MotionIdle {
		a.motion.MoveTo(s.post)
	}
}

func (s *GuardState) Exit(a *Agent, w *World) {}

// --- Patrol ---

// elevatorPhase is the nested cross-floor sub-phase of a patrol leg.
type elevatorPhase int

const (
	elevNone elevatorPhase = iota
	elevGoingToElevator
	elevWaitingAtElevator
	elevGoingToDestination
)

// PatrolPoint is one stop on a patrol route, possibly on another floor.
type PatrolPoint struct {
	Floor int
	Tile  Tile
}

// PatrolState walks a fixed route, riding elevators between floors. An
// unreachable leg is retried a bounded number of times, then the route
// advances past it.
type PatrolState struct {
	Route []PatrolPoint

	idx       int
	phase     elevatorPhase
	waitUntil int
	retries   int
}

func (s *PatrolState) Name() string { return StatePatrol }

func (s *PatrolState) Enter(a *Agent, w *World) {
	s.phase = elevNone
	s.retries = 0
}

func (s *PatrolState) Update(a *Agent, w *World) {
	if h := nearestPerceivedHostile(a, w); h != nil {
		a.machine.Transition(&CombatState{target: h.id})
		return
	}
	if len(s.Route) == 0 {
		a.machine.Transition(&GuardState{})
		return
	}
	dest := s.Route[s.idx%len(s.Route)]

	if dest.Floor != a.floor {
		s.updateCrossFloor(a, w, dest)
		return
	}
	s.phase = elevNone
	s.moveLeg(a, w, dest.Tile, func() {
		s.idx++
		s.retries = 0
	})
}

// updateCrossFloor runs the elevator sub-phase machine for a leg on another
// floor.
func (s *PatrolState) updateCrossFloor(a *Agent, w *World, dest PatrolPoint) {
	f := w.FloorOf(a)
	if f == nil || len(f.Elevators) == 0 || dest.Floor < 0 || dest.Floor >= len(w.floors) {
		// No transit available: skip this leg.
		s.reroute(a, w, "no elevator route")
		return
	}
	switch s.phase {
	case elevNone:
		s.phase = elevGoingToElevator
		fallthrough
	case elevGoingToElevator:
		elev := nearestElevator(f, a.pos)
		s.moveLeg(a, w, elev, func() {
			s.phase = elevWaitingAtElevator
			s.waitUntil = w.tick + w.tuning.ElevatorWaitTicks
		})
	case elevWaitingAtElevator:
		if w.tick < s.waitUntil {
			return
		}
		target := w.floors[dest.Floor]
		if target == nil || len(target.Elevators) == 0 {
			s.reroute(a, w, "no elevator on destination floor")
			return
		}
		arrival := nearestElevator(target, dest.Tile.Center())
		if !w.MoveAgentToFloor(a, dest.Floor, arrival) {
			// Arrival tile contested: wait a little and try again.
			s.waitUntil = w.tick + w.tuning.ElevatorWaitTicks/2
			return
		}
		s.phase = elevGoingToDestination
	case elevGoingToDestination:
		s.moveLeg(a, w, dest.Tile, func() {
			s.phase = elevNone
			s.idx++
			s.retries = 0
		})
	}
}

// moveLeg drives one movement leg and invokes arrived when it completes.
// Failed or rejected moves count against the bounded retry budget.
func (s *PatrolState) moveLeg(a *Agent, w *World, dest Tile, arrived func()) {
	if TileOf(a.pos) == dest {
		arrived()
		return
	}
	switch a.motion.State() {
	case MotionArrived:
		arrived()
	case MotionFailed:
		s.retries++
		if s.retries > w.tuning.PatrolMaxRetries {
			s.reroute(a, w, "destination unreachable")
		}
	case MotionIdle:
		a.motion.MoveTo(dest)
	}
}

// reroute abandons the current leg after exhausted retries and advances to
// the next route point.
func (s *PatrolState) reroute(a *Agent, w *World, reason string) {
	w.think(a, "patrol reroute: "+reason)
	s.idx++
	s.retries = 0
	s.phase = elevNone
}

func (s *PatrolState) Exit(a *Agent, w *World) {}

func nearestElevator(f *Floor, from Vec2) Tile {
	best := f.Elevators[0]
	bestD := Dist(from, best.Center())
	for _, e := range f.Elevators[1:] {
		if d := Dist(from, e.Center()); d < bestD {
			best = e
			bestD = d
		}
	}
	return best
}

// --- Search ---

// SearchState sweeps a bounded number of points around a last-known position
// and gives up after a timeout.
type SearchState struct {
	Around Vec2

	points   []Tile
	idx      int
	deadline int
}

func (s *SearchState) Name() string { return StateSearch }

func (s *SearchState) Enter(a *Agent, w *World) {
	s.deadline = w.tick + w.tuning.SearchTimeoutTicks
	f := w.FloorOf(a)
	center := TileOf(s.Around)
	offsets := [][2]int{{2, 0}, {0, 2}, {-2, 0}, {0, -2}, {3, 3}, {-3, -3}, {3, -3}, {-3, 3}}
	for _, off := range offsets {
		if len(s.points) >= w.tuning.SearchMaxPoints {
			break
		}
		t := Tile{X: center.X + off[0], Y: center.Y + off[1]}
		if f != nil && !f.Grid.IsWalkable(t) {
			continue
		}
		s.points = append(s.points, t)
	}
}

func (s *SearchState) Update(a *Agent, w *World) {
	if h := nearestPerceivedHostile(a, w); h != nil {
		a.machine.Transition(&CombatState{target: h.id})
		return
	}
	if w.tick >= s.deadline || s.idx >= len(s.points) {
		a.machine.Transition(&GuardState{})
		return
	}
	dest := s.points[s.idx]
	switch a.motion.State() {
	case MotionArrived:
		s.idx++
	case MotionFailed:
		s.idx++ // unreachable point: move on, the sweep is best-effort
	case MotionIdle:
		if TileOf(a.pos) == dest {
			s.idx++
			return
		}
		a.motion.MoveTo(dest)
	}
}

func (s *SearchState) Exit(a *Agent, w *World) {}

// --- Combat ---

// CombatState engages a known hostile from the current position, breaking
// for cover when fire concentrates on the agent.
type CombatState struct {
	target AgentID
}

func (s *CombatState) Name() string { return StateCombat }

func (s *CombatState) Enter(a *Agent, w *World) {}

func (s *CombatState) Update(a *Agent, w *World) {
	tgt := w.Agent(s.target)
	if tgt == nil || !tgt.alive {
		if next := nearestPerceivedHostile(a, w); next != nil {
			s.target = next.id
			return
		}
		around := a.pos
		if tgt != nil {
			around = tgt.pos
		}
		a.machine.Transition(&SearchState{Around: around})
		return
	}
	if w.threat != nil && w.threat.PersonalThreat(a.id) > w.tuning.SuppressThreatMax {
		// Break contact only if there is somewhere to break to.
		if f := w.FloorOf(a); f != nil && f.Cover != nil {
			if _, ok := f.Cover.BestCoverNear(a.pos, tgt.pos, tileSize*8, a.id); ok {
				a.machine.Transition(&SeekCoverState{ThreatPos: tgt.pos})
				return
			}
		}
	}
}

func (s *CombatState) Exit(a *Agent, w *World) {}

// --- Suppress ---

// SuppressState directs sustained fire at one hostile to deny it effective
// action. Entered only by squad command.
type SuppressState struct {
	target AgentID
}

func (s *SuppressState) Name() string { return StateSuppress }

// Target returns the hostile under suppression.
func (s *SuppressState) Target() AgentID { return s.target }

func (s *SuppressState) Enter(a *Agent, w *World) {
	w.think(a, fmt.Sprintf("suppressing %d", int(s.target)))
}

func (s *SuppressState) Update(a *Agent, w *World) {
	tgt := w.Agent(s.target)
	if tgt == nil || !tgt.alive {
		a.machine.Transition(&CombatState{target: 0})
		return
	}
	// Hold position and keep fire on the target; the shot itself belongs to
	// the weapon layer.
}

func (s *SuppressState) Exit(a *Agent, w *World) {}

// --- Flank ---

// FlankState repositions for a shot on the target's exposed side. A flank
// event forcibly overrides whatever state is active.
type FlankState struct {
	target AgentID

	dest     Tile
	planned  bool
	planning bool
}

// NewFlankState builds a flank against the given hostile.
func NewFlankState(target AgentID) *FlankState {
	return &FlankState{target: target}
}

func (s *FlankState) Name() string { return StateFlank }

func (s *FlankState) Enter(a *Agent, w *World) {}

func (s *FlankState) Update(a *Agent, w *World) {
	tgt := w.Agent(s.target)
	if tgt == nil || !tgt.alive {
		a.machine.Transition(&GuardState{})
		return
	}
	if !s.planned {
		if !s.planning {
			s.planning = true
			s.plan(a, w, tgt)
		}
		return
	}
	switch a.motion.State() {
	case MotionArrived:
		a.machine.Transition(&CombatState{target: s.target})
	case MotionFailed:
		// Flank route collapsed: fall back to a straight fight.
		a.machine.Transition(&CombatState{target: s.target})
	case MotionIdle:
		if TileOf(a.pos) == s.dest {
			a.machine.Transition(&CombatState{target: s.target})
			return
		}
		a.motion.MoveTo(s.dest)
	}
}

// plan scores candidate tiles on the target's flanks and picks the best one.
func (s *FlankState) plan(a *Agent, w *World, tgt *Agent) {
	f := w.FloorOf(a)
	if f == nil {
		a.machine.Transition(&CombatState{target: s.target})
		return
	}
	lateral := Vec2{X: -(tgt.pos.Y - a.pos.Y), Y: tgt.pos.X - a.pos.X}.Normalized()
	var candidates []Tile
	for _, side := range []float64{1, -1} {
		for _, r := range []float64{tileSize * 4, tileSize * 7} {
			t := TileOf(tgt.pos.Add(lateral.Scale(side * r)))
			if f.Grid.IsWalkable(t) && f.Ledger.IsAvailable(t, a.id) {
				candidates = append(candidates, t)
			}
		}
	}
	tp := tgt.pos
	w.Scorer(a.floor).ScoreDestinations(a.pos, candidates, &tp, a.affil, func(scored []TileScore) {
		s.planning = false
		if a.machine.Current() != s {
			return // overridden while the batch was in flight
		}
		for _, ts := range scored {
			if ts.Path.Valid {
				s.dest = ts.Tile
				s.planned = true
				return
			}
		}
		a.machine.Transition(&CombatState{target: s.target})
	})
}

func (s *FlankState) Exit(a *Agent, w *World) {}

// --- SeekCover ---

// SeekCoverState moves to the best reachable cover against a threat position,
// then resumes fighting from it.
type SeekCoverState struct {
	ThreatPos Vec2

	dest  Tile
	going bool
}

func (s *SeekCoverState) Name() string { return StateSeekCover }

func (s *SeekCoverState) Enter(a *Agent, w *World) {
	f := w.FloorOf(a)
	if f == nil || f.Cover == nil {
		return
	}
	if t, ok := f.Cover.BestCoverNear(a.pos, s.ThreatPos, tileSize*8, a.id); ok {
		s.dest = t
		s.going = true
	}
}

func (s *SeekCoverState) Update(a *Agent, w *World) {
	if !s.going {
		// No usable cover anywhere nearby: stand and fight.
		if h := nearestPerceivedHostile(a, w); h != nil {
			a.machine.Transition(&CombatState{target: h.id})
		} else {
			a.machine.Transition(&GuardState{})
		}
		return
	}
	switch a.motion.State() {
	case MotionArrived:
		s.resume(a, w)
	case MotionFailed:
		s.going = false
	case MotionIdle:
		if TileOf(a.pos) == s.dest {
			s.resume(a, w)
			return
		}
		a.motion.MoveTo(s.dest)
	}
}

func (s *SeekCoverState) resume(a *Agent, w *World) {
	if w.threat != nil && w.threat.PersonalThreat(a.id) > w.tuning.SuppressThreatMax {
		return // hold behind cover until the incoming fire slackens
	}
	if h := nearestPerceivedHostile(a, w); h != nil {
		a.machine.Transition(&CombatState{target: h.id})
		return
	}
	a.machine.Transition(&GuardState{})
}

func (s *SeekCoverState) Exit(a *Agent, w *World) {}
