package tactics

import "math"

// MotionState is the movement phase of one agent.
type MotionState int

const (
	MotionIdle MotionState = iota
	MotionRequesting
	MotionMoving
	MotionArrived
	MotionFailed
)

func (ms MotionState) String() string {
	switch ms {
	case MotionIdle:
		return "idle"
	case MotionRequesting:
		return "requesting"
	case MotionMoving:
		return "moving"
	case MotionArrived:
		return "arrived"
	case MotionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MotionController drives one agent across the tile grid. It owns the
// agent's ledger claims: a reservation is taken before any path request and
// an occupancy replaces it on arrival. Arrived and Failed are one-tick
// terminal states; the controller returns to Idle on the next tick.
type MotionController struct {
	agent  *Agent
	ledger *OccupancyLedger
	grid   *NavGrid
	oracle PathOracle
	tuning *Tuning
	tick   *int

	state     MotionState
	dest      Tile
	waypoints []Vec2
	wpIndex   int
	speed     float64

	nextRequestTick int
	seq             int // request identity; bumped on cancel so late callbacks are ignored
}

// NewMotionController wires a controller for one agent on one floor.
func NewMotionController(agent *Agent, ledger *OccupancyLedger, grid *NavGrid, oracle PathOracle, tuning *Tuning, tick *int) *MotionController {
	return &MotionController{
		agent:  agent,
		ledger: ledger,
		grid:   grid,
		oracle: oracle,
		tuning: tuning,
		tick:   tick,
	}
}

// State returns the current movement phase.
func (m *MotionController) State() MotionState { return m.state }

// Dest returns the tile of the active move, meaningful while Requesting or
// Moving.
func (m *MotionController) Dest() Tile { return m.dest }

// RemainingWaypoints returns the unconsumed waypoints of the active move, or
// nil when the agent is not moving. The slice is a copy.
func (m *MotionController) RemainingWaypoints() []Vec2 {
	if m.state != MotionMoving || m.wpIndex >= len(m.waypoints) {
		return nil
	}
	out := make([]Vec2, len(m.waypoints)-m.wpIndex)
	copy(out, m.waypoints[m.wpIndex:])
	return out
}

// MoveTo starts a move to the given tile. It returns false without side
// effects when the tile is unwalkable or claimed, when a move is already in
// flight, when the per-agent request cooldown has not elapsed, or when no
// path service is available. A false return is not an error; the caller picks
// another tile or retries on a later tick.
func (m *MotionController) MoveTo(tile Tile) bool {
	if m.state == MotionRequesting || m.state == MotionMoving {
		return false
	}
	if m.tick != nil && *m.tick < m.nextRequestTick {
		// Cooldown window: high-frequency callers are dropped, not failed.
		return false
	}
	if m.grid == nil || !m.grid.IsWalkable(tile) {
		return false
	}
	if m.ledger == nil || m.oracle == nil {
		return false
	}
	if !m.ledger.IsAvailable(tile, m.agent.id) {
		return false
	}
	if !m.ledger.Reserve(m.agent.id, tile) {
		return false
	}
	if m.tick != nil {
		m.nextRequestTick = *m.tick + m.tuning.PathCooldownTicks
	}
	m.seq++
	seq := m.seq
	if !m.oracle.RequestPath(m.agent.pos, tile.Center(), func(res PathResult) {
		m.onPath(seq, res)
	}) {
		m.ledger.ClearReservation(m.agent.id)
		return false
	}
	m.dest = tile
	m.state = MotionRequesting
	return true
}

// onPath receives a path callback. A result whose request identity no longer
// matches (the move was stopped, redirected, or the agent destroyed) is
// discarded; its reservation was already released at cancellation time.
func (m *MotionController) onPath(seq int, res PathResult) {
	if seq != m.seq || m.state != MotionRequesting {
		return
	}
	if !res.Valid || len(res.Waypoints) == 0 {
		m.ledger.ClearReservation(m.agent.id)
		m.waypoints = nil
		m.state = MotionFailed
		return
	}
	m.waypoints = res.Waypoints
	m.wpIndex = 0
	m.speed = 0
	m.state = MotionMoving
}

// mobilityRamp converts the agent's mobility attribute into an acceleration
// multiplier, bounded so extreme attributes never dominate.
func (m *MotionController) mobilityRamp() float64 {
	return clamp(0.75+m.agent.attr.Mobility*0.5, 0.75, 1.25)
}

// Tick advances movement by one simulation step.
func (m *MotionController) Tick() {
	switch m.state {
	case MotionArrived, MotionFailed:
		m.state = MotionIdle
		return
	case MotionMoving:
	default:
		return
	}

	m.speed = math.Min(m.tuning.MoveMaxSpeed, m.speed+m.tuning.MoveAccel*m.mobilityRamp())

	remaining := m.speed
	tol := m.tuning.ArrivalTolerance
	for remaining > 0 && m.wpIndex < len(m.waypoints) {
		wp := m.waypoints[m.wpIndex]
		d := Dist(m.agent.pos, wp)
		if d <= tol {
			m.wpIndex++
			continue
		}
		if d <= remaining {
			m.agent.pos = wp
			remaining -= d
			m.wpIndex++
		} else {
			dir := wp.Sub(m.agent.pos).Normalized()
			m.agent.pos = m.agent.pos.Add(dir.Scale(remaining))
			remaining = 0
		}
	}

	if m.wpIndex >= len(m.waypoints) && Dist(m.agent.pos, m.dest.Center()) <= tol {
		m.finishArrival()
	}
}

func (m *MotionController) finishArrival() {
	m.agent.pos = m.dest.Center()
	m.speed = 0
	m.waypoints = nil
	if !m.ledger.Occupy(m.agent.id, m.dest) {
		// The destination was occupied out from under the reservation.
		m.ledger.ClearReservation(m.agent.id)
		m.state = MotionFailed
		return
	}
	m.state = MotionArrived
}

// Stop halts immediately: zero velocity, path dropped, reservation released,
// and the nearest tile occupied so the agent keeps a hard claim where it
// stands.
func (m *MotionController) Stop() {
	m.seq++
	m.speed = 0
	m.waypoints = nil
	m.ledger.ClearReservation(m.agent.id)
	m.ledger.Occupy(m.agent.id, TileOf(m.agent.pos))
	m.state = MotionIdle
}

// StopAtNearestTile interrupts a move without parking the agent off-grid: it
// redirects to whichever is closer of the current tile's center and the next
// waypoint's tile center, then finishes the stop there.
func (m *MotionController) StopAtNearestTile() {
	if m.state != MotionMoving || m.wpIndex >= len(m.waypoints) {
		if m.state == MotionRequesting {
			m.cancelRequest()
		}
		m.Stop()
		return
	}
	here := TileOf(m.agent.pos)
	next := TileOf(m.waypoints[m.wpIndex])
	if Dist(m.agent.pos, next.Center()) >= Dist(m.agent.pos, here.Center()) {
		m.Stop()
		return
	}
	m.seq++
	m.ledger.ClearReservation(m.agent.id)
	if !m.ledger.Reserve(m.agent.id, next) {
		m.Stop()
		return
	}
	m.dest = next
	m.waypoints = []Vec2{next.Center()}
	m.wpIndex = 0
}

// cancelRequest abandons an in-flight path request, releasing the reservation
// now rather than waiting for the late callback (which will be ignored).
func (m *MotionController) cancelRequest() {
	m.seq++
	m.ledger.ClearReservation(m.agent.id)
	m.state = MotionIdle
}

// Interrupt releases the agent's movement commands. Used whenever a behavior
// state exits so a forced override never leaves a dangling reservation.
func (m *MotionController) Interrupt() {
	switch m.state {
	case MotionRequesting:
		m.cancelRequest()
	case MotionMoving:
		m.StopAtNearestTile()
	}
}

// Destroy releases every ledger claim regardless of state. Pending callbacks
// are invalidated.
func (m *MotionController) Destroy() {
	m.seq++
	m.speed = 0
	m.waypoints = nil
	m.ledger.ReleaseAll(m.agent.id)
	m.state = MotionIdle
}

// rebind points the controller at a different floor's grid, ledger, and path
// oracle, used for elevator transits. Any claims on the old floor must be
// released first.
func (m *MotionController) rebind(ledger *OccupancyLedger, grid *NavGrid, oracle PathOracle) {
	m.ledger = ledger
	m.grid = grid
	m.oracle = oracle
}
