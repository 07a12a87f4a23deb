package tactics

import "testing"

// motionRig is a minimal single-agent setup for driving a MotionController
// directly, without the full world tick.
type motionRig struct {
	agent  *Agent
	ledger *OccupancyLedger
	grid   *NavGrid
	oracle *GridPathOracle
	tuning Tuning
	tick   int
}

func newMotionRig(obstacles []rect, start Tile) *motionRig {
	r := &motionRig{
		ledger: NewOccupancyLedger(),
		grid:   NewNavGrid(320, 320, obstacles, 6),
		tuning: DefaultTuning(),
	}
	r.oracle = NewGridPathOracle(r.grid, 8)
	r.agent = &Agent{
		id:         1,
		label:      "R1",
		affil:      AffilRed,
		pos:        start.Center(),
		health:     agentMaxHealth,
		attr:       DefaultAttributes(),
		perception: NewPerception(),
		alive:      true,
	}
	r.agent.motion = NewMotionController(r.agent, r.ledger, r.grid, r.oracle, &r.tuning, &r.tick)
	r.ledger.Occupy(r.agent.id, start)
	return r
}

// step advances one simulated tick: pump the oracle, then tick the controller.
func (r *motionRig) step() {
	r.tick++
	r.oracle.Pump()
	r.agent.motion.Tick()
}

func TestMotionArrivalSnapsAndOccupies(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion
	dest := Tile{X: 5, Y: 2}

	if !m.MoveTo(dest) {
		t.Fatal("MoveTo to a free walkable tile should be accepted")
	}
	if m.State() != MotionRequesting {
		t.Fatalf("expected requesting, got %v", m.State())
	}
	if got, _ := r.ledger.ReservedTile(1); got != dest {
		t.Fatalf("destination should be reserved before the path resolves, got %v", got)
	}

	arrived := false
	for i := 0; i < 1000; i++ {
		r.step()
		if m.State() == MotionArrived {
			arrived = true
			break
		}
	}
	if !arrived {
		t.Fatal("agent never arrived")
	}
	if r.agent.pos != dest.Center() {
		t.Fatalf("arrival should snap to the tile center, got %v", r.agent.pos)
	}
	if got, _ := r.ledger.OccupiedTile(1); got != dest {
		t.Fatalf("arrival should occupy the destination, got %v", got)
	}
	if _, ok := r.ledger.ReservedTile(1); ok {
		t.Fatal("arrival should clear the reservation")
	}

	// Arrived is a one-tick terminal state.
	m.Tick()
	if m.State() != MotionIdle {
		t.Fatalf("expected idle after arrival tick, got %v", m.State())
	}
}

func TestMotionRejectsWhileInFlight(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion

	if !m.MoveTo(Tile{X: 5, Y: 2}) {
		t.Fatal("first MoveTo should be accepted")
	}
	if m.MoveTo(Tile{X: 6, Y: 2}) {
		t.Fatal("MoveTo must be dropped while a request is in flight")
	}
}

func TestMotionCooldownDropsRapidRequests(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion

	if !m.MoveTo(Tile{X: 5, Y: 2}) {
		t.Fatal("first MoveTo should be accepted")
	}
	m.Stop()
	if m.State() != MotionIdle {
		t.Fatalf("expected idle after stop, got %v", m.State())
	}
	if m.MoveTo(Tile{X: 6, Y: 2}) {
		t.Fatal("MoveTo inside the cooldown window must be dropped")
	}
	r.tick += r.tuning.PathCooldownTicks
	if !m.MoveTo(Tile{X: 6, Y: 2}) {
		t.Fatal("MoveTo after the cooldown should be accepted")
	}
}

func TestMotionUnreachableDestinationFails(t *testing.T) {
	// A full-height wall splits the map.
	wall := []rect{{x: 96, y: 0, w: 32, h: 320}}
	r := newMotionRig(wall, Tile{X: 2, Y: 2})
	m := r.agent.motion
	dest := Tile{X: 15, Y: 2}

	if !m.MoveTo(dest) {
		t.Fatal("the destination tile itself is walkable, so the request should queue")
	}
	r.tick++
	r.oracle.Pump()
	if m.State() != MotionFailed {
		t.Fatalf("expected failed after an invalid path result, got %v", m.State())
	}
	if _, ok := r.ledger.ReservedTile(1); ok {
		t.Fatal("failed path must release the reservation")
	}

	m.Tick()
	if m.State() != MotionIdle {
		t.Fatalf("expected idle after failure tick, got %v", m.State())
	}
}

func TestMotionRejectsClaimedTile(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion
	dest := Tile{X: 5, Y: 2}
	r.ledger.Reserve(99, dest)

	if m.MoveTo(dest) {
		t.Fatal("MoveTo to a tile reserved by another agent must be rejected")
	}
	if m.State() != MotionIdle {
		t.Fatalf("rejected MoveTo must leave state untouched, got %v", m.State())
	}
}

func TestMotionStaleCallbackIgnored(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion

	if !m.MoveTo(Tile{X: 5, Y: 2}) {
		t.Fatal("MoveTo should be accepted")
	}
	// Stop before the oracle resolves: the pending callback is now stale.
	m.Stop()
	if _, ok := r.ledger.ReservedTile(1); ok {
		t.Fatal("stop must release the reservation synchronously")
	}

	r.tick++
	r.oracle.Pump()
	if m.State() != MotionIdle {
		t.Fatalf("stale path result must not restart movement, got %v", m.State())
	}
	if got, _ := r.ledger.OccupiedTile(1); got != (Tile{X: 2, Y: 2}) {
		t.Fatalf("agent should still hold its standing tile, got %v", got)
	}
}

func TestMotionStopMidMoveKeepsHardClaim(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion

	if !m.MoveTo(Tile{X: 8, Y: 2}) {
		t.Fatal("MoveTo should be accepted")
	}
	r.step()
	if m.State() != MotionMoving {
		t.Fatalf("expected moving after the path resolved, got %v", m.State())
	}
	for i := 0; i < 20; i++ {
		r.step()
	}

	m.StopAtNearestTile()
	// Whatever tile the stop chose, the ledger must hold exactly the agent's
	// standing claim and at most a reservation matching the active dest.
	if m.State() == MotionIdle {
		if got, ok := r.ledger.OccupiedTile(1); !ok || got != TileOf(r.agent.pos) {
			t.Fatalf("stopped agent should occupy its standing tile, got %v", got)
		}
		if _, ok := r.ledger.ReservedTile(1); ok {
			t.Fatal("stopped agent should hold no reservation")
		}
		return
	}
	// Redirected to an adjacent tile: it must finish there.
	for i := 0; i < 200; i++ {
		r.step()
		if m.State() == MotionArrived {
			break
		}
	}
	if got, _ := r.ledger.OccupiedTile(1); got != TileOf(r.agent.pos) {
		t.Fatalf("redirected stop should end occupying the standing tile, got %v", got)
	}
}

func TestMotionInterruptDuringRequestReleasesReservation(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion

	if !m.MoveTo(Tile{X: 5, Y: 2}) {
		t.Fatal("MoveTo should be accepted")
	}
	m.Interrupt()
	if m.State() != MotionIdle {
		t.Fatalf("interrupt during request should return to idle, got %v", m.State())
	}
	if _, ok := r.ledger.ReservedTile(1); ok {
		t.Fatal("interrupt must release the pending reservation")
	}
}

func TestMotionDestroyReleasesEverything(t *testing.T) {
	r := newMotionRig(nil, Tile{X: 2, Y: 2})
	m := r.agent.motion
	m.MoveTo(Tile{X: 5, Y: 2})

	m.Destroy()
	if _, ok := r.ledger.OccupiedTile(1); ok {
		t.Fatal("destroy must release the occupancy")
	}
	if _, ok := r.ledger.ReservedTile(1); ok {
		t.Fatal("destroy must release the reservation")
	}
	r.tick++
	r.oracle.Pump()
	if m.State() != MotionIdle {
		t.Fatalf("late callback after destroy must be ignored, got %v", m.State())
	}
}
