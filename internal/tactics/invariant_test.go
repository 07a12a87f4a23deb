package tactics

import (
	"fmt"
	"testing"
)

// checkLedger verifies the structural invariants of one floor's ledger: the
// forward and reverse indexes agree, and no agent holds more than one
// occupancy or reservation.
func checkLedger(t *testing.T, label string, l *OccupancyLedger) {
	t.Helper()
	for tile, agent := range l.occupant {
		if back, ok := l.occupiedBy[agent]; !ok || back != tile {
			t.Fatalf("%s: occupant index out of sync for agent %d at %v", label, int(agent), tile)
		}
	}
	for agent, tile := range l.occupiedBy {
		if l.occupant[tile] != agent {
			t.Fatalf("%s: reverse occupancy out of sync for agent %d at %v", label, int(agent), tile)
		}
	}
	for tile, agent := range l.reservation {
		if back, ok := l.reservedBy[agent]; !ok || back != tile {
			t.Fatalf("%s: reservation index out of sync for agent %d at %v", label, int(agent), tile)
		}
	}
	for agent, tile := range l.reservedBy {
		if l.reservation[tile] != agent {
			t.Fatalf("%s: reverse reservation out of sync for agent %d at %v", label, int(agent), tile)
		}
	}
}

// checkNoDoubleStanding verifies no two living agents share a tile claim.
func checkNoDoubleStanding(t *testing.T, ts *TestSim) {
	t.Helper()
	for fi, f := range ts.World.Floors() {
		checkLedger(t, fmt.Sprintf("floor %d", fi), f.Ledger)
	}
	for _, a := range ts.World.Agents() {
		if !a.Alive() {
			continue
		}
		f := ts.World.FloorOf(a)
		occ, ok := f.Ledger.OccupiedTile(a.ID())
		if !ok {
			t.Fatalf("living agent %s holds no occupancy at T=%d\n%s",
				a.Label(), ts.World.Tick(), ts.Snapshot())
		}
		if holder, _ := f.Ledger.OccupantOf(occ); holder != a.ID() {
			t.Fatalf("occupancy of %s stolen by %d", a.Label(), int(holder))
		}
	}
}

func TestLedgerInvariantsUnderContestedMovement(t *testing.T) {
	ts := NewTestSim(
		WithSeed(3),
		WithMapSize(640, 640),
		WithObstacle(0, 288, 160, 32, 320),
		WithRedAgent(0, 60, 60),
		WithRedAgent(1, 60, 120),
		WithRedAgent(2, 60, 180),
		WithBlueAgent(10, 560, 60),
		WithBlueAgent(11, 560, 120),
	)
	// Everyone patrols through the same choke point.
	waypointsRed := []PatrolPoint{
		{Floor: 0, Tile: Tile{X: 30, Y: 20}},
		{Floor: 0, Tile: Tile{X: 4, Y: 20}},
	}
	waypointsBlue := []PatrolPoint{
		{Floor: 0, Tile: Tile{X: 4, Y: 20}},
		{Floor: 0, Tile: Tile{X: 30, Y: 20}},
	}
	for i := 0; i <= 2; i++ {
		ts.Agent(i).machine.Force(&PatrolState{Route: waypointsRed})
	}
	ts.Agent(10).machine.Force(&PatrolState{Route: waypointsBlue})
	ts.Agent(11).machine.Force(&PatrolState{Route: waypointsBlue})

	for i := 0; i < 600; i++ {
		ts.RunTicks(1)
		checkNoDoubleStanding(t, ts)
	}
}

func TestTwoAgentsCannotClaimSameTile(t *testing.T) {
	ts := NewTestSim(
		WithSeed(3),
		WithRedAgent(0, 60, 60),
		WithRedAgent(1, 60, 120),
	)
	dest := Tile{X: 10, Y: 6}
	if !ts.Agent(0).Motion().MoveTo(dest) {
		t.Fatal("first claim should be accepted")
	}
	if ts.Agent(1).Motion().MoveTo(dest) {
		t.Fatal("second claim on the same tile must be rejected")
	}
}

func TestDestroyMidMoveLeavesNoOrphanClaims(t *testing.T) {
	ts := NewTestSim(
		WithSeed(3),
		WithRedAgent(0, 60, 60),
	)
	a := ts.Agent(0)
	id := a.ID()
	a.Motion().MoveTo(Tile{X: 12, Y: 12})
	ts.RunTicks(5) // mid-move

	ts.World.Destroy(id)
	for fi, f := range ts.World.Floors() {
		if _, ok := f.Ledger.OccupiedTile(id); ok {
			t.Fatalf("floor %d: destroyed agent still occupies a tile", fi)
		}
		if _, ok := f.Ledger.ReservedTile(id); ok {
			t.Fatalf("floor %d: destroyed agent still reserves a tile", fi)
		}
	}
	// Late path callbacks for the destroyed agent must be harmless.
	ts.RunTicks(3)
	if ts.World.Agent(id) != nil {
		t.Fatal("destroyed agent should be gone from the arena")
	}
}
