package tactics

import "testing"

func TestSpawnOccupiesStartingTile(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithRedAgent(0, 100, 100))
	a := ts.Agent(0)
	f := ts.World.Floors()[0]

	if got, ok := f.Ledger.OccupiedTile(a.ID()); !ok || got != TileOf(a.Pos()) {
		t.Fatalf("spawn should occupy the starting tile, got %v", got)
	}
	if a.StateName() != StateGuard {
		t.Fatalf("spawned agents guard by default, got %q", a.StateName())
	}
}

func TestKillReleasesSoftClaimsKeepsCorpseTile(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithRedAgent(0, 100, 100))
	a := ts.Agent(0)
	f := ts.World.Floors()[0]
	a.Motion().MoveTo(Tile{X: 10, Y: 10})

	ts.World.Kill(a.ID())
	if _, ok := f.Ledger.ReservedTile(a.ID()); ok {
		t.Fatal("kill must release the reservation")
	}
	if _, ok := f.Ledger.OccupiedTile(a.ID()); !ok {
		t.Fatal("the corpse keeps its occupancy")
	}
	if !ts.SimLog.HasEntry("agent", "killed", "") {
		t.Fatal("kill should be logged")
	}

	// Dead agents no longer tick.
	ts.RunTicks(5)
	if a.Alive() {
		t.Fatal("killed agent must stay dead")
	}
}

func TestStepOrderResolvesPathsBeforeAgents(t *testing.T) {
	ts := NewTestSim(WithSeed(1), WithRedAgent(0, 100, 100))
	a := ts.Agent(0)

	if !a.Motion().MoveTo(Tile{X: 10, Y: 6}) {
		t.Fatal("MoveTo should be accepted")
	}
	if a.Motion().State() != MotionRequesting {
		t.Fatal("request should be queued, not resolved inline")
	}
	ts.RunTicks(1)
	if a.Motion().State() != MotionMoving {
		t.Fatalf("the next step should deliver the path, got %v", a.Motion().State())
	}
}

func TestBuildReportCounts(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithRedAgent(0, 100, 100),
		WithRedAgent(1, 100, 160),
		WithBlueAgent(10, 300, 100),
		WithRedSquad(0, 1),
	)
	ts.World.Kill(ts.Agent(10).ID())

	r := BuildReport(ts.World)
	if r.RedAlive != 2 || r.BlueAlive != 0 || r.BlueDead != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	if len(r.Squads) != 1 || r.Squads[0].Alive != 2 {
		t.Fatalf("unexpected squad report: %+v", r.Squads)
	}
	if r.Format() == "" {
		t.Fatal("formatted report should not be empty")
	}
}
