package tactics

import "testing"

func TestLedgerReserveMutualExclusion(t *testing.T) {
	l := NewOccupancyLedger()
	tile := Tile{X: 2, Y: 3}

	if !l.Reserve(1, tile) {
		t.Fatal("first reservation should succeed")
	}
	if l.Reserve(2, tile) {
		t.Fatal("second agent must not reserve an already-reserved tile")
	}
	if !l.Occupy(1, tile) {
		t.Fatal("reserving agent should be able to occupy its own reservation")
	}
	if _, ok := l.ReservedTile(1); ok {
		t.Fatal("occupying must clear the agent's reservation")
	}
	if l.Reserve(2, tile) {
		t.Fatal("occupied tile must not be reservable by another agent")
	}
	if l.Occupy(2, tile) {
		t.Fatal("occupied tile must not be occupiable by another agent")
	}
}

func TestLedgerOccupyReleasesPreviousOccupancy(t *testing.T) {
	l := NewOccupancyLedger()
	a := Tile{X: 1, Y: 1}
	b := Tile{X: 2, Y: 1}

	l.Occupy(1, a)
	if !l.Occupy(1, b) {
		t.Fatal("moving to a free tile should succeed")
	}
	if !l.IsAvailable(a, 0) {
		t.Fatal("previous tile should be free after the agent moved on")
	}
	if got, _ := l.OccupiedTile(1); got != b {
		t.Fatalf("expected occupancy at %v, got %v", b, got)
	}
}

func TestLedgerReserveReplacesPreviousReservation(t *testing.T) {
	l := NewOccupancyLedger()
	a := Tile{X: 4, Y: 4}
	b := Tile{X: 5, Y: 4}

	l.Reserve(1, a)
	if !l.Reserve(1, b) {
		t.Fatal("re-reserving should succeed")
	}
	if !l.IsAvailable(a, 0) {
		t.Fatal("old reservation should be released when a new one is taken")
	}
	if got, _ := l.ReservedTile(1); got != b {
		t.Fatalf("expected reservation at %v, got %v", b, got)
	}
}

func TestLedgerIsAvailableExcluding(t *testing.T) {
	l := NewOccupancyLedger()
	tile := Tile{X: 7, Y: 7}
	l.Reserve(3, tile)

	if l.IsAvailable(tile, 0) {
		t.Fatal("reserved tile should not be available to nobody-in-particular")
	}
	if !l.IsAvailable(tile, 3) {
		t.Fatal("reserved tile should be available to its own reserver")
	}
}

func TestLedgerReleaseAll(t *testing.T) {
	l := NewOccupancyLedger()
	l.Occupy(1, Tile{X: 1, Y: 1})
	l.Reserve(1, Tile{X: 2, Y: 1})

	l.ReleaseAll(1)
	if _, ok := l.OccupiedTile(1); ok {
		t.Fatal("occupancy should be gone after ReleaseAll")
	}
	if _, ok := l.ReservedTile(1); ok {
		t.Fatal("reservation should be gone after ReleaseAll")
	}
	if !l.IsAvailable(Tile{X: 1, Y: 1}, 0) || !l.IsAvailable(Tile{X: 2, Y: 1}, 0) {
		t.Fatal("both tiles should be free after ReleaseAll")
	}
}

func TestLedgerOperationsAreIdempotent(t *testing.T) {
	l := NewOccupancyLedger()
	tile := Tile{X: 3, Y: 3}

	if !l.Occupy(1, tile) || !l.Occupy(1, tile) {
		t.Fatal("re-occupying the same tile should succeed")
	}
	l.Release(1)
	l.Release(1)
	l.ClearReservation(1)
	if _, ok := l.OccupiedTile(1); ok {
		t.Fatal("agent should hold nothing after release")
	}
}
