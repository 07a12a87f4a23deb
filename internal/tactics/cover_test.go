package tactics

import "testing"

func TestCoverInfoAtRequiresInterposition(t *testing.T) {
	cf := NewCoverField(nil, nil, nil, nil)
	cf.AddCover(Tile{X: 5, Y: 4}, CoverFull)
	pos := Tile{X: 5, Y: 5}.Center()

	// Threat to the north: the cover sits between.
	north := Vec2{X: 0, Y: -1}
	if s := cf.CoverInfoAt(pos, north); !s.HasCover || s.Kind != CoverFull {
		t.Fatalf("expected full cover against a northern threat, got %+v", s)
	}

	// Threat to the south: the cover is behind the agent.
	south := Vec2{X: 0, Y: 1}
	if s := cf.CoverInfoAt(pos, south); s.HasCover {
		t.Fatalf("cover behind the agent must not count, got %+v", s)
	}
}

func TestCoverInfoAtRange(t *testing.T) {
	cf := NewCoverField(nil, nil, nil, nil)
	cf.AddCover(Tile{X: 5, Y: 1}, CoverHalf)
	pos := Tile{X: 5, Y: 5}.Center() // four tiles away, beyond use range

	if s := cf.CoverInfoAt(pos, Vec2{X: 0, Y: -1}); s.HasCover {
		t.Fatalf("distant cover must not shield, got %+v", s)
	}
}

func TestCoverInfoAtPrefersBetterCover(t *testing.T) {
	cf := NewCoverField(nil, nil, nil, nil)
	cf.AddCover(Tile{X: 5, Y: 4}, CoverHalf)
	cf.AddCover(Tile{X: 4, Y: 4}, CoverFull)
	pos := Tile{X: 5, Y: 5}.Center()

	s := cf.CoverInfoAt(pos, Vec2{X: -0.5, Y: -1}.Normalized())
	if !s.HasCover || s.Kind != CoverFull {
		t.Fatalf("expected the full cover to win, got %+v", s)
	}
}

func TestBestCoverNearStandsBehindCover(t *testing.T) {
	grid := NewNavGrid(320, 320, nil, 6)
	ledger := NewOccupancyLedger()
	cf := NewCoverField(nil, nil, grid, ledger)
	cover := Tile{X: 8, Y: 5}
	cf.AddCover(cover, CoverFull)

	from := Tile{X: 5, Y: 5}.Center()
	threat := Tile{X: 14, Y: 5}.Center() // threat east of the cover

	stand, ok := cf.BestCoverNear(from, threat, tileSize*8, 0)
	if !ok {
		t.Fatal("expected usable cover")
	}
	if stand.X >= cover.X {
		t.Fatalf("stand tile %v should be west of the cover %v, away from the threat", stand, cover)
	}
}

func TestBestCoverNearSkipsClaimedTiles(t *testing.T) {
	grid := NewNavGrid(320, 320, nil, 6)
	ledger := NewOccupancyLedger()
	cf := NewCoverField(nil, nil, grid, ledger)
	cover := Tile{X: 8, Y: 5}
	cf.AddCover(cover, CoverFull)

	from := Tile{X: 5, Y: 5}.Center()
	threat := Tile{X: 14, Y: 5}.Center()
	stand, ok := cf.BestCoverNear(from, threat, tileSize*8, 0)
	if !ok {
		t.Fatal("expected usable cover")
	}

	// Another agent claims the stand tile; the query must no longer offer it.
	ledger.Occupy(42, stand)
	if _, ok := cf.BestCoverNear(from, threat, tileSize*8, 7); ok {
		t.Fatal("claimed stand tile must disqualify the cover")
	}
	// The claiming agent itself is excluded from the filter.
	if _, ok := cf.BestCoverNear(from, threat, tileSize*8, 42); !ok {
		t.Fatal("the claim holder should still see its own tile as usable")
	}
}

func TestLineOfSightBlockedByFullCoverOnly(t *testing.T) {
	cf := NewCoverField(nil, nil, nil, nil)
	a := Tile{X: 2, Y: 5}.Center()
	b := Tile{X: 12, Y: 5}.Center()

	cf.AddCover(Tile{X: 7, Y: 5}, CoverHalf)
	if !cf.LineOfSight(a, b) {
		t.Fatal("half cover must not block line of sight")
	}
	cf.AddCover(Tile{X: 7, Y: 5}, CoverFull)
	if cf.LineOfSight(a, b) {
		t.Fatal("full cover must block line of sight")
	}
}

func TestLineOfSightBlockedByObstacles(t *testing.T) {
	wall := []rect{{x: 96, y: 64, w: 16, h: 32}}
	cf := NewCoverField(nil, wall, nil, nil)

	a := Vec2{X: 40, Y: 80}
	b := Vec2{X: 200, Y: 80}
	if cf.LineOfSight(a, b) {
		t.Fatal("obstacle must block line of sight")
	}
	c := Vec2{X: 200, Y: 200}
	if !cf.LineOfSight(a, Vec2{X: 40, Y: 200}) || !cf.LineOfSight(Vec2{X: 40, Y: 200}, c) {
		t.Fatal("rays missing the obstacle must be clear")
	}
}

func TestCanFireThroughOwnCoverRule(t *testing.T) {
	cf := NewCoverField(nil, nil, nil, nil)
	from := Tile{X: 2, Y: 2}.Center()     // x=40
	target := Tile{X: 12, Y: 2}.Center() // x=200

	// Cover right in front of the shooter: inside the own-cover fraction.
	cf.AddCover(Tile{X: 3, Y: 2}, CoverFull) // enters at t=(48-40)/160=0.05
	if cf.CanFireThrough(from, target, 0.30) {
		t.Fatal("full cover hugging the shooter must block the shot")
	}

	// Replace with cover near the target: beyond the own-cover fraction.
	cf2 := NewCoverField(nil, nil, nil, nil)
	cf2.AddCover(Tile{X: 10, Y: 2}, CoverFull) // enters at t=(160-40)/160=0.75
	if !cf2.CanFireThrough(from, target, 0.30) {
		t.Fatal("the target's own cover must not block suppressive fire")
	}

	// Half cover never blocks.
	cf3 := NewCoverField(nil, nil, nil, nil)
	cf3.AddCover(Tile{X: 3, Y: 2}, CoverHalf)
	if !cf3.CanFireThrough(from, target, 0.30) {
		t.Fatal("half cover must not block fire")
	}
}
