package tactics

import (
	"math"
	"testing"
)

func TestScorePathLengthAndThreatWeights(t *testing.T) {
	tn := DefaultTuning()
	tn.WeightDist = 1.0
	tn.WeightThreatPath = 2.0
	s := NewScorer(nil, nil, nil, nil, &tn)

	pr := PathResult{Valid: true, Length: 10}
	if got := s.ScorePath(pr); math.Abs(got-(-10)) > 1e-9 {
		t.Fatalf("length-only path should score -10, got %v", got)
	}

	pr.ThreatCost = 5
	if got := s.ScorePath(pr); math.Abs(got-(-20)) > 1e-9 {
		t.Fatalf("threat-weighted path should score -20, got %v", got)
	}
}

func TestScorePathInvalidIsWorstScore(t *testing.T) {
	tn := DefaultTuning()
	s := NewScorer(nil, nil, nil, nil, &tn)

	invalid := s.ScorePath(PathResult{Valid: false})
	longValid := s.ScorePath(PathResult{Valid: true, Length: 1e9, ThreatCost: 1e9})
	if invalid >= longValid {
		t.Fatalf("invalid path (%v) must score below any valid path (%v)", invalid, longValid)
	}
}

func TestScoreTileDestinationThreatLowersScore(t *testing.T) {
	tn := DefaultTuning()
	hf := NewHeatField(320, 320)
	tile := Tile{X: 5, Y: 5}
	hf.RecordFire(tile.Center(), AffilRed, 1.0)
	s := NewScorer(nil, hf, nil, nil, &tn)

	pr := PathResult{Valid: true, Length: 10}
	got := s.ScoreTile(tile, Vec2{}, nil, AffilRed, pr)
	want := -(10 * tn.WeightDist) + 1.0*tn.WeightThreatDest
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got >= -(10 * tn.WeightDist) {
		t.Fatal("threat at the destination must lower the score")
	}
}

func TestScoreTileCoverBonusAgainstTarget(t *testing.T) {
	tn := DefaultTuning()
	cf := NewCoverField(nil, nil, nil, nil)
	// Full cover one tile north of the candidate, between it and the target.
	cf.AddCover(Tile{X: 5, Y: 4}, CoverFull)
	s := NewScorer(nil, nil, cf, cf, &tn)

	tile := Tile{X: 5, Y: 5}
	target := Tile{X: 5, Y: 1}.Center()
	pr := PathResult{Valid: true, Length: 0}
	got := s.ScoreTile(tile, Vec2{}, &target, AffilRed, pr)

	// Full cover is interposed, so the cover bonus applies and the cover
	// itself blocks line of sight.
	want := 1.0 * tn.WeightCover
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected cover bonus %v, got %v", want, got)
	}
}

func TestScoreDestinationsBatchCompletesOnceSorted(t *testing.T) {
	grid := NewNavGrid(320, 320, nil, 6)
	oracle := NewGridPathOracle(grid, 8)
	tn := DefaultTuning()
	s := NewScorer(oracle, nil, nil, nil, &tn)

	candidates := []Tile{{X: 12, Y: 2}, {X: 4, Y: 2}, {X: 8, Y: 2}}
	calls := 0
	var results []TileScore
	s.ScoreDestinations(Tile{X: 2, Y: 2}.Center(), candidates, nil, AffilRed, func(scored []TileScore) {
		calls++
		results = scored
	})
	if calls != 0 {
		t.Fatal("batch completion must wait for the path oracle")
	}

	oracle.Pump()
	if calls != 1 {
		t.Fatalf("done must fire exactly once, fired %d times", calls)
	}
	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].TotalScore < results[i].TotalScore {
			t.Fatalf("results not sorted best first: %v then %v",
				results[i-1].TotalScore, results[i].TotalScore)
		}
	}
	if results[0].Tile != (Tile{X: 4, Y: 2}) {
		t.Fatalf("nearest candidate should win with neutral threat, got %v", results[0].Tile)
	}
}

func TestScoreDestinationsEmptyCompletesSynchronously(t *testing.T) {
	grid := NewNavGrid(320, 320, nil, 6)
	oracle := NewGridPathOracle(grid, 8)
	tn := DefaultTuning()
	s := NewScorer(oracle, nil, nil, nil, &tn)

	calls := 0
	s.ScoreDestinations(Vec2{X: 40, Y: 40}, nil, nil, AffilRed, func(scored []TileScore) {
		calls++
		if len(scored) != 0 {
			t.Fatalf("expected empty result, got %d entries", len(scored))
		}
	})
	if calls != 1 {
		t.Fatalf("empty batch must complete synchronously exactly once, fired %d", calls)
	}
	if oracle.Pending() != 0 {
		t.Fatalf("empty batch must not issue path requests, %d pending", oracle.Pending())
	}
}

func TestScoreDestinationsNoOracleReportsUnreachable(t *testing.T) {
	tn := DefaultTuning()
	s := NewScorer(nil, nil, nil, nil, &tn)

	calls := 0
	s.ScoreDestinations(Vec2{}, []Tile{{X: 3, Y: 3}, {X: 4, Y: 4}}, nil, AffilRed, func(scored []TileScore) {
		calls++
		for _, ts := range scored {
			if ts.Path.Valid || ts.TotalScore != worstScore {
				t.Fatalf("without a path service every candidate is unreachable, got %+v", ts)
			}
		}
	})
	if calls != 1 {
		t.Fatalf("done must fire exactly once, fired %d", calls)
	}
}

func TestScoreDestinationsUnreachableSortsBelowReachable(t *testing.T) {
	// Wall isolates the right half of the map.
	wall := []rect{{x: 96, y: 0, w: 32, h: 320}}
	grid := NewNavGrid(320, 320, wall, 6)
	oracle := NewGridPathOracle(grid, 8)
	tn := DefaultTuning()
	s := NewScorer(oracle, nil, nil, nil, &tn)

	var results []TileScore
	s.ScoreDestinations(Tile{X: 2, Y: 2}.Center(), []Tile{{X: 15, Y: 2}, {X: 4, Y: 2}}, nil, AffilRed, func(scored []TileScore) {
		results = scored
	})
	oracle.Pump()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Tile != (Tile{X: 4, Y: 2}) || !results[0].Path.Valid {
		t.Fatalf("reachable candidate should sort first, got %+v", results[0])
	}
	if results[1].Path.Valid || results[1].TotalScore != worstScore {
		t.Fatalf("unreachable candidate should score worst, got %+v", results[1])
	}
}

func TestThreatAlongPathSumsWaypoints(t *testing.T) {
	tn := DefaultTuning()
	hf := NewHeatField(320, 320)
	a := Tile{X: 3, Y: 3}
	b := Tile{X: 9, Y: 9}
	hf.RecordFire(a.Center(), AffilBlue, 0.4)
	hf.RecordFire(b.Center(), AffilBlue, 0.3)
	s := NewScorer(nil, hf, nil, nil, &tn)

	wps := []Vec2{a.Center(), b.Center()}
	got := s.ThreatAlongPath(wps, AffilBlue)
	if math.Abs(got-0.7) > 1e-6 {
		t.Fatalf("expected summed threat 0.7, got %v", got)
	}
	if s.ThreatAlongPath(wps, AffilRed) != 0 {
		t.Fatal("threat layers are per affiliation")
	}
}
