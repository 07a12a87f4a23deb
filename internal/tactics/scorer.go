package tactics

import (
	"math"
	"sort"
)

// worstScore is the score of an unreachable destination. Every valid path
// scores above it.
const worstScore = -math.MaxFloat64

// TileScore is one evaluated candidate destination.
type TileScore struct {
	Tile           Tile
	Distance       float64
	ThreatCost     float64
	CoverQuality   float64
	HasLineOfSight bool
	TotalScore     float64
	Path           PathResult
}

// LOSSource answers obstacle ray tests.
type LOSSource interface {
	LineOfSight(a, b Vec2) bool
}

// Scorer evaluates candidate destinations against distance, threat exposure,
// cover, and line of sight. It holds no mutable state of its own; every
// method is a pure query over the injected oracles.
type Scorer struct {
	oracle PathOracle
	threat ThreatField
	cover  CoverOracle
	los    LOSSource
	tuning *Tuning
}

// NewScorer wires a scorer over the given collaborators. Any of them may be
// nil; the affected queries then degrade to neutral values and batched
// scoring finds no usable candidates.
func NewScorer(oracle PathOracle, threat ThreatField, cover CoverOracle, los LOSSource, tuning *Tuning) *Scorer {
	return &Scorer{oracle: oracle, threat: threat, cover: cover, los: los, tuning: tuning}
}

// HasLineOfSight reports whether the segment a→b is unobstructed.
func (s *Scorer) HasLineOfSight(a, b Vec2) bool {
	if s.los == nil {
		return false
	}
	return s.los.LineOfSight(a, b)
}

// ThreatAt samples the threat field at one position.
func (s *Scorer) ThreatAt(pos Vec2, affil Affiliation) float64 {
	if s.threat == nil {
		return 0
	}
	return s.threat.ThreatAt(pos, affil)
}

// ThreatAlongPath sums the per-waypoint threat samples.
func (s *Scorer) ThreatAlongPath(waypoints []Vec2, affil Affiliation) float64 {
	sum := 0.0
	for _, wp := range waypoints {
		sum += s.ThreatAt(wp, affil)
	}
	return sum
}

// CoverQuality returns 0, 0.5, or 1 for no/half/full cover at pos against a
// threat in direction threatDir.
func (s *Scorer) CoverQuality(pos Vec2, threatDir Vec2) float64 {
	if s.cover == nil {
		return 0
	}
	sample := s.cover.CoverInfoAt(pos, threatDir)
	if !sample.HasCover {
		return 0
	}
	return sample.Kind.Quality()
}

// ScorePath scores a finished path on length and accumulated threat. Invalid
// paths score as the minimum possible value.
func (s *Scorer) ScorePath(pr PathResult) float64 {
	if !pr.Valid {
		return worstScore
	}
	return -(pr.Length * s.tuning.WeightDist) - (pr.ThreatCost * s.tuning.WeightThreatPath)
}

// ScoreTile scores one candidate tile given a resolved path to it. target may
// be nil when there is no engagement reference; cover and line-of-sight terms
// then do not apply. WeightThreatDest is negative, so threat at the
// destination itself lowers the score.
func (s *Scorer) ScoreTile(tile Tile, currentPos Vec2, target *Vec2, affil Affiliation, pr PathResult) float64 {
	if !pr.Valid {
		return worstScore
	}
	threatCost := s.ThreatAlongPath(pr.Waypoints, affil)
	score := -(pr.Length * s.tuning.WeightDist) - (threatCost * s.tuning.WeightThreatPath)

	center := tile.Center()
	score += s.ThreatAt(center, affil) * s.tuning.WeightThreatDest

	if target != nil {
		dir := target.Sub(center).Normalized()
		score += s.CoverQuality(center, dir) * s.tuning.WeightCover
		if s.HasLineOfSight(center, *target) {
			score += s.tuning.WeightLOS
		}
	}
	return score
}

// ScoreDestinations evaluates every candidate tile with one asynchronous path
// request each and calls done exactly once, after all candidates have
// reported, with the results sorted best first. An empty candidate list
// completes synchronously with an empty result and issues no path requests.
func (s *Scorer) ScoreDestinations(from Vec2, candidates []Tile, target *Vec2, affil Affiliation, done func([]TileScore)) {
	if len(candidates) == 0 {
		if done != nil {
			done([]TileScore{})
		}
		return
	}

	results := make([]TileScore, 0, len(candidates))
	pending := len(candidates)

	finish := func(ts TileScore) {
		results = append(results, ts)
		pending--
		if pending > 0 {
			return
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].TotalScore > results[j].TotalScore
		})
		if done != nil {
			done(results)
		}
	}

	for _, cand := range candidates {
		tile := cand
		issued := false
		if s.oracle != nil {
			issued = s.oracle.RequestPath(from, tile.Center(), func(pr PathResult) {
				finish(s.buildTileScore(tile, from, target, affil, pr))
			})
		}
		if !issued {
			// No path service: the candidate reports immediately as unreachable.
			finish(s.buildTileScore(tile, from, target, affil, PathResult{Dest: tile.Center(), TotalScore: worstScore}))
		}
	}
}

func (s *Scorer) buildTileScore(tile Tile, from Vec2, target *Vec2, affil Affiliation, pr PathResult) TileScore {
	ts := TileScore{
		Tile:       tile,
		TotalScore: worstScore,
		Path:       pr,
	}
	if !pr.Valid {
		return ts
	}
	ts.Distance = pr.Length
	ts.ThreatCost = s.ThreatAlongPath(pr.Waypoints, affil)
	if target != nil {
		center := tile.Center()
		ts.CoverQuality = s.CoverQuality(center, target.Sub(center).Normalized())
		ts.HasLineOfSight = s.HasLineOfSight(center, *target)
	}
	pr.ThreatCost = ts.ThreatCost
	ts.TotalScore = s.ScoreTile(tile, from, target, affil, pr)
	pr.TotalScore = ts.TotalScore
	ts.Path = pr
	return ts
}
