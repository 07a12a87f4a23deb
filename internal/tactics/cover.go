package tactics

import "math"

// CoverKind grades how much a position shields an agent from one direction.
type CoverKind int

const (
	CoverNone CoverKind = iota
	CoverHalf           // chest-high: shields a crouching agent, does not block sight
	CoverFull           // full height: blocks sight and fire
)

func (k CoverKind) String() string {
	switch k {
	case CoverHalf:
		return "half"
	case CoverFull:
		return "full"
	default:
		return "none"
	}
}

// Quality maps the kind to the scoring scale: none 0, half 0.5, full 1.
func (k CoverKind) Quality() float64 {
	switch k {
	case CoverHalf:
		return 0.5
	case CoverFull:
		return 1.0
	default:
		return 0
	}
}

// CoverObject is a single tile-sized cover element on the battlefield.
type CoverObject struct {
	tile Tile
	kind CoverKind
}

// Tile returns the tile the cover object sits on.
func (c *CoverObject) Tile() Tile { return c.tile }

// Kind returns the cover grade.
func (c *CoverObject) Kind() CoverKind { return c.kind }

func (c *CoverObject) bounds() (minX, minY, maxX, maxY float64) {
	minX = float64(c.tile.X * tileSize)
	minY = float64(c.tile.Y * tileSize)
	return minX, minY, minX + tileSize, minY + tileSize
}

// CoverSample describes the cover available at a position against one threat
// direction.
type CoverSample struct {
	HasCover  bool
	Kind      CoverKind
	Direction Vec2 // unit vector from the position toward the cover
}

// CoverOracle answers cover quality and best-cover queries relative to a
// threat direction.
type CoverOracle interface {
	// CoverInfoAt samples the cover at pos against a threat in direction
	// threatDir (unit vector from pos toward the threat).
	CoverInfoAt(pos Vec2, threatDir Vec2) CoverSample

	// BestCoverNear returns the tile of the best usable cover within maxDist
	// of from against a threat at threatPos, skipping tiles claimed by agents
	// other than exclude. ok is false when no usable cover exists.
	BestCoverNear(from, threatPos Vec2, maxDist float64, exclude AgentID) (Tile, bool)
}

// coverUseRange is how close an agent must stand to a cover object to be
// shielded by it.
const coverUseRange = tileSize * 1.6

// CoverField is the default CoverOracle over a set of cover objects and the
// floor's obstacle footprints.
type CoverField struct {
	covers    []*CoverObject
	obstacles []rect
	grid      *NavGrid
	ledger    *OccupancyLedger
}

// NewCoverField builds a cover oracle for one floor. grid and ledger may be
// nil; BestCoverNear then skips walkability and availability filtering.
func NewCoverField(covers []*CoverObject, obstacles []rect, grid *NavGrid, ledger *OccupancyLedger) *CoverField {
	return &CoverField{covers: covers, obstacles: obstacles, grid: grid, ledger: ledger}
}

// Covers returns the cover objects on the floor.
func (f *CoverField) Covers() []*CoverObject { return f.covers }

// AddCover places a cover object of the given kind on a tile.
func (f *CoverField) AddCover(t Tile, kind CoverKind) {
	f.covers = append(f.covers, &CoverObject{tile: t, kind: kind})
}

// CoverInfoAt returns the best cover object shielding pos from the given
// threat direction: close enough to use and roughly interposed.
func (f *CoverField) CoverInfoAt(pos Vec2, threatDir Vec2) CoverSample {
	if f == nil {
		return CoverSample{}
	}
	threatAngle := math.Atan2(threatDir.Y, threatDir.X)
	best := CoverSample{}
	bestQuality := 0.0
	for _, c := range f.covers {
		center := c.tile.Center()
		d := Dist(pos, center)
		if d > coverUseRange || d < 1e-6 {
			continue
		}
		angleToCover := math.Atan2(center.Y-pos.Y, center.X-pos.X)
		if math.Abs(normalizeAngle(angleToCover-threatAngle)) > math.Pi/2.5 {
			// Cover is not between the agent and the threat.
			continue
		}
		if q := c.kind.Quality(); q > bestQuality {
			bestQuality = q
			best = CoverSample{
				HasCover:  true,
				Kind:      c.kind,
				Direction: center.Sub(pos).Normalized(),
			}
		}
	}
	return best
}

// BestCoverNear scans cover objects within maxDist of from and returns the
// adjacent standable tile of the highest-value one. Closer cover wins ties.
func (f *CoverField) BestCoverNear(from, threatPos Vec2, maxDist float64, exclude AgentID) (Tile, bool) {
	if f == nil {
		return Tile{}, false
	}
	threatAngle := math.Atan2(threatPos.Y-from.Y, threatPos.X-from.X)

	var bestTile Tile
	bestScore := -math.MaxFloat64
	found := false
	for _, c := range f.covers {
		center := c.tile.Center()
		d := Dist(from, center)
		if d > maxDist || d < 1.0 {
			continue
		}
		// Stand on the side of the cover away from the threat.
		standPos := Vec2{
			X: center.X - math.Cos(threatAngle)*tileSize*1.2,
			Y: center.Y - math.Sin(threatAngle)*tileSize*1.2,
		}
		stand := TileOf(standPos)
		if f.grid != nil && !f.grid.IsWalkable(stand) {
			continue
		}
		if f.ledger != nil && !f.ledger.IsAvailable(stand, exclude) {
			continue
		}
		score := c.kind.Quality()*2.0 - d/maxDist
		if score > bestScore {
			bestScore = score
			bestTile = stand
			found = true
		}
	}
	return bestTile, found
}

// LineOfSight reports whether the segment a→b is clear of obstacles and
// full-height cover.
func (f *CoverField) LineOfSight(a, b Vec2) bool {
	if f == nil {
		return true
	}
	for _, o := range f.obstacles {
		if rayIntersectsAABB(a, b, float64(o.x), float64(o.y), float64(o.x+o.w), float64(o.y+o.h)) {
			return false
		}
	}
	for _, c := range f.covers {
		if c.kind != CoverFull {
			continue
		}
		minX, minY, maxX, maxY := c.bounds()
		if rayIntersectsAABB(a, b, minX, minY, maxX, maxY) {
			return false
		}
	}
	return true
}

// firstBlockT returns the smallest segment parameter at which a→b enters a
// full-height obstruction, or false when the line is clear.
func (f *CoverField) firstBlockT(a, b Vec2) (float64, bool) {
	bestT := math.MaxFloat64
	hit := false
	for _, o := range f.obstacles {
		if t, ok := rayAABBHitT(a, b, float64(o.x), float64(o.y), float64(o.x+o.w), float64(o.y+o.h)); ok && t < bestT {
			bestT = t
			hit = true
		}
	}
	for _, c := range f.covers {
		if c.kind != CoverFull {
			continue
		}
		minX, minY, maxX, maxY := c.bounds()
		if t, ok := rayAABBHitT(a, b, minX, minY, maxX, maxY); ok && t < bestT {
			bestT = t
			hit = true
		}
	}
	if !hit {
		return 0, false
	}
	return bestT, true
}

// CanFireThrough reports whether an agent at from can deliver suppressive
// fire at target. A full-cover obstruction within the first ownBlockFrac of
// the segment is the shooter's own cover and blocks the shot; obstructions
// beyond that are assumed to be the target's cover and do not.
func (f *CoverField) CanFireThrough(from, target Vec2, ownBlockFrac float64) bool {
	if f == nil {
		return true
	}
	t, hit := f.firstBlockT(from, target)
	if !hit {
		return true
	}
	return t > ownBlockFrac
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
