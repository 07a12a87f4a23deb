package tactics

import "math"

// tileSize is the edge length of one grid tile in world units.
const tileSize = 16

// TileSize is tileSize for callers outside the package, e.g. renderers.
const TileSize = tileSize

// AgentID identifies an agent in the world arena. Zero is never a valid id.
type AgentID int

// Affiliation distinguishes the two opposing forces.
type Affiliation int

const (
	AffilRed  Affiliation = iota // friendly
	AffilBlue                    // OpFor
)

func (a Affiliation) String() string {
	if a == AffilRed {
		return "red"
	}
	return "blue"
}

// Opposing returns the other affiliation.
func (a Affiliation) Opposing() Affiliation {
	if a == AffilRed {
		return AffilBlue
	}
	return AffilRed
}

// Tile is one cell of a floor's movement grid. It is a plain value with no
// global ownership; the same coordinates on different floors are different
// tiles.
type Tile struct {
	X, Y int
}

// Vec2 is a continuous world-space position.
type Vec2 struct {
	X, Y float64
}

// TileOf returns the tile containing the world position p.
func TileOf(p Vec2) Tile {
	return Tile{X: int(math.Floor(p.X / tileSize)), Y: int(math.Floor(p.Y / tileSize))}
}

// Center returns the world-space center of the tile.
func (t Tile) Center() Vec2 {
	return Vec2{
		X: float64(t.X*tileSize) + tileSize/2,
		Y: float64(t.Y*tileSize) + tileSize/2,
	}
}

// Dist returns the euclidean distance between two positions.
func Dist(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

// Scale returns a scaled by s.
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Len returns the vector length.
func (a Vec2) Len() float64 { return math.Hypot(a.X, a.Y) }

// Normalized returns a unit vector in the direction of a, or the zero vector
// when a has no length.
func (a Vec2) Normalized() Vec2 {
	l := a.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
