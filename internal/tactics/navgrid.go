package tactics

import (
	"container/heap"
	"math"
)

// rect is an axis-aligned obstacle footprint in world units.
type rect struct {
	x, y, w, h int
}

// NavGrid is a 2D walkability grid where true = blocked.
type NavGrid struct {
	cols    int
	rows    int
	blocked []bool
}

// NewNavGrid builds a walkability grid from the floor dimensions and obstacle
// footprints. Each tile that overlaps an obstacle (padded for agent radius)
// is blocked.
func NewNavGrid(mapW, mapH int, obstacles []rect, agentRadius int) *NavGrid {
	cols := mapW / tileSize
	rows := mapH / tileSize
	ng := &NavGrid{
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}

	pad := agentRadius
	for _, b := range obstacles {
		bx0 := b.x - pad
		by0 := b.y - pad
		bx1 := b.x + b.w + pad
		by1 := b.y + b.h + pad

		cMinX := max(0, bx0/tileSize)
		cMinY := max(0, by0/tileSize)
		cMaxX := min(cols-1, (bx1-1)/tileSize)
		cMaxY := min(rows-1, (by1-1)/tileSize)

		for cy := cMinY; cy <= cMaxY; cy++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				ng.blocked[cy*cols+cx] = true
			}
		}
	}
	return ng
}

// Block marks a single tile unwalkable.
func (ng *NavGrid) Block(t Tile) {
	if t.X < 0 || t.Y < 0 || t.X >= ng.cols || t.Y >= ng.rows {
		return
	}
	ng.blocked[t.Y*ng.cols+t.X] = true
}

// IsWalkable reports whether the tile is inside the grid and unblocked.
func (ng *NavGrid) IsWalkable(t Tile) bool {
	return !ng.isBlocked(t.X, t.Y)
}

func (ng *NavGrid) isBlocked(cx, cy int) bool {
	if cx < 0 || cy < 0 || cx >= ng.cols || cy >= ng.rows {
		return true
	}
	return ng.blocked[cy*ng.cols+cx]
}

// Cols returns the grid width in tiles.
func (ng *NavGrid) Cols() int { return ng.cols }

// Rows returns the grid height in tiles.
func (ng *NavGrid) Rows() int { return ng.rows }

// --- A* pathfinding ---

type pathNode struct {
	cx, cy int
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x interface{}) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath returns world-coordinate waypoints from from to to, or nil if no
// path exists.
func (ng *NavGrid) FindPath(from, to Vec2) []Vec2 {
	start := TileOf(from)
	goal := TileOf(to)

	if ng.isBlocked(start.X, start.Y) || ng.isBlocked(goal.X, goal.Y) {
		return nil
	}

	key := func(cx, cy int) int { return cy*ng.cols + cx }
	heuristic := func(ax, ay, bx, by int) float64 {
		dx := math.Abs(float64(ax - bx))
		dy := math.Abs(float64(ay - by))
		return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
	}

	first := &pathNode{cx: start.X, cy: start.Y, g: 0, h: heuristic(start.X, start.Y, goal.X, goal.Y)}
	ol := &openList{first}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(start.X, start.Y)] = first

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cx == goal.X && cur.cy == goal.Y {
			return buildPath(cur)
		}
		k := key(cur.cx, cur.cy)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.cx+d[0], cur.cy+d[1]
			if ng.isBlocked(nx, ny) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if ng.isBlocked(cur.cx+d[0], cur.cy) || ng.isBlocked(cur.cx, cur.cy+d[1]) {
					continue
				}
			}
			nk := key(nx, ny)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			g := cur.g + cost
			if prev, ok := best[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{cx: nx, cy: ny, g: g, h: heuristic(nx, ny, goal.X, goal.Y), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

func buildPath(end *pathNode) []Vec2 {
	var cells []Tile
	for n := end; n != nil; n = n.parent {
		cells = append(cells, Tile{X: n.cx, Y: n.cy})
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	path := make([]Vec2, len(cells))
	for i, c := range cells {
		path[i] = c.Center()
	}
	return path
}
