package tactics

import "math"

// PathResult is the outcome of one path request. It is produced once per
// request, immutable afterwards, and owned by the requester.
type PathResult struct {
	Dest       Vec2
	Waypoints  []Vec2 // ordered positions from start to destination
	Length     float64
	ThreatCost float64
	TotalScore float64
	Valid      bool
}

// PathCallback receives the result of an asynchronous path request on a later
// tick. Callers must tolerate arbitrary delay and must not treat "no result
// yet" as failure.
type PathCallback func(PathResult)

// PathOracle answers "distance and waypoints between two points" queries.
type PathOracle interface {
	// RequestPath queues an asynchronous path computation. The callback fires
	// on a later tick. Returns false when the oracle cannot accept requests
	// (no active graph); no callback will fire in that case.
	RequestPath(from, to Vec2, cb PathCallback) bool

	// FindPathNow computes a path immediately. Used only where an immediate
	// result is required.
	FindPathNow(from, to Vec2) PathResult
}

type pathRequest struct {
	from, to Vec2
	cb       PathCallback
}

// GridPathOracle services path requests against a NavGrid, resolving a
// bounded number of queued requests per simulation tick so that callbacks
// always arrive asynchronously relative to the issuing call.
type GridPathOracle struct {
	grid    *NavGrid
	queue   []pathRequest
	perTick int
}

// NewGridPathOracle wraps a walkability grid. perTick bounds how many queued
// requests are resolved on each Pump; values < 1 default to 8.
func NewGridPathOracle(grid *NavGrid, perTick int) *GridPathOracle {
	if perTick < 1 {
		perTick = 8
	}
	return &GridPathOracle{grid: grid, perTick: perTick}
}

// RequestPath queues the request. Fails closed when no grid is attached.
func (o *GridPathOracle) RequestPath(from, to Vec2, cb PathCallback) bool {
	if o == nil || o.grid == nil {
		return false
	}
	o.queue = append(o.queue, pathRequest{from: from, to: to, cb: cb})
	return true
}

// FindPathNow computes a path synchronously.
func (o *GridPathOracle) FindPathNow(from, to Vec2) PathResult {
	if o == nil || o.grid == nil {
		return PathResult{Dest: to, TotalScore: -math.MaxFloat64}
	}
	return resolvePath(o.grid, from, to)
}

// Pump resolves up to perTick queued requests and fires their callbacks.
// Called once per simulation tick, before agents update, so a request issued
// on tick N completes on tick N+1 at the earliest.
func (o *GridPathOracle) Pump() {
	n := o.perTick
	if n > len(o.queue) {
		n = len(o.queue)
	}
	batch := o.queue[:n]
	o.queue = o.queue[n:]
	for _, req := range batch {
		res := resolvePath(o.grid, req.from, req.to)
		if req.cb != nil {
			req.cb(res)
		}
	}
}

// Pending returns the number of unresolved requests.
func (o *GridPathOracle) Pending() int { return len(o.queue) }

func resolvePath(grid *NavGrid, from, to Vec2) PathResult {
	wps := grid.FindPath(from, to)
	if wps == nil {
		return PathResult{Dest: to, TotalScore: -math.MaxFloat64}
	}
	length := 0.0
	prev := from
	for _, wp := range wps {
		length += Dist(prev, wp)
		prev = wp
	}
	return PathResult{
		Dest:      to,
		Waypoints: wps,
		Length:    length,
		Valid:     true,
	}
}
