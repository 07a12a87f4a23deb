package tactics

// OccupancyLedger is the per-floor registry of which agent stands on or has
// reserved which tile. An occupancy is the hard claim on the tile an agent
// currently stands on; a reservation is a soft claim on the tile it intends
// to occupy once its path completes.
//
// All operations are idempotent and resolve in the order issued: a later
// request for an already-claimed tile fails and the caller picks an
// alternative or retries next tick. The ledger never queues or blocks.
type OccupancyLedger struct {
	occupant    map[Tile]AgentID
	reservation map[Tile]AgentID

	// Reverse indexes keep each agent's claims unique and make release O(1).
	occupiedBy map[AgentID]Tile
	reservedBy map[AgentID]Tile
}

// NewOccupancyLedger creates an empty ledger for one floor.
func NewOccupancyLedger() *OccupancyLedger {
	return &OccupancyLedger{
		occupant:    make(map[Tile]AgentID),
		reservation: make(map[Tile]AgentID),
		occupiedBy:  make(map[AgentID]Tile),
		reservedBy:  make(map[AgentID]Tile),
	}
}

// Occupy claims tile as the agent's current position. It fails if another
// agent already occupies the tile. On success the agent's previous occupancy
// (if different) and any reservation it held are released.
func (l *OccupancyLedger) Occupy(agent AgentID, tile Tile) bool {
	if holder, ok := l.occupant[tile]; ok && holder != agent {
		return false
	}
	if prev, ok := l.occupiedBy[agent]; ok && prev != tile {
		delete(l.occupant, prev)
	}
	l.occupant[tile] = agent
	l.occupiedBy[agent] = tile
	l.ClearReservation(agent)
	return true
}

// Reserve claims intent to move to tile. It fails if the tile is occupied or
// reserved by a different agent. On success the agent's previous reservation
// is replaced; an agent holds at most one reservation.
func (l *OccupancyLedger) Reserve(agent AgentID, tile Tile) bool {
	if holder, ok := l.occupant[tile]; ok && holder != agent {
		return false
	}
	if holder, ok := l.reservation[tile]; ok && holder != agent {
		return false
	}
	if prev, ok := l.reservedBy[agent]; ok && prev != tile {
		delete(l.reservation, prev)
	}
	l.reservation[tile] = agent
	l.reservedBy[agent] = tile
	return true
}

// ClearReservation removes the agent's reservation, if any.
func (l *OccupancyLedger) ClearReservation(agent AgentID) {
	if tile, ok := l.reservedBy[agent]; ok {
		delete(l.reservation, tile)
		delete(l.reservedBy, agent)
	}
}

// Release removes the agent's occupancy, if any.
func (l *OccupancyLedger) Release(agent AgentID) {
	if tile, ok := l.occupiedBy[agent]; ok {
		delete(l.occupant, tile)
		delete(l.occupiedBy, agent)
	}
}

// ReleaseAll removes every ledger entry for the agent. Called on destruction
// regardless of movement state.
func (l *OccupancyLedger) ReleaseAll(agent AgentID) {
	l.Release(agent)
	l.ClearReservation(agent)
}

// IsAvailable reports whether no agent other than excluding occupies or
// reserves the tile. Pass 0 to exclude nobody.
func (l *OccupancyLedger) IsAvailable(tile Tile, excluding AgentID) bool {
	if holder, ok := l.occupant[tile]; ok && holder != excluding {
		return false
	}
	if holder, ok := l.reservation[tile]; ok && holder != excluding {
		return false
	}
	return true
}

// OccupantOf returns the agent occupying the tile, or false if empty.
func (l *OccupancyLedger) OccupantOf(tile Tile) (AgentID, bool) {
	id, ok := l.occupant[tile]
	return id, ok
}

// ReservedTile returns the tile the agent has reserved, or false if none.
func (l *OccupancyLedger) ReservedTile(agent AgentID) (Tile, bool) {
	t, ok := l.reservedBy[agent]
	return t, ok
}

// OccupiedTile returns the tile the agent occupies, or false if none.
func (l *OccupancyLedger) OccupiedTile(agent AgentID) (Tile, bool) {
	t, ok := l.occupiedBy[agent]
	return t, ok
}
