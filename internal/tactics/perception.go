package tactics

// Contact is one perceived hostile.
type Contact struct {
	Target    AgentID
	IsSniper  bool // perception flags the hostile as taking aimed shots
	FiredOnUs bool // the hostile has fired on this agent or its squad
	LastPos   Vec2
	LastTick  int
}

// Perception is an agent's personal contact memory. Squad intel sharing
// pushes contacts between members through ReceiveSquadIntel.
type Perception struct {
	contacts map[AgentID]Contact
	fresh    []Contact // brand-new contacts since the last drain
}

// NewPerception creates an empty contact memory.
func NewPerception() *Perception {
	return &Perception{contacts: make(map[AgentID]Contact)}
}

// Observe records a direct sighting. A hostile not seen before is queued as a
// fresh contact for squad intel sharing. The fired-on flag is sticky: once a
// hostile has shot at us, a later sighting does not wipe that.
func (p *Perception) Observe(c Contact) {
	existing, known := p.contacts[c.Target]
	if known {
		c.FiredOnUs = c.FiredOnUs || existing.FiredOnUs
	}
	p.contacts[c.Target] = c
	if !known {
		p.fresh = append(p.fresh, c)
	}
}

// MarkFiredOn records that a hostile has fired on this agent. Muzzle flash
// localizes a shooter even without line of sight, so an unknown shooter
// becomes a fresh contact at the reported position.
func (p *Perception) MarkFiredOn(id AgentID, pos Vec2, tick int) {
	c, known := p.contacts[id]
	if !known {
		c = Contact{Target: id, LastPos: pos, LastTick: tick}
	}
	c.FiredOnUs = true
	if tick >= c.LastTick {
		c.LastTick = tick
		c.LastPos = pos
	}
	p.contacts[id] = c
	if !known {
		p.fresh = append(p.fresh, c)
	}
}

// ReceiveSquadIntel merges a contact relayed by a squad mate. Relayed intel
// never re-queues as fresh, so shared contacts do not echo between members.
func (p *Perception) ReceiveSquadIntel(c Contact) {
	existing, ok := p.contacts[c.Target]
	if ok {
		c.FiredOnUs = c.FiredOnUs || existing.FiredOnUs
		if existing.LastTick >= c.LastTick {
			existing.FiredOnUs = c.FiredOnUs
			p.contacts[c.Target] = existing
			return
		}
	}
	p.contacts[c.Target] = c
}

// PerceivedHostiles returns all remembered contacts.
func (p *Perception) PerceivedHostiles() []Contact {
	out := make([]Contact, 0, len(p.contacts))
	for _, c := range p.contacts {
		out = append(out, c)
	}
	return out
}

// ContactFor returns the remembered contact for a hostile, if any.
func (p *Perception) ContactFor(id AgentID) (Contact, bool) {
	c, ok := p.contacts[id]
	return c, ok
}

// DrainNewContacts returns contacts observed since the last drain and clears
// the queue.
func (p *Perception) DrainNewContacts() []Contact {
	out := p.fresh
	p.fresh = nil
	return out
}

// Drop forgets a hostile entirely (despawned or confirmed dead).
func (p *Perception) Drop(id AgentID) {
	delete(p.contacts, id)
}
