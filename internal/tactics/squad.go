package tactics

import (
	"fmt"
	"math/rand"
	"sort"
)

// Squad coordinates a fire team: it pools member intel, decides whether the
// engagement is being won, and assigns suppressive fire against the most
// dangerous hostiles.
type Squad struct {
	id    int
	affil Affiliation
	world *World

	members []AgentID
	leader  AgentID

	// assignments maps hostile -> the member suppressing it. At most one
	// suppressor per hostile, and one target per suppressor.
	assignments map[AgentID]AgentID

	nextCheckTick int
}

// NewSquad forms a squad from spawned agents. The first member leads.
func NewSquad(id int, affil Affiliation, members []AgentID, w *World) *Squad {
	sq := &Squad{
		id:          id,
		affil:       affil,
		world:       w,
		members:     append([]AgentID(nil), members...),
		assignments: make(map[AgentID]AgentID),
	}
	if len(sq.members) > 0 {
		sq.leader = sq.members[0]
	}
	return sq
}

// ID returns the squad id.
func (sq *Squad) ID() int { return sq.id }

// Leader returns the current leader.
func (sq *Squad) Leader() AgentID { return sq.leader }

// Members returns the member ids in join order.
func (sq *Squad) Members() []AgentID { return append([]AgentID(nil), sq.members...) }

// Assignments returns a copy of the hostile -> suppressor map.
func (sq *Squad) Assignments() map[AgentID]AgentID {
	out := make(map[AgentID]AgentID, len(sq.assignments))
	for t, s := range sq.assignments {
		out[t] = s
	}
	return out
}

// Tick runs one coordination step. Intel propagates every tick; the tactical
// check runs on the leader's cadence.
func (sq *Squad) Tick(tick int) {
	sq.shareIntel(tick)

	if tick < sq.nextCheckTick {
		return
	}
	leader := sq.ensureLeader()
	if leader == nil {
		return
	}
	sq.nextCheckTick = tick + sq.checkInterval(leader)

	sq.cleanupAssignments()

	if !sq.engaged() {
		return
	}
	if sq.WinningEngagement() {
		sq.world.Log.Add(tick, fmt.Sprintf("squad%d", sq.id), sq.affil.String(),
			"squad", "winning", "", float64(len(sq.assignments)))
	}
	sq.assignSuppression(tick)
}

// shareIntel broadcasts each member's fresh contacts to the rest of the
// squad. Receivers keep whichever report is newer.
func (sq *Squad) shareIntel(tick int) {
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive {
			continue
		}
		fresh := m.perception.DrainNewContacts()
		if len(fresh) == 0 {
			continue
		}
		for _, other := range sq.members {
			if other == id {
				continue
			}
			o := sq.world.Agent(other)
			if o == nil || !o.alive {
				continue
			}
			for _, c := range fresh {
				o.perception.ReceiveSquadIntel(c)
			}
		}
		sq.world.Log.Add(tick, m.label, sq.affil.String(),
			"squad", "intel_shared", "", float64(len(fresh)))
	}
}

// ensureLeader promotes the next living member when the leader is down.
func (sq *Squad) ensureLeader() *Agent {
	if l := sq.world.Agent(sq.leader); l != nil && l.alive {
		return l
	}
	for _, id := range sq.members {
		if a := sq.world.Agent(id); a != nil && a.alive {
			sq.leader = id
			sq.world.Log.Add(sq.world.tick, a.label, sq.affil.String(),
				"squad", "leader_succession", a.label, float64(int(id)))
			return a
		}
	}
	return nil
}

// checkInterval scales the leader's tactical cadence with skill. Sharper
// leaders reassess more often, down to a floor.
func (sq *Squad) checkInterval(leader *Agent) int {
	tn := sq.world.tuning
	iv := tn.SquadCheckBaseTicks - int(leader.attr.Tactics*tn.SquadCheckSkillScale)
	if iv < tn.SquadCheckMinTicks {
		iv = tn.SquadCheckMinTicks
	}
	return iv
}

// cleanupAssignments drops assignments whose target or suppressor is no
// longer valid, releasing the member back to its own behavior.
func (sq *Squad) cleanupAssignments() {
	for target, suppressor := range sq.assignments {
		t := sq.world.Agent(target)
		s := sq.world.Agent(suppressor)
		stale := t == nil || !t.alive || s == nil || !s.alive
		if !stale && s.StateName() != StateSuppress {
			stale = true // member was overridden out of the assignment
		}
		if !stale {
			continue
		}
		delete(sq.assignments, target)
		if s != nil && s.alive && s.StateName() == StateSuppress {
			s.machine.Transition(&GuardState{})
		}
		sq.world.Log.Add(sq.world.tick, fmt.Sprintf("squad%d", sq.id), sq.affil.String(),
			"squad", "suppression_cleared", "", float64(int(target)))
	}
}

// engaged reports whether the squad is actually in a fight: a living member
// carries nonzero personal threat, or a known living sniper is working an
// aimed shot on someone. Merely remembering a hostile is not engagement.
func (sq *Squad) engaged() bool {
	if sq.world.threat == nil {
		return false
	}
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive {
			continue
		}
		if sq.world.threat.PersonalThreat(m.id) > 0 {
			return true
		}
		for _, c := range m.perception.PerceivedHostiles() {
			if !c.IsSniper {
				continue
			}
			h := sq.world.Agent(c.Target)
			if h == nil || !h.alive {
				continue
			}
			if sq.world.threat.AimedShotThreat(h.id) >= sq.world.tuning.SniperThreatMin {
				return true
			}
		}
	}
	return false
}

// WinningEngagement is a cheap snapshot heuristic: the squad is winning when
// it clearly outnumbers the known hostiles, or narrowly outnumbers them with
// a solid average-health edge. A winning squad holds rather than committing
// more members to suppression.
func (sq *Squad) WinningEngagement() bool {
	var ours, ourHealth float64
	for _, id := range sq.members {
		if m := sq.world.Agent(id); m != nil && m.alive {
			ours++
			ourHealth += m.HealthFrac()
		}
	}
	hostiles := make(map[AgentID]bool)
	var theirHealth float64
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive {
			continue
		}
		for _, c := range m.perception.PerceivedHostiles() {
			h := sq.world.Agent(c.Target)
			if h == nil || !h.alive || hostiles[h.id] {
				continue
			}
			hostiles[h.id] = true
			theirHealth += h.HealthFrac()
		}
	}
	theirs := float64(len(hostiles))
	if ours == 0 {
		return false
	}
	if theirs == 0 {
		return true
	}
	tn := sq.world.tuning
	lead := ours - theirs
	if lead >= float64(tn.WinMemberLead) {
		return true
	}
	if lead >= 1 && (ourHealth/ours)-(theirHealth/theirs) >= tn.WinHealthLead {
		return true
	}
	return false
}

// assignSuppression picks suppression targets in priority order: known
// snipers with a live aimed-shot threat first, then hidden shooters. Each
// target gets at most one suppressor.
func (sq *Squad) assignSuppression(tick int) {
	for _, target := range sq.suppressionTargets() {
		if _, done := sq.assignments[target.id]; done {
			continue
		}
		picked := sq.pickSuppressor(target)
		if picked == nil {
			continue
		}
		sq.assignments[target.id] = picked.id
		picked.CommandSuppress(target.id)
		sq.world.Log.Add(tick, picked.label, sq.affil.String(),
			"squad", "suppression_assigned", target.label, float64(int(target.id)))
	}
}

// suppressionTargets returns hostiles worth suppressing, snipers first, each
// tier ordered most dangerous first. The second tier is hidden shooters:
// hostiles that have fired on the squad and that no living member can
// currently see.
func (sq *Squad) suppressionTargets() []*Agent {
	type cand struct {
		agent  *Agent
		sniper bool
		threat float64
	}
	seen := make(map[AgentID]bool)
	var cands []cand
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive {
			continue
		}
		for _, c := range m.perception.PerceivedHostiles() {
			h := sq.world.Agent(c.Target)
			if h == nil || !h.alive || seen[h.id] {
				continue
			}
			seen[h.id] = true
			aimed := 0.0
			if sq.world.threat != nil {
				aimed = sq.world.threat.AimedShotThreat(h.id)
			}
			if c.IsSniper && aimed >= sq.world.tuning.SniperThreatMin {
				cands = append(cands, cand{agent: h, sniper: true, threat: aimed})
				continue
			}
			if sq.firedOnSquad(h.id) && !sq.memberHasLineOfSight(h) {
				cands = append(cands, cand{agent: h, sniper: false, threat: aimed})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].sniper != cands[j].sniper {
			return cands[i].sniper
		}
		if cands[i].threat != cands[j].threat {
			return cands[i].threat > cands[j].threat
		}
		return cands[i].agent.id < cands[j].agent.id
	})
	out := make([]*Agent, len(cands))
	for i, c := range cands {
		out[i] = c.agent
	}
	return out
}

// firedOnSquad reports whether any member's contact memory records the
// hostile firing on the squad.
func (sq *Squad) firedOnSquad(id AgentID) bool {
	for _, mid := range sq.members {
		m := sq.world.Agent(mid)
		if m == nil || !m.alive {
			continue
		}
		if c, ok := m.perception.ContactFor(id); ok && c.FiredOnUs {
			return true
		}
	}
	return false
}

// memberHasLineOfSight reports whether any living member on the hostile's
// floor can currently see it past obstacles and full cover.
func (sq *Squad) memberHasLineOfSight(h *Agent) bool {
	if h.floor < 0 || h.floor >= len(sq.world.floors) {
		return false
	}
	f := sq.world.floors[h.floor]
	if f == nil || f.Cover == nil {
		return false
	}
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive || m.floor != h.floor {
			continue
		}
		if f.Cover.LineOfSight(m.pos, h.pos) {
			return true
		}
	}
	return false
}

// pickSuppressor selects one member for the target by weighted random choice
// over the qualified candidates. Randomness keeps repeated engagements from
// always burdening the same member.
func (sq *Squad) pickSuppressor(target *Agent) *Agent {
	cands, _ := sq.CandidateSearch(target, sq.suppressorSet(), 1)
	if len(cands) == 0 {
		return nil
	}
	return sq.world.Agent(cands[0])
}

// suppressorSet returns the members already holding an assignment.
func (sq *Squad) suppressorSet() map[AgentID]bool {
	busy := make(map[AgentID]bool, len(sq.assignments))
	for _, s := range sq.assignments {
		busy[s] = true
	}
	return busy
}

// CandidateSearch returns up to maxCount members able to suppress the
// target, picked by weighted random sampling without replacement over the
// qualified candidates, with each pick's score. A candidate must be settled
// (not already flanking or suppressing), have the target in weapon range, be
// able to fire past its own cover, be in cover itself against the target,
// not be pinned by incoming fire, and not be in the excluded set.
func (sq *Squad) CandidateSearch(target *Agent, excluding map[AgentID]bool, maxCount int) ([]AgentID, []float64) {
	tn := sq.world.tuning
	var ids []AgentID
	var scores []float64
	for _, id := range sq.members {
		m := sq.world.Agent(id)
		if m == nil || !m.alive || excluding[id] {
			continue
		}
		switch m.StateName() {
		case StateFlank, StateSuppress:
			continue
		}
		if m.floor != target.floor {
			continue
		}
		if Dist(m.pos, target.pos) > m.attr.WeaponRange {
			continue
		}
		f := sq.world.floors[m.floor]
		if f == nil || f.Cover == nil {
			continue
		}
		if !f.Cover.CanFireThrough(m.pos, target.pos, tn.OwnCoverBlockFrac) {
			continue
		}
		if s := f.Cover.CoverInfoAt(m.pos, target.pos.Sub(m.pos).Normalized()); !s.HasCover {
			continue // only members fighting from cover expose themselves to suppress
		}
		personal := 0.0
		if sq.world.threat != nil {
			personal = sq.world.threat.PersonalThreat(m.id)
		}
		if personal >= tn.SuppressThreatMax {
			continue
		}
		score := tn.SuppressScoreBase +
			m.HealthFrac()*tn.SuppressScoreHealth +
			m.attr.Accuracy*tn.SuppressScoreAcc -
			personal*tn.SuppressScoreThreat +
			sq.world.rng.Float64()*tn.SuppressScoreJitter
		ids = append(ids, id)
		scores = append(scores, score)
	}
	return weightedSample(sq.world.rng, ids, scores, maxCount)
}

// weightedSample draws up to n ids without replacement, each draw with
// probability proportional to score. Scores are shifted so the worst
// candidate still has a sliver of weight.
func weightedSample(rng *rand.Rand, ids []AgentID, scores []float64, n int) ([]AgentID, []float64) {
	if len(ids) == 0 || n <= 0 {
		return nil, nil
	}
	min := scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
	}
	shift := 0.0
	if min < 0 {
		shift = -min + 0.01
	}
	remIDs := append([]AgentID(nil), ids...)
	remScores := append([]float64(nil), scores...)
	var pickedIDs []AgentID
	var pickedScores []float64
	for len(pickedIDs) < n && len(remIDs) > 0 {
		total := 0.0
		for _, s := range remScores {
			total += s + shift
		}
		i := 0
		if total > 0 {
			r := rng.Float64() * total
			for ; i < len(remScores)-1; i++ {
				r -= remScores[i] + shift
				if r <= 0 {
					break
				}
			}
		}
		pickedIDs = append(pickedIDs, remIDs[i])
		pickedScores = append(pickedScores, remScores[i])
		remIDs = append(remIDs[:i], remIDs[i+1:]...)
		remScores = append(remScores[:i], remScores[i+1:]...)
	}
	return pickedIDs, pickedScores
}

// removeAgent drops a destroyed agent from the roster and from any
// assignment it held on either side of.
func (sq *Squad) removeAgent(id AgentID) {
	for i, m := range sq.members {
		if m == id {
			sq.members = append(sq.members[:i], sq.members[i+1:]...)
			break
		}
	}
	for target, suppressor := range sq.assignments {
		if target == id || suppressor == id {
			delete(sq.assignments, target)
		}
	}
	if sq.leader == id {
		sq.ensureLeader()
	}
}
