package tactics

import (
	"fmt"
	"strings"
)

// AgentReport captures a single agent's state at one point in time.
type AgentReport struct {
	ID     AgentID
	Label  string
	Affil  Affiliation
	Floor  int
	Tile   Tile
	Health float64
	Alive  bool
	State  string
	Motion MotionState
	Threat float64
}

// SquadReport captures a single squad's coordination state.
type SquadReport struct {
	SquadID     int
	Affil       Affiliation
	Leader      AgentID
	Alive       int
	Dead        int
	Assignments int
	Winning     bool
}

// SimReport is a full snapshot of the simulation at one tick.
type SimReport struct {
	Tick int

	RedAlive, BlueAlive int
	RedDead, BlueDead   int

	Agents []AgentReport
	Squads []SquadReport

	// Per-team behavior state distributions (state name -> count).
	RedStates  map[string]int
	BlueStates map[string]int
}

// BuildReport snapshots the world.
func BuildReport(w *World) SimReport {
	r := SimReport{
		Tick:       w.Tick(),
		RedStates:  map[string]int{},
		BlueStates: map[string]int{},
	}
	for _, a := range w.Agents() {
		threat := 0.0
		if w.Threat() != nil {
			threat = w.Threat().PersonalThreat(a.ID())
		}
		r.Agents = append(r.Agents, AgentReport{
			ID:     a.ID(),
			Label:  a.Label(),
			Affil:  a.Affil(),
			Floor:  a.Floor(),
			Tile:   TileOf(a.Pos()),
			Health: a.Health(),
			Alive:  a.Alive(),
			State:  a.StateName(),
			Motion: a.Motion().State(),
			Threat: threat,
		})
		states := r.RedStates
		if a.Affil() == AffilBlue {
			states = r.BlueStates
		}
		switch {
		case !a.Alive() && a.Affil() == AffilRed:
			r.RedDead++
		case !a.Alive():
			r.BlueDead++
		case a.Affil() == AffilRed:
			r.RedAlive++
			states[a.StateName()]++
		default:
			r.BlueAlive++
			states[a.StateName()]++
		}
	}
	for _, sq := range w.Squads() {
		alive, dead := 0, 0
		for _, id := range sq.Members() {
			if a := w.Agent(id); a != nil && a.Alive() {
				alive++
			} else {
				dead++
			}
		}
		r.Squads = append(r.Squads, SquadReport{
			SquadID:     sq.ID(),
			Affil:       sq.affil,
			Leader:      sq.Leader(),
			Alive:       alive,
			Dead:        dead,
			Assignments: len(sq.Assignments()),
			Winning:     sq.WinningEngagement(),
		})
	}
	return r
}

// Format renders the report as a one-screen text block.
func (r SimReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- engagement report T=%03d ---\n", r.Tick)
	fmt.Fprintf(&b, "red:  alive=%d dead=%d states=%s\n", r.RedAlive, r.RedDead, formatStates(r.RedStates))
	fmt.Fprintf(&b, "blue: alive=%d dead=%d states=%s\n", r.BlueAlive, r.BlueDead, formatStates(r.BlueStates))
	for _, sq := range r.Squads {
		fmt.Fprintf(&b, "squad%d (%s): leader=%d alive=%d dead=%d suppressing=%d winning=%v\n",
			sq.SquadID, sq.Affil, int(sq.Leader), sq.Alive, sq.Dead, sq.Assignments, sq.Winning)
	}
	for _, a := range r.Agents {
		status := "alive"
		if !a.Alive {
			status = "dead"
		}
		fmt.Fprintf(&b, "%-4s %-5s f%d (%d,%d) hp=%3.0f threat=%5.2f %s/%s\n",
			a.Label, status, a.Floor, a.Tile.X, a.Tile.Y, a.Health, a.Threat, a.State, a.Motion)
	}
	return b.String()
}

func formatStates(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	order := []string{StatePatrol, StateGuard, StateSearch, StateCombat, StateSuppress, StateFlank, StateSeekCover}
	var parts []string
	for _, name := range order {
		if n := m[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	return strings.Join(parts, " ")
}
