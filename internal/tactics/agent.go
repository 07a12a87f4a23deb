package tactics

import "fmt"

const agentMaxHealth = 100.0

// Attributes are an agent's fixed capability scores.
type Attributes struct {
	Mobility    float64 // 0-1, acceleration ramp
	Tactics     float64 // 0-1, leader reaction speed
	Accuracy    float64 // 0-1, weapon handling
	WeaponRange float64 // world units
}

// DefaultAttributes returns a baseline average trooper.
func DefaultAttributes() Attributes {
	return Attributes{
		Mobility:    0.5,
		Tactics:     0.5,
		Accuracy:    0.5,
		WeaponRange: 300,
	}
}

// Agent is one autonomous unit in the world arena. Cross references to other
// agents and to squads are always AgentID / squad-id lookups through the
// world, never owning pointers.
type Agent struct {
	id    AgentID
	label string
	affil Affiliation
	floor int
	pos   Vec2

	health float64
	attr   Attributes

	perception *Perception
	motion     *MotionController
	machine    *StateMachine

	alive bool
}

// ID returns the agent's arena id.
func (a *Agent) ID() AgentID { return a.id }

// Label returns the short display label, e.g. "R0".
func (a *Agent) Label() string { return a.label }

// Affil returns the agent's affiliation.
func (a *Agent) Affil() Affiliation { return a.affil }

// Floor returns the index of the floor the agent is on.
func (a *Agent) Floor() int { return a.floor }

// Pos returns the continuous world position.
func (a *Agent) Pos() Vec2 { return a.pos }

// Alive reports whether the agent is still in the fight.
func (a *Agent) Alive() bool { return a.alive }

// Health returns current health.
func (a *Agent) Health() float64 { return a.health }

// HealthFrac returns health as a fraction of maximum.
func (a *Agent) HealthFrac() float64 { return clamp01(a.health / agentMaxHealth) }

// Attr returns the agent's attributes.
func (a *Agent) Attr() Attributes { return a.attr }

// Motion exposes the agent's movement controller.
func (a *Agent) Motion() *MotionController { return a.motion }

// Perception exposes the agent's contact memory.
func (a *Agent) Perception() *Perception { return a.perception }

// StateName returns the current behavior state name, or "" when the agent
// has no behavior machine attached.
func (a *Agent) StateName() string {
	if a.machine == nil || a.machine.current == nil {
		return ""
	}
	return a.machine.current.Name()
}

// CommandSuppress orders the agent to suppress the target, force-overriding
// whatever behavior state is active.
func (a *Agent) CommandSuppress(target AgentID) {
	if a.machine == nil {
		return
	}
	a.machine.Force(&SuppressState{target: target})
}

// CommandPatrol puts the agent on a looping patrol route.
func (a *Agent) CommandPatrol(route []PatrolPoint) {
	if a.machine == nil || len(route) == 0 {
		return
	}
	a.machine.Force(&PatrolState{Route: route})
}

func agentLabel(affil Affiliation, id AgentID) string {
	prefix := "R"
	if affil == AffilBlue {
		prefix = "B"
	}
	return fmt.Sprintf("%s%d", prefix, int(id))
}
