package tactics

import "sort"

// ThreatField reports how recently and heavily positions and agents have been
// fired upon. The core queries it, never stores it.
type ThreatField interface {
	// ThreatAt returns the accumulated threat at a position for one
	// affiliation. Higher means more dangerous.
	ThreatAt(pos Vec2, affil Affiliation) float64

	// PersonalThreat returns the threat currently carried by a single agent
	// (fire directed at it, decaying over time).
	PersonalThreat(agent AgentID) float64

	// AimedShotThreat returns how strongly the hostile is lining up a
	// deliberate shot right now.
	AimedShotThreat(hostile AgentID) float64

	// MostDangerousHostiles returns up to n hostile ids ordered most
	// dangerous first.
	MostDangerousHostiles(n int) []AgentID
}

// heatDecayPerTick is subtracted from every heat cell each tick. At 60 TPS a
// full-heat cell cools in about eight seconds.
const heatDecayPerTick = 0.002

const heatMax = 1.0

// heatLayer is a 2-D float32 grid holding one affiliation's threat heat.
type heatLayer struct {
	cells []float32
	rows  int
	cols  int
}

func newHeatLayer(rows, cols int) *heatLayer {
	return &heatLayer{cells: make([]float32, rows*cols), rows: rows, cols: cols}
}

func (l *heatLayer) add(row, col int, delta float32) {
	if row < 0 || row >= l.rows || col < 0 || col >= l.cols {
		return
	}
	idx := row*l.cols + col
	v := l.cells[idx] + delta
	if v > heatMax {
		v = heatMax
	}
	if v < 0 {
		v = 0
	}
	l.cells[idx] = v
}

func (l *heatLayer) at(row, col int) float32 {
	if row < 0 || row >= l.rows || col < 0 || col >= l.cols {
		return 0
	}
	return l.cells[row*l.cols+col]
}

func (l *heatLayer) sampleAt(p Vec2) float32 {
	t := TileOf(p)
	return l.at(t.Y, t.X)
}

func (l *heatLayer) decay(rate float32) {
	for i, v := range l.cells {
		v -= rate
		if v < 0 {
			v = 0
		}
		l.cells[i] = v
	}
}

// HeatField is the default ThreatField: one decaying heat grid per
// affiliation plus per-agent personal and aimed-shot threat.
type HeatField struct {
	layers   map[Affiliation]*heatLayer
	personal map[AgentID]float64
	aimed    map[AgentID]float64
	rows     int
	cols     int
}

// NewHeatField creates a threat field covering mapW x mapH world units.
func NewHeatField(mapW, mapH int) *HeatField {
	rows := mapH / tileSize
	cols := mapW / tileSize
	return &HeatField{
		layers: map[Affiliation]*heatLayer{
			AffilRed:  newHeatLayer(rows, cols),
			AffilBlue: newHeatLayer(rows, cols),
		},
		personal: make(map[AgentID]float64),
		aimed:    make(map[AgentID]float64),
		rows:     rows,
		cols:     cols,
	}
}

// RecordFire registers incoming fire landing near pos against the given
// affiliation, heating the surrounding cells.
func (h *HeatField) RecordFire(pos Vec2, against Affiliation, amount float64) {
	l := h.layers[against]
	if l == nil {
		return
	}
	t := TileOf(pos)
	l.add(t.Y, t.X, float32(amount))
	l.add(t.Y-1, t.X, float32(amount)*0.5)
	l.add(t.Y+1, t.X, float32(amount)*0.5)
	l.add(t.Y, t.X-1, float32(amount)*0.5)
	l.add(t.Y, t.X+1, float32(amount)*0.5)
}

// personalThreatCap bounds accumulated fire directed at one agent.
const personalThreatCap = 100.0

// RecordFireAt registers fire directed at one agent.
func (h *HeatField) RecordFireAt(agent AgentID, amount float64) {
	v := h.personal[agent] + amount
	if v > personalThreatCap {
		v = personalThreatCap
	}
	h.personal[agent] = v
}

// SetAimedShot sets the aimed-shot threat a hostile is currently presenting.
func (h *HeatField) SetAimedShot(hostile AgentID, v float64) {
	if v <= 0 {
		delete(h.aimed, hostile)
		return
	}
	h.aimed[hostile] = v
}

// Forget drops all per-agent threat for an agent. Called on destruction.
func (h *HeatField) Forget(agent AgentID) {
	delete(h.personal, agent)
	delete(h.aimed, agent)
}

// Decay cools all heat by one tick.
func (h *HeatField) Decay() {
	for _, l := range h.layers {
		l.decay(heatDecayPerTick)
	}
	for id, v := range h.personal {
		v -= 0.25
		if v <= 0 {
			delete(h.personal, id)
			continue
		}
		h.personal[id] = v
	}
}

func (h *HeatField) ThreatAt(pos Vec2, affil Affiliation) float64 {
	l := h.layers[affil]
	if l == nil {
		return 0
	}
	return float64(l.sampleAt(pos))
}

func (h *HeatField) PersonalThreat(agent AgentID) float64 {
	return h.personal[agent]
}

func (h *HeatField) AimedShotThreat(hostile AgentID) float64 {
	return h.aimed[hostile]
}

func (h *HeatField) MostDangerousHostiles(n int) []AgentID {
	type scored struct {
		id AgentID
		v  float64
	}
	out := make([]scored, 0, len(h.aimed))
	for id, v := range h.aimed {
		out = append(out, scored{id, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].v != out[j].v {
			return out[i].v > out[j].v
		}
		return out[i].id < out[j].id
	})
	if n > len(out) {
		n = len(out)
	}
	ids := make([]AgentID, n)
	for i := 0; i < n; i++ {
		ids[i] = out[i].id
	}
	return ids
}
