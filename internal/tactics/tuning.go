package tactics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects every gameplay constant the decision layer consumes.
// Values load from yaml so scenarios can rebalance without recompiling.
type Tuning struct {
	// Destination scoring weights.
	WeightDist       float64 `yaml:"weight_dist"`        // per unit of path length, subtracted
	WeightThreatPath float64 `yaml:"weight_threat_path"` // per unit of summed path threat, subtracted
	WeightThreatDest float64 `yaml:"weight_threat_dest"` // negative: threat at the destination itself
	WeightCover      float64 `yaml:"weight_cover"`       // per unit of cover quality at the tile
	WeightLOS        float64 `yaml:"weight_los"`         // flat bonus when the tile sees the target

	// Movement.
	MoveMaxSpeed      float64 `yaml:"move_max_speed"`      // world units per tick
	MoveAccel         float64 `yaml:"move_accel"`          // base speed gain per tick
	ArrivalTolerance  float64 `yaml:"arrival_tolerance"`   // world units
	PathCooldownTicks int     `yaml:"path_cooldown_ticks"` // min ticks between path requests per agent

	// Squad coordination.
	SquadCheckBaseTicks  int     `yaml:"squad_check_base_ticks"` // interval at zero tactical skill
	SquadCheckSkillScale float64 `yaml:"squad_check_skill_scale"`
	SquadCheckMinTicks   int     `yaml:"squad_check_min_ticks"`
	SniperThreatMin      float64 `yaml:"sniper_threat_min"`     // aimed-shot threat above this marks a sniper
	SuppressThreatMax    float64 `yaml:"suppress_threat_max"`   // personal threat ceiling for suppressors
	OwnCoverBlockFrac    float64 `yaml:"own_cover_block_frac"`  // tunable; inherited heuristic, not load-bearing
	SuppressScoreBase    float64 `yaml:"suppress_score_base"`
	SuppressScoreHealth  float64 `yaml:"suppress_score_health"`
	SuppressScoreAcc     float64 `yaml:"suppress_score_acc"`
	SuppressScoreThreat  float64 `yaml:"suppress_score_threat"`
	SuppressScoreJitter  float64 `yaml:"suppress_score_jitter"`

	// Winning-engagement heuristic.
	WinMemberLead int     `yaml:"win_member_lead"`
	WinHealthLead float64 `yaml:"win_health_lead"` // average health fraction lead

	// Behavior states.
	SearchMaxPoints    int `yaml:"search_max_points"`
	SearchTimeoutTicks int `yaml:"search_timeout_ticks"`
	PatrolMaxRetries   int `yaml:"patrol_max_retries"`
	ElevatorWaitTicks  int `yaml:"elevator_wait_ticks"`
}

// DefaultTuning returns the baseline balance used by the bundled scenarios.
func DefaultTuning() Tuning {
	return Tuning{
		WeightDist:       1.0,
		WeightThreatPath: 2.0,
		WeightThreatDest: -3.0,
		WeightCover:      4.0,
		WeightLOS:        2.0,

		MoveMaxSpeed:      1.5,
		MoveAccel:         0.08,
		ArrivalTolerance:  2.0,
		PathCooldownTicks: 12,

		SquadCheckBaseTicks:  90,
		SquadCheckSkillScale: 60,
		SquadCheckMinTicks:   20,
		SniperThreatMin:      2.0,
		SuppressThreatMax:    40.0,
		OwnCoverBlockFrac:    0.30,
		SuppressScoreBase:    1.0,
		SuppressScoreHealth:  1.0,
		SuppressScoreAcc:     1.0,
		SuppressScoreThreat:  0.02,
		SuppressScoreJitter:  0.15,

		WinMemberLead: 2,
		WinHealthLead: 0.20,

		SearchMaxPoints:    4,
		SearchTimeoutTicks: 600,
		PatrolMaxRetries:   3,
		ElevatorWaitTicks:  90,
	}
}

// LoadTuning reads a yaml tuning file. Unset fields keep their zero value, so
// files are expected to be complete; start from the output of DefaultTuning.
func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	return t, nil
}
