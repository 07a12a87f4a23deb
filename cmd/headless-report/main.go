package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/LachlanMac/tacgrid/internal/tactics"
	"github.com/LachlanMac/tacgrid/internal/telemetry"
)

type runStats struct {
	runIndex int
	seed     int64

	firstIntelTick       int
	firstSuppressionTick int
	firstCoverBreakTick  int
	firstKillTick        int

	stateChanges  int
	suppressions  int
	intelShares   int
	rerouteEvents int
	leaderChanges int

	redAlive, blueAlive int
	redDead, blueDead   int
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var tuningPath string
	var dbPath string

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "skirmish", "scenario name (skirmish, patrol-floors)")
	flag.StringVar(&tuningPath, "tuning", "", "optional tuning yaml; defaults apply when empty")
	flag.StringVar(&dbPath, "db", "", "optional sqlite database to append run results to")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		os.Exit(1)
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		os.Exit(1)
	}
	build, ok := scenarios[scenario]
	if !ok {
		fmt.Printf("error: unknown scenario %q (supported: skirmish, patrol-floors)\n", scenario)
		os.Exit(1)
	}

	tuning := tactics.DefaultTuning()
	if tuningPath != "" {
		var err error
		if tuning, err = tactics.LoadTuning(tuningPath); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
	}

	var rec *telemetry.Recorder
	if dbPath != "" {
		var err error
		if rec, err = telemetry.Open(dbPath); err != nil {
			fmt.Printf("error: open db: %v\n", err)
			os.Exit(1)
		}
		defer rec.Close()
	}

	fmt.Println("=== Headless Engagement Report ===")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		scenario, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		ts := build(seed, tuning)
		ts.RunTicks(ticks)

		stats := collect(i+1, seed, ts)
		all = append(all, stats)
		printRun(stats)

		if rec != nil {
			_, err := rec.RecordRun(telemetry.RunResult{
				Scenario:  scenario,
				Seed:      seed,
				Ticks:     ticks,
				RedAlive:  stats.redAlive,
				BlueAlive: stats.blueAlive,
				RedDead:   stats.redDead,
				BlueDead:  stats.blueDead,
			}, ts.SimLog.Entries())
			if err != nil {
				fmt.Printf("warning: record run %d: %v\n", i+1, err)
			}
		}
	}

	printAggregate(all)

	if rec != nil {
		sum, err := rec.Summarize(scenario)
		if err != nil {
			fmt.Printf("warning: summarize db: %v\n", err)
			return
		}
		fmt.Printf("\ndb: %d recorded runs for %q, avg alive red=%.1f blue=%.1f\n",
			sum.Runs, scenario, sum.AvgRedAlive, sum.AvgBlueAlive)
	}
}

var scenarios = map[string]func(seed int64, tn tactics.Tuning) *tactics.TestSim{
	"skirmish":      buildSkirmish,
	"patrol-floors": buildPatrolFloors,
}

// buildSkirmish is a flat-map fire team engagement: a red fire team against
// two blue defenders behind cover, with contacts pre-seeded on both sides so
// squad coordination starts on the first check.
func buildSkirmish(seed int64, tn tactics.Tuning) *tactics.TestSim {
	ts := tactics.NewTestSim(
		tactics.WithMapSize(1280, 720),
		tactics.WithSeed(seed),
		tactics.WithTuning(tn),
		tactics.WithObstacle(0, 560, 200, 32, 160),
		tactics.WithCover(0, 28, 20, tactics.CoverFull),
		tactics.WithCover(0, 28, 25, tactics.CoverHalf),
		tactics.WithCover(0, 34, 22, tactics.CoverFull),
		tactics.WithCover(0, 18, 21, tactics.CoverHalf),
		tactics.WithCover(0, 14, 20, tactics.CoverHalf),
		tactics.WithCover(0, 14, 24, tactics.CoverHalf),
		tactics.WithRedAgent(0, 220, 330),
		tactics.WithRedAgent(1, 220, 390),
		tactics.WithRedAgent(2, 260, 350),
		tactics.WithBlueAgent(10, 460, 340),
		tactics.WithBlueAgent(11, 460, 380),
		tactics.WithRedSquad(0, 1, 2),
		tactics.WithBlueSquad(10, 11),
	)
	for _, red := range []int{0, 1, 2} {
		for _, blue := range []int{10, 11} {
			seeContact(ts, red, blue)
			seeContact(ts, blue, red)
		}
	}
	// blue 10 is taking aimed shots, which makes it a priority suppression
	// target for the red squad
	ts.World.Threat().SetAimedShot(ts.Agent(10).ID(), 6.0)
	// red 2 opens the run under heavy incoming fire and should break for cover
	ts.World.Threat().RecordFireAt(ts.Agent(2).ID(), 60)
	ts.Agent(2).Perception().MarkFiredOn(ts.Agent(11).ID(), ts.Agent(11).Pos(), 0)
	ts.World.Threat().RecordFire(tactics.Vec2{X: 640, Y: 360}, tactics.AffilRed, 0.8)
	return ts
}

// buildPatrolFloors runs two red agents on looping cross-floor patrol routes
// through an elevator pair. No hostiles; this measures movement throughput
// and reroute behavior.
func buildPatrolFloors(seed int64, tn tactics.Tuning) *tactics.TestSim {
	ts := tactics.NewTestSim(
		tactics.WithMapSize(640, 640),
		tactics.WithSeed(seed),
		tactics.WithTuning(tn),
		tactics.WithFloor(1, 640, 640),
		tactics.WithElevator(0, 20, 20),
		tactics.WithElevator(1, 20, 20),
		tactics.WithObstacle(1, 160, 160, 32, 256),
		tactics.WithRedAgent(0, 60, 60),
		tactics.WithRedAgent(1, 60, 120),
	)
	for i, id := range []int{0, 1} {
		ts.Agent(id).CommandPatrol([]tactics.PatrolPoint{
			{Floor: 1, Tile: tactics.Tile{X: 10 + i*4, Y: 30}},
			{Floor: 0, Tile: tactics.Tile{X: 4 + i*4, Y: 4}},
		})
	}
	return ts
}

func seeContact(ts *tactics.TestSim, observer, hostile int) {
	h := ts.Agent(hostile)
	ts.Agent(observer).Perception().Observe(tactics.Contact{
		Target:   h.ID(),
		IsSniper: hostile == 10,
		LastPos:  h.Pos(),
		LastTick: ts.World.Tick(),
	})
}

func collect(runIndex int, seed int64, ts *tactics.TestSim) runStats {
	s := runStats{
		runIndex:             runIndex,
		seed:                 seed,
		firstIntelTick:       -1,
		firstSuppressionTick: -1,
		firstCoverBreakTick:  -1,
		firstKillTick:        -1,
	}

	for _, e := range ts.SimLog.Entries() {
		switch {
		case e.Category == "squad" && e.Key == "intel_shared":
			s.intelShares++
			if s.firstIntelTick < 0 {
				s.firstIntelTick = e.Tick
			}
		case e.Category == "squad" && e.Key == "suppression_assigned":
			s.suppressions++
			if s.firstSuppressionTick < 0 {
				s.firstSuppressionTick = e.Tick
			}
		case e.Category == "squad" && e.Key == "leader_succession":
			s.leaderChanges++
		case e.Category == "state" && e.Key == "change":
			s.stateChanges++
			if s.firstCoverBreakTick < 0 && strings.HasSuffix(e.Value, "-> seek_cover") {
				s.firstCoverBreakTick = e.Tick
			}
		case e.Category == "agent" && e.Key == "killed":
			if s.firstKillTick < 0 {
				s.firstKillTick = e.Tick
			}
		case e.Category == "think" && e.Key == "trace":
			if strings.Contains(e.Value, "reroute") {
				s.rerouteEvents++
			}
		}
	}

	r := tactics.BuildReport(ts.World)
	s.redAlive, s.blueAlive = r.RedAlive, r.BlueAlive
	s.redDead, s.blueDead = r.RedDead, r.BlueDead
	return s
}

func printRun(s runStats) {
	fmt.Printf("--- run %d (seed %d) ---\n", s.runIndex, s.seed)
	fmt.Printf("  first: intel=%s suppression=%s cover_break=%s kill=%s\n",
		tickStr(s.firstIntelTick), tickStr(s.firstSuppressionTick),
		tickStr(s.firstCoverBreakTick), tickStr(s.firstKillTick))
	fmt.Printf("  events: state_changes=%d suppressions=%d intel_shares=%d reroutes=%d leader_changes=%d\n",
		s.stateChanges, s.suppressions, s.intelShares, s.rerouteEvents, s.leaderChanges)
	fmt.Printf("  outcome: red alive=%d dead=%d, blue alive=%d dead=%d\n\n",
		s.redAlive, s.redDead, s.blueAlive, s.blueDead)
}

func tickStr(t int) string {
	if t < 0 {
		return "never"
	}
	return fmt.Sprintf("T=%d", t)
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	var suppressions, stateChanges, reroutes, intelShares int
	suppressedRuns := 0
	for _, s := range all {
		suppressions += s.suppressions
		stateChanges += s.stateChanges
		reroutes += s.rerouteEvents
		intelShares += s.intelShares
		if s.firstSuppressionTick >= 0 {
			suppressedRuns++
		}
	}
	n := float64(len(all))
	fmt.Printf("=== aggregate over %d runs ===\n", len(all))
	fmt.Printf("  avg per run: suppressions=%.1f state_changes=%.1f intel_shares=%.1f reroutes=%.1f\n",
		float64(suppressions)/n, float64(stateChanges)/n, float64(intelShares)/n, float64(reroutes)/n)
	fmt.Printf("  runs with a suppression assignment: %d/%d\n", suppressedRuns, len(all))
}
