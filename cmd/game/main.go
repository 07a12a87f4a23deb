package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/LachlanMac/tacgrid/internal/tactics"
	"github.com/LachlanMac/tacgrid/internal/view"
)

func main() {
	var seed int64
	var tuningPath string
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.StringVar(&tuningPath, "tuning", "", "optional tuning yaml")
	flag.Parse()

	tuning := tactics.DefaultTuning()
	if tuningPath != "" {
		var err error
		if tuning, err = tactics.LoadTuning(tuningPath); err != nil {
			log.Fatal(err)
		}
	}

	ts := buildScenario(seed, tuning)

	ebiten.SetWindowTitle("tacgrid")
	ebiten.SetWindowSize(1600, 900)
	if err := ebiten.RunGame(view.New(ts.World)); err != nil {
		log.Fatal(err)
	}
}

// buildScenario is a two-floor engagement: a red fire team pushes across the
// ground floor against blue defenders in cover, while a second red pair
// patrols through the elevator to the upper floor.
func buildScenario(seed int64, tuning tactics.Tuning) *tactics.TestSim {
	ts := tactics.NewTestSim(
		tactics.WithMapSize(1280, 720),
		tactics.WithSeed(seed),
		tactics.WithTuning(tuning),
		tactics.WithFloor(1, 1280, 720),
		tactics.WithElevator(0, 70, 5),
		tactics.WithElevator(1, 70, 5),
		tactics.WithObstacle(0, 560, 200, 32, 160),
		tactics.WithObstacle(0, 560, 420, 32, 140),
		tactics.WithObstacle(1, 300, 300, 200, 32),
		tactics.WithCover(0, 28, 20, tactics.CoverFull),
		tactics.WithCover(0, 28, 25, tactics.CoverHalf),
		tactics.WithCover(0, 34, 22, tactics.CoverFull),
		tactics.WithCover(0, 40, 18, tactics.CoverHalf),
		tactics.WithCover(0, 18, 21, tactics.CoverHalf),
		tactics.WithCover(0, 14, 20, tactics.CoverHalf),
		tactics.WithCover(0, 14, 24, tactics.CoverHalf),
		tactics.WithRedAgent(0, 220, 330),
		tactics.WithRedAgent(1, 220, 390),
		tactics.WithRedAgent(2, 260, 350),
		tactics.WithRedAgent(3, 160, 120),
		tactics.WithRedAgent(4, 160, 170),
		tactics.WithBlueAgent(10, 460, 340),
		tactics.WithBlueAgent(11, 460, 380),
		tactics.WithBlueAgent(12, 700, 300),
		tactics.WithRedSquad(0, 1, 2),
		tactics.WithBlueSquad(10, 11, 12),
	)

	// The fire team starts with contacts on the near defenders; blue 10 is
	// flagged as taking aimed shots so it draws priority suppression.
	for _, red := range []int{0, 1, 2} {
		for _, blue := range []int{10, 11} {
			o := ts.Agent(red)
			h := ts.Agent(blue)
			o.Perception().Observe(tactics.Contact{
				Target: h.ID(), IsSniper: blue == 10, LastPos: h.Pos(),
			})
			h.Perception().Observe(tactics.Contact{
				Target: o.ID(), LastPos: o.Pos(),
			})
		}
	}
	ts.World.Threat().SetAimedShot(ts.Agent(10).ID(), 6.0)
	ts.World.Threat().RecordFireAt(ts.Agent(2).ID(), 60)

	// The second pair patrols a cross-floor loop through the elevator.
	for i, id := range []int{3, 4} {
		ts.Agent(id).CommandPatrol([]tactics.PatrolPoint{
			{Floor: 1, Tile: tactics.Tile{X: 20 + i*6, Y: 30}},
			{Floor: 0, Tile: tactics.Tile{X: 8 + i*6, Y: 6}},
		})
	}
	return ts
}
