package tactics

import (
	"math"
	"testing"
)

func TestHeatFieldRecordFireSplash(t *testing.T) {
	hf := NewHeatField(320, 320)
	center := Tile{X: 5, Y: 5}
	hf.RecordFire(center.Center(), AffilRed, 0.4)

	if got := hf.ThreatAt(center.Center(), AffilRed); math.Abs(got-0.4) > 1e-6 {
		t.Fatalf("expected 0.4 at the impact tile, got %v", got)
	}
	north := Tile{X: 5, Y: 4}
	if got := hf.ThreatAt(north.Center(), AffilRed); math.Abs(got-0.2) > 1e-6 {
		t.Fatalf("expected half splash 0.2 one tile out, got %v", got)
	}
	if got := hf.ThreatAt(center.Center(), AffilBlue); got != 0 {
		t.Fatalf("fire against red must not heat the blue layer, got %v", got)
	}
}

func TestHeatFieldCapsAtMax(t *testing.T) {
	hf := NewHeatField(320, 320)
	p := Tile{X: 3, Y: 3}.Center()
	for i := 0; i < 10; i++ {
		hf.RecordFire(p, AffilBlue, 0.5)
	}
	if got := hf.ThreatAt(p, AffilBlue); got > heatMax {
		t.Fatalf("heat must cap at %v, got %v", heatMax, got)
	}
}

func TestHeatFieldDecay(t *testing.T) {
	hf := NewHeatField(320, 320)
	p := Tile{X: 4, Y: 4}.Center()
	hf.RecordFire(p, AffilRed, 0.1)

	before := hf.ThreatAt(p, AffilRed)
	hf.Decay()
	after := hf.ThreatAt(p, AffilRed)
	if after >= before {
		t.Fatalf("decay should cool the cell: before=%v after=%v", before, after)
	}
	for i := 0; i < 100; i++ {
		hf.Decay()
	}
	if got := hf.ThreatAt(p, AffilRed); got != 0 {
		t.Fatalf("heat should bottom out at zero, got %v", got)
	}
}

func TestPersonalThreatAccumulatesAndDecays(t *testing.T) {
	hf := NewHeatField(320, 320)
	hf.RecordFireAt(7, 3)
	hf.RecordFireAt(7, 3)
	if got := hf.PersonalThreat(7); math.Abs(got-6) > 1e-9 {
		t.Fatalf("expected accumulated 6, got %v", got)
	}
	hf.RecordFireAt(7, 500)
	if got := hf.PersonalThreat(7); got != personalThreatCap {
		t.Fatalf("personal threat must cap at %v, got %v", personalThreatCap, got)
	}
	hf.Decay()
	if got := hf.PersonalThreat(7); got >= personalThreatCap {
		t.Fatalf("personal threat should decay, got %v", got)
	}
}

func TestMostDangerousHostilesOrdering(t *testing.T) {
	hf := NewHeatField(320, 320)
	hf.SetAimedShot(3, 1.5)
	hf.SetAimedShot(1, 6.0)
	hf.SetAimedShot(2, 4.0)

	got := hf.MostDangerousHostiles(2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
	// All of them when n exceeds the roster.
	if got := hf.MostDangerousHostiles(10); len(got) != 3 {
		t.Fatalf("expected 3 hostiles, got %v", got)
	}
}

func TestForgetDropsAgentThreat(t *testing.T) {
	hf := NewHeatField(320, 320)
	hf.RecordFireAt(5, 4)
	hf.SetAimedShot(5, 2)

	hf.Forget(5)
	if hf.PersonalThreat(5) != 0 || hf.AimedShotThreat(5) != 0 {
		t.Fatal("forget must drop all per-agent threat")
	}
}
