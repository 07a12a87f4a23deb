// Package view is the interactive ebiten front end for the tactics arena.
// It renders one floor at a time with a pannable, zoomable camera and a
// debug HUD; the simulation itself stays headless-capable.
package view

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/LachlanMac/tacgrid/internal/tactics"
)

// borderWidth is the pixel gap between the window edge and the arena.
const borderWidth = 24

// hudPanelWidth is the fixed-width side panel for HUD text and the
// selected-agent inspector.
const hudPanelWidth = 300

var (
	colBackground = color.RGBA{R: 12, G: 14, B: 12, A: 255}
	colGround     = color.RGBA{R: 30, G: 34, B: 38, A: 255}
	colGridLine   = color.RGBA{R: 38, G: 44, B: 48, A: 255}
	colWall       = color.RGBA{R: 70, G: 70, B: 76, A: 255}
	colCoverFull  = color.RGBA{R: 110, G: 92, B: 60, A: 255}
	colCoverHalf  = color.RGBA{R: 96, G: 96, B: 64, A: 255}
	colElevator   = color.RGBA{R: 90, G: 60, B: 130, A: 255}
	colRed        = color.RGBA{R: 220, G: 70, B: 60, A: 255}
	colBlue       = color.RGBA{R: 70, G: 120, B: 230, A: 255}
	colCorpse     = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	colReserve    = color.RGBA{R: 240, G: 220, B: 90, A: 160}
	colWaypoint   = color.RGBA{R: 120, G: 200, B: 140, A: 170}
	colSuppress   = color.RGBA{R: 250, G: 200, B: 60, A: 200}
	colThreatRed  = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	colThreatBlue = color.RGBA{R: 60, G: 120, B: 255, A: 255}
)

type Game struct {
	world *tactics.World

	width      int
	height     int
	arenaW     int // pixel size of the largest floor
	arenaH     int
	offX, offY int

	floor int // displayed floor index

	// Camera pan + zoom.
	camX, camY float64
	camZoom    float64

	// Simulation speed control.
	simSpeed  float64
	tickAccum float64

	// Overlay toggles.
	showThreatRed  bool
	showThreatBlue bool
	showClaims     bool
	showPaths      bool
	showHUD        bool

	selected tactics.AgentID // 0 = nothing selected

	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool

	worldBuf *ebiten.Image
	face     text.Face

	statusMsg   string
	statusUntil int // tick after which statusMsg is dropped
}

// New wraps a world for interactive display. The window is sized to the
// largest floor plus the HUD panel.
func New(w *tactics.World) *Game {
	arenaW, arenaH := 0, 0
	for _, f := range w.Floors() {
		if pw := f.Grid.Cols() * tactics.TileSize; pw > arenaW {
			arenaW = pw
		}
		if ph := f.Grid.Rows() * tactics.TileSize; ph > arenaH {
			arenaH = ph
		}
	}
	g := &Game{
		world:    w,
		arenaW:   arenaW,
		arenaH:   arenaH,
		width:    borderWidth + arenaW + borderWidth + hudPanelWidth,
		height:   borderWidth + arenaH + borderWidth,
		offX:     borderWidth,
		offY:     borderWidth,
		camX:     float64(arenaW) / 2,
		camY:     float64(arenaH) / 2,
		camZoom:  1.0,
		simSpeed: 1.0,
		showHUD:  true,
		prevKeys: make(map[ebiten.Key]bool),
		worldBuf: ebiten.NewImage(arenaW, arenaH),
		face:     text.NewGoXFace(basicfont.Face7x13),
	}
	return g
}

func (g *Game) Update() error {
	g.handleInput()

	if g.simSpeed <= 0 {
		return nil
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.world.Step()
	}
	return nil
}

func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}

	// Overlay toggles.
	if pressed(ebiten.Key1) {
		g.showThreatRed = !g.showThreatRed
	}
	if pressed(ebiten.Key2) {
		g.showThreatBlue = !g.showThreatBlue
	}
	if pressed(ebiten.Key3) {
		g.showClaims = !g.showClaims
	}
	if pressed(ebiten.Key4) {
		g.showPaths = !g.showPaths
	}
	if pressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	// Tab: cycle displayed floor.
	if pressed(ebiten.KeyTab) {
		g.floor = (g.floor + 1) % len(g.world.Floors())
	}

	// Camera pan: WASD or arrow keys.
	panSpeed := 6.0 / g.camZoom
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.camY -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.camY += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.camX -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.camX += panSpeed
	}

	// Camera zoom: mouse wheel or =/- keys.
	const zoomMin, zoomMax = 0.5, 4.0
	_, wy := ebiten.Wheel()
	if wy != 0 {
		g.camZoom *= math.Pow(1.12, wy)
	}
	if pressed(ebiten.KeyEqual) {
		g.camZoom *= 1.25
	}
	if pressed(ebiten.KeyMinus) {
		g.camZoom /= 1.25
	}
	if g.camZoom < zoomMin {
		g.camZoom = zoomMin
	}
	if g.camZoom > zoomMax {
		g.camZoom = zoomMax
	}

	halfVW := float64(g.arenaW) / 2 / g.camZoom
	halfVH := float64(g.arenaH) / 2 / g.camZoom
	g.camX = clampF(g.camX, halfVW, float64(g.arenaW)-halfVW)
	g.camY = clampF(g.camY, halfVH, float64(g.arenaH)-halfVH)

	// Sim speed: P pauses, comma slower, period faster.
	speeds := []float64{0, 0.5, 1, 2, 4, 8}
	if pressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= g.simSpeed && i > 0 {
				g.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if pressed(ebiten.KeyPeriod) {
		for i := range speeds {
			if speeds[i] > g.simSpeed {
				g.simSpeed = speeds[i]
				break
			}
		}
	}

	// C: copy a full debug report to the system clipboard.
	if pressed(ebiten.KeyC) {
		if err := clipboard.WriteAll(g.debugReport()); err != nil {
			g.setStatus(fmt.Sprintf("clipboard error: %v", err))
		} else {
			g.setStatus("debug report copied to clipboard")
		}
	}

	// Left click: select the nearest agent on the displayed floor.
	mouseLeft := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if mouseLeft && !g.prevMouseLeft {
		mx, my := ebiten.CursorPosition()
		g.handleSelectClick(mx, my)
	}
	g.prevMouseLeft = mouseLeft

	g.prevKeys = currentKeys
}

// handleSelectClick maps a screen click back through the camera transform and
// picks the closest agent within one tile of the click.
func (g *Game) handleSelectClick(mx, my int) {
	wx := (float64(mx-g.offX) - float64(g.arenaW)/2) / g.camZoom + g.camX
	wy := (float64(my-g.offY) - float64(g.arenaH)/2) / g.camZoom + g.camY
	click := tactics.Vec2{X: wx, Y: wy}

	best := tactics.AgentID(0)
	bestDist := float64(tactics.TileSize)
	for _, a := range g.world.Agents() {
		if a.Floor() != g.floor {
			continue
		}
		if d := tactics.Dist(a.Pos(), click); d < bestDist {
			best, bestDist = a.ID(), d
		}
	}
	g.selected = best
}

func (g *Game) setStatus(msg string) {
	g.statusMsg = msg
	g.statusUntil = g.world.Tick() + 300
}

// debugReport is the text block placed on the clipboard: the world report
// plus the last five seconds of the simulation log.
func (g *Game) debugReport() string {
	var sb strings.Builder
	sb.WriteString(tactics.BuildReport(g.world).Format())
	sb.WriteString("\n--- recent log ---\n")
	tick := g.world.Tick()
	sb.WriteString(g.world.Log.FormatRange(tick-300, tick))
	return sb.String()
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)

	g.worldBuf.Clear()
	g.drawFloor(g.worldBuf)

	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(-g.camX, -g.camY)
	blit.GeoM.Scale(g.camZoom, g.camZoom)
	blit.GeoM.Translate(float64(g.arenaW)/2, float64(g.arenaH)/2)
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.worldBuf, &blit)

	// Arena border frame at screen coords.
	ox, oy := float32(g.offX), float32(g.offY)
	vector.StrokeRect(screen, ox-1, oy-1, float32(g.arenaW)+2, float32(g.arenaH)+2,
		2.0, color.RGBA{R: 70, G: 80, B: 70, A: 255}, false)

	if g.showHUD {
		g.drawHUD(screen)
	}
	if g.camZoom != 1.0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("zoom: %.1fx", g.camZoom), g.offX+6, g.offY+6)
	}
	if g.statusMsg != "" && g.world.Tick() < g.statusUntil {
		ebitenutil.DebugPrintAt(screen, g.statusMsg, g.offX+6, g.offY+g.arenaH-18)
	}
}

func (g *Game) drawFloor(buf *ebiten.Image) {
	f := g.world.Floors()[g.floor]
	grid := f.Grid
	cols, rows := grid.Cols(), grid.Rows()
	ts := float32(tactics.TileSize)

	vector.FillRect(buf, 0, 0, float32(cols)*ts, float32(rows)*ts, colGround, false)
	for x := 0; x <= cols; x++ {
		vector.StrokeLine(buf, float32(x)*ts, 0, float32(x)*ts, float32(rows)*ts, 1.0, colGridLine, false)
	}
	for y := 0; y <= rows; y++ {
		vector.StrokeLine(buf, 0, float32(y)*ts, float32(cols)*ts, float32(y)*ts, 1.0, colGridLine, false)
	}

	// Unwalkable tiles.
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !grid.IsWalkable(tactics.Tile{X: x, Y: y}) {
				vector.FillRect(buf, float32(x)*ts, float32(y)*ts, ts, ts, colWall, false)
			}
		}
	}

	// Elevator shafts.
	for _, e := range f.Elevators {
		vector.FillRect(buf, float32(e.X)*ts+2, float32(e.Y)*ts+2, ts-4, ts-4, colElevator, false)
	}

	// Cover objects: full cover is solid, half cover is a low outline.
	for _, c := range f.Cover.Covers() {
		t := c.Tile()
		x0, y0 := float32(t.X)*ts, float32(t.Y)*ts
		if c.Kind() == tactics.CoverFull {
			vector.FillRect(buf, x0+1, y0+1, ts-2, ts-2, colCoverFull, false)
		} else {
			vector.StrokeRect(buf, x0+2, y0+2, ts-4, ts-4, 2.0, colCoverHalf, false)
			vector.FillRect(buf, x0+4, y0+ts/2, ts-8, ts/2-4, colCoverHalf, false)
		}
	}

	if g.showThreatRed {
		g.drawThreatOverlay(buf, tactics.AffilRed, colThreatRed)
	}
	if g.showThreatBlue {
		g.drawThreatOverlay(buf, tactics.AffilBlue, colThreatBlue)
	}
	if g.showClaims {
		g.drawClaims(buf, f)
	}

	g.drawSuppressionLines(buf)
	g.drawAgents(buf)
}

// drawThreatOverlay tints tiles by the heat level the given affiliation sees.
func (g *Game) drawThreatOverlay(buf *ebiten.Image, affil tactics.Affiliation, base color.RGBA) {
	f := g.world.Floors()[g.floor]
	cols, rows := f.Grid.Cols(), f.Grid.Rows()
	ts := float32(tactics.TileSize)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := g.world.Threat().ThreatAt(tactics.Tile{X: x, Y: y}.Center(), affil)
			if v <= 0.01 {
				continue
			}
			alpha := v / 10.0
			if alpha > 0.6 {
				alpha = 0.6
			}
			c := base
			c.A = uint8(alpha * 255)
			vector.FillRect(buf, float32(x)*ts, float32(y)*ts, ts, ts, c, false)
		}
	}
}

// drawClaims outlines every reserved tile in the ledger.
func (g *Game) drawClaims(buf *ebiten.Image, f *tactics.Floor) {
	ts := float32(tactics.TileSize)
	for _, a := range g.world.Agents() {
		if a.Floor() != g.floor {
			continue
		}
		if t, ok := f.Ledger.ReservedTile(a.ID()); ok {
			vector.StrokeRect(buf, float32(t.X)*ts+1, float32(t.Y)*ts+1, ts-2, ts-2, 1.5, colReserve, false)
		}
	}
}

// drawSuppressionLines draws suppressor -> target lines for every active
// squad fire assignment on the displayed floor.
func (g *Game) drawSuppressionLines(buf *ebiten.Image) {
	for _, sq := range g.world.Squads() {
		for target, suppressor := range sq.Assignments() {
			s := g.world.Agent(suppressor)
			t := g.world.Agent(target)
			if s == nil || t == nil || s.Floor() != g.floor || t.Floor() != g.floor {
				continue
			}
			vector.StrokeLine(buf,
				float32(s.Pos().X), float32(s.Pos().Y),
				float32(t.Pos().X), float32(t.Pos().Y),
				1.5, colSuppress, false)
		}
	}
}

func (g *Game) drawAgents(buf *ebiten.Image) {
	for _, a := range g.world.Agents() {
		if a.Floor() != g.floor {
			continue
		}
		pos := a.Pos()
		x, y := float32(pos.X), float32(pos.Y)

		if !a.Alive() {
			vector.StrokeLine(buf, x-4, y-4, x+4, y+4, 2.0, colCorpse, false)
			vector.StrokeLine(buf, x-4, y+4, x+4, y-4, 2.0, colCorpse, false)
			continue
		}

		if g.showPaths {
			wps := a.Motion().RemainingWaypoints()
			prev := pos
			for _, wp := range wps {
				vector.StrokeLine(buf, float32(prev.X), float32(prev.Y),
					float32(wp.X), float32(wp.Y), 1.0, colWaypoint, false)
				prev = wp
			}
			if len(wps) > 0 {
				end := wps[len(wps)-1]
				vector.StrokeCircle(buf, float32(end.X), float32(end.Y), 3, 1.0, colWaypoint, false)
			}
		}

		c := colRed
		if a.Affil() == tactics.AffilBlue {
			c = colBlue
		}
		vector.DrawFilledCircle(buf, x, y, 6, c, true)

		// Leader chevron.
		if sq := g.world.SquadOf(a.ID()); sq != nil && sq.Leader() == a.ID() {
			vector.StrokeLine(buf, x-4, y-9, x, y-13, 1.5, c, false)
			vector.StrokeLine(buf, x, y-13, x+4, y-9, 1.5, c, false)
		}
		if a.ID() == g.selected {
			vector.StrokeCircle(buf, x, y, 9, 1.5, color.RGBA{R: 255, G: 255, B: 255, A: 220}, false)
		}
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	px := g.offX + g.arenaW + borderWidth
	py := g.offY

	title := &text.DrawOptions{}
	title.GeoM.Translate(float64(px), float64(py))
	title.ColorScale.ScaleWithColor(color.RGBA{R: 210, G: 220, B: 210, A: 255})
	text.Draw(screen, "TACGRID", g.face, title)
	py += 22

	r := tactics.BuildReport(g.world)
	lines := []string{
		fmt.Sprintf("tick %d  floor %d/%d  speed %.1fx", r.Tick, g.floor, len(g.world.Floors())-1, g.simSpeed),
		fmt.Sprintf("red %d/%d  blue %d/%d alive", r.RedAlive, r.RedAlive+r.RedDead, r.BlueAlive, r.BlueAlive+r.BlueDead),
		"",
		"[1] red threat  [2] blue threat",
		"[3] claims      [4] paths",
		"[tab] floor     [p] pause",
		"[,/.] speed     [c] copy report",
		"[wasd] pan      [=/-] zoom",
		"[click] inspect [h] hide hud",
	}
	for _, ln := range lines {
		ebitenutil.DebugPrintAt(screen, ln, px, py)
		py += 16
	}

	if a := g.world.Agent(g.selected); a != nil {
		py += 8
		info := []string{
			fmt.Sprintf("-- %s --", a.Label()),
			fmt.Sprintf("state   %s", a.StateName()),
			fmt.Sprintf("motion  %s -> (%d,%d)", a.Motion().State(), a.Motion().Dest().X, a.Motion().Dest().Y),
			fmt.Sprintf("hp      %.0f", a.Health()),
			fmt.Sprintf("threat  %.1f", g.world.Threat().PersonalThreat(a.ID())),
			fmt.Sprintf("contacts %d", len(a.Perception().PerceivedHostiles())),
		}
		if !a.Alive() {
			info[1] = "state   dead"
		}
		for _, ln := range info {
			ebitenutil.DebugPrintAt(screen, ln, px, py)
			py += 16
		}
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

func clampF(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
