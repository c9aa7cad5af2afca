package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/elementcapture/game/engine"
)

var elementColors = map[engine.Element]tcell.Color{
	engine.Fire:  tcell.ColorDarkRed,
	engine.Earth: tcell.ColorOlive,
	engine.Water: tcell.ColorNavy,
}

var ownerColors = map[engine.Owner]tcell.Color{
	engine.Player1: tcell.ColorWhite,
	engine.Player2: tcell.ColorYellow,
	engine.NoOwner: tcell.ColorSilver,
}

// TileStyle returns the style a tile is drawn with
func TileStyle(t engine.TileView) tcell.Style {
	style := tcell.StyleDefault.
		Background(elementColors[t.Element]).
		Foreground(ownerColors[t.Owner])
	if t.Owner != engine.NoOwner {
		style = style.Bold(true)
	}
	if t.Interaction == engine.Selected {
		style = style.Reverse(true)
	}
	return style
}

// TileText returns the four cells drawn for a tile: brackets mark the
// selection, angle brackets mark legal taps.
func TileText(t engine.TileView) string {
	body := string([]byte{engine.ElementChar(t.Element), engine.OwnerChar(t.Owner)})
	switch t.Interaction {
	case engine.Selected:
		return "[" + body + "]"
	case engine.Selectable:
		return "<" + body + ">"
	}
	return " " + body + " "
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Draw renders the whole frame from the current board view
func (u *UI) Draw() {
	u.screen.Clear()
	defer u.screen.Show()

	if u.board == nil {
		drawText(u.screen, 0, 0, tcell.StyleDefault, "No board")
		return
	}
	b := u.board

	header := tcell.StyleDefault.Bold(true)
	drawText(u.screen, 0, 0, header, fmt.Sprintf("Element Capture | %s | session %s", b.ConfigName, u.sessionID))
	drawText(u.screen, 0, 1, tcell.StyleDefault, fmt.Sprintf("%s to move (%s)  player1:%d player2:%d neutral:%d",
		b.ActivePlayer, b.Phase, b.Standings.Player1, b.Standings.Player2, b.Standings.Neutral))

	for col := 0; col < b.Cols; col++ {
		x, _ := ScreenPos(engine.Coordinate{Col: col})
		drawText(u.screen, x+1, originY-1, tcell.StyleDefault.Dim(true), fmt.Sprintf("%d", col))
	}

	for _, t := range b.Tiles {
		x, y := ScreenPos(t.Coord)
		if t.Coord.Col == 0 {
			drawText(u.screen, 0, y, tcell.StyleDefault.Dim(true), fmt.Sprintf("%2d", t.Coord.Row))
		}
		style := TileStyle(t)
		if t.Coord == u.cursor {
			style = style.Underline(true)
		}
		drawText(u.screen, x, y, style, TileText(t))
	}

	footer := originY + b.Rows + 1
	drawText(u.screen, 0, footer, tcell.StyleDefault, u.status)
	drawText(u.screen, 0, footer+1, tcell.StyleDefault.Dim(true),
		"click or arrows+enter: tap | r: reset | q: quit")
}
