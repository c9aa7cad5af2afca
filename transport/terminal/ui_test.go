package terminal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/elementcapture/game/config"
	"github.com/wricardo/elementcapture/game/engine"
	"github.com/wricardo/elementcapture/game/service"
	"github.com/wricardo/elementcapture/game/session"
)

func newTestUI(t *testing.T) (*UI, tcell.SimulationScreen) {
	t.Helper()

	configs, err := config.NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), configs)
	info, err := svc.CreateSession(context.Background(), "classic")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	ui := New(screen, svc, info.ID)
	if err := ui.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return ui, screen
}

func click(ctx context.Context, ui *UI, c engine.Coordinate) {
	x, y := ScreenPos(c)
	ui.HandleEvent(ctx, tcell.NewEventMouse(x+1, y, tcell.Button1, tcell.ModNone))
	ui.HandleEvent(ctx, tcell.NewEventMouse(x+1, y, tcell.ButtonNone, tcell.ModNone))
}

func readText(screen tcell.SimulationScreen, x, y, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		r, _, _, _ := screen.GetContent(x+i, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestTileAtScreen(t *testing.T) {
	ui, _ := newTestUI(t)

	tests := []struct {
		x, y int
		want engine.Coordinate
		ok   bool
	}{
		{originX, originY, engine.Coordinate{Row: 0, Col: 0}, true},
		{originX + cellWidth - 1, originY, engine.Coordinate{Row: 0, Col: 0}, true},
		{originX + cellWidth, originY + 2, engine.Coordinate{Row: 2, Col: 1}, true},
		{originX + 4*cellWidth + 3, originY + 8, engine.Coordinate{Row: 8, Col: 4}, true},
		{originX + 5*cellWidth, originY, engine.Coordinate{}, false},
		{originX, originY + 9, engine.Coordinate{}, false},
		{0, 0, engine.Coordinate{}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d", tt.x, tt.y), func(t *testing.T) {
			got, ok := ui.TileAtScreen(tt.x, tt.y)
			if ok != tt.ok || got != tt.want {
				t.Errorf("TileAtScreen(%d,%d) = %v,%v want %v,%v", tt.x, tt.y, got, ok, tt.want, tt.ok)
			}
		})
	}

	for _, c := range []engine.Coordinate{{Row: 0, Col: 0}, {Row: 4, Col: 2}, {Row: 8, Col: 4}} {
		x, y := ScreenPos(c)
		if got, ok := ui.TileAtScreen(x, y); !ok || got != c {
			t.Errorf("ScreenPos/TileAtScreen round trip for %s gave %v", c, got)
		}
	}
}

func TestClickSelectAndCapture(t *testing.T) {
	ui, _ := newTestUI(t)
	ctx := context.Background()

	// Press without release is not a tap
	x, y := ScreenPos(engine.Coordinate{Row: 2, Col: 0})
	ui.HandleEvent(ctx, tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	if ui.Board().Phase != engine.AwaitingSource {
		t.Fatal("Press alone must not select")
	}
	ui.HandleEvent(ctx, tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
	if ui.Board().Phase != engine.SourceSelected {
		t.Fatalf("Expected source_selected after release, got %s", ui.Board().Phase)
	}

	// Fire at (2,0) takes the earth at (2,1)
	click(ctx, ui, engine.Coordinate{Row: 2, Col: 1})
	board := ui.Board()
	if board.ActivePlayer != engine.Player2 || board.TotalCaptures != 1 {
		t.Fatalf("Expected capture and turn change, got %s with %d captures", board.ActivePlayer, board.TotalCaptures)
	}
	tile, _ := board.TileAt(engine.Coordinate{Row: 2, Col: 1})
	if tile.Element != engine.Fire || tile.Owner != engine.Player1 {
		t.Errorf("Expected captured tile fire/player1, got %s/%s", tile.Element, tile.Owner)
	}
}

func TestClickOutsideBoardIgnored(t *testing.T) {
	ui, _ := newTestUI(t)
	ctx := context.Background()

	before := ui.Status()
	ui.HandleEvent(ctx, tcell.NewEventMouse(70, 20, tcell.Button1, tcell.ModNone))
	ui.HandleEvent(ctx, tcell.NewEventMouse(70, 20, tcell.ButtonNone, tcell.ModNone))

	if ui.Board().Phase != engine.AwaitingSource || ui.Status() != before {
		t.Error("Click outside the board should change nothing")
	}
}

func TestKeyboard(t *testing.T) {
	ui, _ := newTestUI(t)
	ctx := context.Background()

	// Cursor starts at (0,0); move to (2,0) and select with Enter
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)) // clamped
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	if src := ui.Board().Source; src == nil || src.Coord != (engine.Coordinate{Row: 2, Col: 0}) {
		t.Fatalf("Expected (2,0) selected, got %+v", src)
	}

	// Space on the same tile deselects
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if ui.Board().Phase != engine.AwaitingSource {
		t.Error("Expected deselect")
	}

	click(ctx, ui, engine.Coordinate{Row: 2, Col: 0})
	click(ctx, ui, engine.Coordinate{Row: 2, Col: 1})
	ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if ui.Board().ActivePlayer != engine.Player1 || !strings.HasPrefix(ui.Status(), "Board reset") {
		t.Errorf("Expected reset board, got %s / %q", ui.Board().ActivePlayer, ui.Status())
	}

	if ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if ui.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
}

func TestDraw(t *testing.T) {
	ui, screen := newTestUI(t)
	ctx := context.Background()

	click(ctx, ui, engine.Coordinate{Row: 2, Col: 0})
	ui.Draw()

	x, y := ScreenPos(engine.Coordinate{Row: 2, Col: 0})
	if got := readText(screen, x, y, cellWidth); got != "[F1]" {
		t.Errorf("Expected selected tile [F1], got %q", got)
	}
	_, _, style, _ := screen.GetContent(x+1, y)
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrReverse == 0 {
		t.Error("Selected tile should be drawn reversed")
	}

	x, y = ScreenPos(engine.Coordinate{Row: 2, Col: 1})
	if got := readText(screen, x, y, cellWidth); got != "<E1>" {
		t.Errorf("Expected legal target <E1>, got %q", got)
	}

	x, y = ScreenPos(engine.Coordinate{Row: 8, Col: 2})
	if got := readText(screen, x, y, cellWidth); got != " W2 " {
		t.Errorf("Expected inert tile ' W2 ', got %q", got)
	}

	if header := readText(screen, 0, 1, 20); !strings.HasPrefix(header, "player1 to move") {
		t.Errorf("Unexpected status line %q", header)
	}
}

func TestTileText(t *testing.T) {
	tests := []struct {
		tile engine.TileView
		want string
	}{
		{engine.TileView{Element: engine.Fire, Owner: engine.Player1, Interaction: engine.Selected}, "[F1]"},
		{engine.TileView{Element: engine.Earth, Owner: engine.NoOwner, Interaction: engine.Selectable}, "<E0>"},
		{engine.TileView{Element: engine.Water, Owner: engine.Player2, Interaction: engine.Inert}, " W2 "},
	}
	for _, tt := range tests {
		if got := TileText(tt.tile); got != tt.want {
			t.Errorf("TileText(%+v) = %q, want %q", tt.tile, got, tt.want)
		}
	}

	fg, bg, _ := TileStyle(engine.TileView{Element: engine.Water, Owner: engine.Player2}).Decompose()
	if bg != tcell.ColorNavy || fg != tcell.ColorYellow {
		t.Errorf("Unexpected water/player2 colours fg=%v bg=%v", fg, bg)
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	ui, screen := newTestUI(t)

	done := make(chan error, 1)
	go func() { done <- ui.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after q")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ui, _ := newTestUI(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ui.Run(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
