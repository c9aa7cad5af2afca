package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/elementcapture/game/engine"
	"github.com/wricardo/elementcapture/game/service"
)

// Board layout on screen
const (
	originX   = 4
	originY   = 3
	cellWidth = 4
	eventBuf  = 64
)

// UI is a terminal host for one session. It turns mouse releases and key
// presses into taps and redraws the board after every state change.
type UI struct {
	screen    tcell.Screen
	service   service.GameService
	sessionID string

	board   *engine.BoardView
	cursor  engine.Coordinate
	pressed bool
	status  string
}

// New creates a UI for sessionID. The screen must already be initialised.
func New(screen tcell.Screen, svc service.GameService, sessionID string) *UI {
	return &UI{
		screen:    screen,
		service:   svc,
		sessionID: sessionID,
	}
}

// Run draws the board and processes events until the player quits or ctx is
// cancelled. The caller owns the screen and calls Fini afterwards.
func (u *UI) Run(ctx context.Context) error {
	if err := u.Refresh(ctx); err != nil {
		return err
	}
	u.screen.EnableMouse()
	u.Draw()

	events := make(chan tcell.Event, eventBuf)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !u.HandleEvent(ctx, ev) {
				return nil
			}
			u.Draw()
		}
	}
}

// Refresh reloads the board from the service
func (u *UI) Refresh(ctx context.Context) error {
	board, err := u.service.GetBoard(ctx, u.sessionID)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	u.board = board
	u.status = board.Message
	return nil
}

// HandleEvent applies one terminal event. It returns false when the player quits.
func (u *UI) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.handleKey(ctx, ev)

	case *tcell.EventMouse:
		x, y := ev.Position()
		if ev.Buttons()&tcell.Button1 != 0 {
			u.pressed = true
			return true
		}
		// A tap is a completed press and release
		if u.pressed {
			u.pressed = false
			if c, ok := u.TileAtScreen(x, y); ok {
				u.cursor = c
				u.tap(ctx, c)
			}
		}

	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.moveCursor(-1, 0)
	case tcell.KeyDown:
		u.moveCursor(1, 0)
	case tcell.KeyLeft:
		u.moveCursor(0, -1)
	case tcell.KeyRight:
		u.moveCursor(0, 1)
	case tcell.KeyEnter:
		u.tap(ctx, u.cursor)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			u.tap(ctx, u.cursor)
		case 'r':
			u.reset(ctx)
		}
	}
	return true
}

func (u *UI) moveCursor(dRow, dCol int) {
	if u.board == nil {
		return
	}
	next := engine.Coordinate{Row: u.cursor.Row + dRow, Col: u.cursor.Col + dCol}
	if next.Row >= 0 && next.Row < u.board.Rows && next.Col >= 0 && next.Col < u.board.Cols {
		u.cursor = next
	}
}

func (u *UI) tap(ctx context.Context, c engine.Coordinate) {
	resp, err := u.service.Tap(ctx, u.sessionID, c)
	if err != nil {
		// Out-of-range taps are absorbed; anything else is shown
		if !errors.Is(err, engine.ErrOutOfBounds) {
			u.status = err.Error()
		}
		return
	}
	u.board = resp.Board
	u.status = resp.Board.Message
}

func (u *UI) reset(ctx context.Context) {
	board, err := u.service.Reset(ctx, u.sessionID)
	if err != nil {
		u.status = err.Error()
		return
	}
	u.board = board
	u.status = "Board reset. " + board.Message
}

// Board returns the last board the UI rendered
func (u *UI) Board() *engine.BoardView { return u.board }

// Status returns the status line
func (u *UI) Status() string { return u.status }

// TileAtScreen resolves a screen cell to a board coordinate
func (u *UI) TileAtScreen(x, y int) (engine.Coordinate, bool) {
	if u.board == nil || x < originX || y < originY {
		return engine.Coordinate{}, false
	}
	c := engine.Coordinate{Row: y - originY, Col: (x - originX) / cellWidth}
	if c.Row >= u.board.Rows || c.Col >= u.board.Cols {
		return engine.Coordinate{}, false
	}
	return c, true
}

// ScreenPos returns the left-most screen cell of a tile
func ScreenPos(c engine.Coordinate) (int, int) {
	return originX + c.Col*cellWidth, originY + c.Row
}
