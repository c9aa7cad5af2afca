package engine

import (
	"fmt"
	"time"
)

// GameEngine owns one board and its turn state. It is not safe for concurrent
// use; callers serialize taps.
type GameEngine struct {
	config  *GameConfig
	initial *Board
	board   *Board
	turn    TurnState
	first   Owner
	message string

	history []CaptureEntry
	current int
	// revision counts state changes; never reset
	revision int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	board, err := NewBoardFromConfig(config)
	if err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:  config,
		initial: board.Clone(),
		board:   board,
		first:   config.First(),
	}
	e.start()
	return e, nil
}

// NewEngineWithBoard creates an engine around a hand-built board
func NewEngineWithBoard(board *Board, first Owner) (*GameEngine, error) {
	if board == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	if !first.IsPlayer() {
		return nil, fmt.Errorf("%w: first player must be %s or %s, got %q", ErrIntegrityViolation, Player1, Player2, first)
	}

	e := &GameEngine{
		config: &GameConfig{
			Name:        "custom",
			Description: "Hand-built board",
			Rows:        board.Rows(),
			Cols:        board.Cols(),
			FirstPlayer: first,
		},
		initial: board.Clone(),
		board:   board.Clone(),
		first:   first,
	}
	e.start()
	return e, nil
}

func (e *GameEngine) start() {
	e.turn = TurnState{Active: e.first}
	e.board.RecomputeInteraction(e.turn)
	e.message = fmt.Sprintf("%s to move", playerName(e.turn.Active))
}

// Tap feeds one TileTapped event through the turn machine. Out-of-range
// coordinates and integrity failures leave all state untouched.
func (e *GameEngine) Tap(c Coordinate) (TapResult, error) {
	tile, err := e.board.TileAt(c)
	if err != nil {
		return TapResult{}, err
	}
	if !e.turn.Active.IsPlayer() {
		return TapResult{}, fmt.Errorf("%w: active player is %q", ErrIntegrityViolation, e.turn.Active)
	}

	result := TapResult{Outcome: OutcomeIgnored, Coord: c, Player: e.turn.Active}

	switch tile.Interaction {
	case Selected:
		e.turn.Source = nil
		result.Outcome = OutcomeDeselected
		e.message = fmt.Sprintf("%s cleared the selection", playerName(result.Player))

	case Selectable:
		if e.turn.Source == nil {
			snap := Snapshot{Element: tile.Element, Owner: tile.Owner, Coord: tile.Coord}
			e.turn.Source = &snap
			result.Outcome = OutcomeSelected
			e.message = fmt.Sprintf("%s selected %s at %s", playerName(result.Player), tile.Element, c)
			break
		}

		src := *e.turn.Source
		if err := e.board.ApplyCapture(src, c); err != nil {
			return TapResult{}, err
		}
		entry := CaptureEntry{
			MoveNumber:      len(e.history) + 1,
			Player:          result.Player,
			From:            src.Coord,
			To:              c,
			Element:         src.Element,
			ReplacedElement: tile.Element,
			ReplacedOwner:   tile.Owner,
			Timestamp:       time.Now().Unix(),
		}
		e.history = append(e.history, entry)
		e.current++

		e.turn.Active = e.turn.Active.Opponent()
		e.turn.Source = nil
		result.Outcome = OutcomeCaptured
		result.Capture = &entry
		e.message = fmt.Sprintf("%s captured %s: %s beats %s. %s to move",
			playerName(result.Player), c, src.Element, tile.Element, playerName(e.turn.Active))

	default:
		e.message = fmt.Sprintf("%s is not selectable", c)
	}

	if e.turn.Source != nil {
		snap := *e.turn.Source
		result.Source = &snap
	}
	e.board.RecomputeInteraction(e.turn)
	e.revision++
	return result, nil
}

// Reset restores the initial board and turn. Cumulative capture history is kept;
// only the current segment counter is cleared.
func (e *GameEngine) Reset() BoardView {
	e.board = e.initial.Clone()
	e.current = 0
	e.start()
	e.revision++
	return e.View()
}

// View returns a deep copy of the board for renderers
func (e *GameEngine) View() BoardView {
	tiles := e.board.Tiles()
	views := make([]TileView, len(tiles))
	for i, t := range tiles {
		views[i] = TileView{Coord: t.Coord, Element: t.Element, Owner: t.Owner, Interaction: t.Interaction}
	}

	v := BoardView{
		Rows:              e.board.Rows(),
		Cols:              e.board.Cols(),
		ConfigName:        e.config.Name,
		Phase:             e.turn.Phase(),
		ActivePlayer:      e.turn.Active,
		Tiles:             views,
		Standings:         e.board.Standings(),
		AvailableCaptures: e.board.AvailableCaptures(e.turn.Active),
		TotalCaptures:     len(e.history),
		Message:           e.message,
		Revision:          e.revision,
	}
	if e.turn.Source != nil {
		snap := *e.turn.Source
		v.Source = &snap
	}
	return v
}

// Board returns the live board. Callers must treat it as read-only.
func (e *GameEngine) Board() *Board { return e.board }

// Turn returns a copy of the turn state
func (e *GameEngine) Turn() TurnState {
	ts := TurnState{Active: e.turn.Active}
	if e.turn.Source != nil {
		snap := *e.turn.Source
		ts.Source = &snap
	}
	return ts
}

// Phase returns the current phase of the turn machine
func (e *GameEngine) Phase() Phase { return e.turn.Phase() }

// ActivePlayer returns the player whose turn it is
func (e *GameEngine) ActivePlayer() Owner { return e.turn.Active }

// TileAt returns a copy of the tile at c
func (e *GameEngine) TileAt(c Coordinate) (Tile, error) { return e.board.TileAt(c) }

// GetConfig returns the engine configuration
func (e *GameEngine) GetConfig() *GameConfig { return e.config }

// Message returns the last human-readable status line
func (e *GameEngine) Message() string { return e.message }

// GetCaptureHistory returns the cumulative capture history
func (e *GameEngine) GetCaptureHistory() []CaptureEntry {
	out := make([]CaptureEntry, len(e.history))
	copy(out, e.history)
	return out
}

// Revision returns the number of taps and resets applied so far
func (e *GameEngine) Revision() int { return e.revision }

// CurrentCaptures returns the number of captures since the last reset
func (e *GameEngine) CurrentCaptures() int { return e.current }

// GetLastCapture returns the last capture made, or nil if none
func (e *GameEngine) GetLastCapture() *CaptureEntry {
	if len(e.history) == 0 {
		return nil
	}
	entry := e.history[len(e.history)-1]
	return &entry
}

func playerName(o Owner) string {
	switch o {
	case Player1:
		return "Player 1"
	case Player2:
		return "Player 2"
	}
	return "Nobody"
}
