package engine

import (
	"errors"
	"fmt"
)

// Element is the elemental type carried by a tile
type Element string

const (
	Earth Element = "earth"
	Fire  Element = "fire"
	Water Element = "water"
)

// Owner identifies which player holds a tile
type Owner string

const (
	NoOwner Owner = "none"
	Player1 Owner = "player1"
	Player2 Owner = "player2"
)

// Interaction is the render-facing classification of a tile
type Interaction string

const (
	Inert      Interaction = "inert"
	Selectable Interaction = "selectable"
	Selected   Interaction = "selected"
)

// Phase is the state of the turn machine
type Phase string

const (
	AwaitingSource Phase = "awaiting_source"
	SourceSelected Phase = "source_selected"
)

// Outcome describes what a single tap did
type Outcome string

const (
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeCaptured   Outcome = "captured"
	OutcomeIgnored    Outcome = "ignored"
)

const (
	// Validation constants
	MinGridSize      = 1
	MaxGridSize      = 32
	DefaultRows      = 9
	DefaultCols      = 5
	DefaultOwnerRows = 3
	DefaultSeed      = 20240917
)

var (
	// ErrOutOfBounds is returned when a coordinate lies outside the grid.
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrIntegrityViolation signals a broken invariant, never bad input.
	ErrIntegrityViolation = errors.New("integrity violation")
)

// Elements lists every element in dominance order
var Elements = []Element{Earth, Fire, Water}

// Valid reports whether e is one of the three elements
func (e Element) Valid() bool {
	switch e {
	case Earth, Fire, Water:
		return true
	}
	return false
}

// Beats reports whether an attacker of element a may capture a tile of element b.
// Earth beats Water, Fire beats Earth, Water beats Fire.
func Beats(a, b Element) bool {
	switch a {
	case Earth:
		return b == Water
	case Fire:
		return b == Earth
	case Water:
		return b == Fire
	}
	return false
}

// Valid reports whether o is a known owner value
func (o Owner) Valid() bool {
	switch o {
	case NoOwner, Player1, Player2:
		return true
	}
	return false
}

// IsPlayer reports whether o is one of the two players
func (o Owner) IsPlayer() bool {
	return o == Player1 || o == Player2
}

// Opponent returns the other player. NoOwner has no opponent and maps to itself.
func (o Owner) Opponent() Owner {
	switch o {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return o
}

// Coordinate identifies a grid cell
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// IsNeighbor reports whether c and other are orthogonally adjacent
func (c Coordinate) IsNeighbor(other Coordinate) bool {
	dr := abs(c.Row - other.Row)
	dc := abs(c.Col - other.Col)
	return dr+dc == 1
}

// Neighbors returns the four orthogonal coordinates around c, unclipped
func (c Coordinate) Neighbors() []Coordinate {
	return []Coordinate{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
	}
}

// Snapshot is an immutable copy of a tile taken when it was selected
type Snapshot struct {
	Element Element    `json:"element"`
	Owner   Owner      `json:"owner"`
	Coord   Coordinate `json:"coord"`
}

// TurnState is the mutable turn resource: who plays and what is selected
type TurnState struct {
	Active Owner     `json:"active"`
	Source *Snapshot `json:"source,omitempty"`
}

// Phase derives the state machine phase from the selection
func (ts TurnState) Phase() Phase {
	if ts.Source != nil {
		return SourceSelected
	}
	return AwaitingSource
}

// TileView is the read-only view of a tile handed to renderers
type TileView struct {
	Coord       Coordinate  `json:"coord"`
	Element     Element     `json:"element"`
	Owner       Owner       `json:"owner"`
	Interaction Interaction `json:"interaction"`
}

// Standings counts tiles per owner
type Standings struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
	Neutral int `json:"neutral"`
}

// BoardView is a deep copy of everything a renderer needs for one frame
type BoardView struct {
	Rows              int        `json:"rows"`
	Cols              int        `json:"cols"`
	ConfigName        string     `json:"config_name"`
	Phase             Phase      `json:"phase"`
	ActivePlayer      Owner      `json:"active_player"`
	Source            *Snapshot  `json:"source,omitempty"`
	Tiles             []TileView `json:"tiles"`
	Standings         Standings  `json:"standings"`
	AvailableCaptures int        `json:"available_captures"`
	TotalCaptures     int        `json:"total_captures"`
	Message           string     `json:"message,omitempty"`
	Revision          int        `json:"revision"` // later views of a session carry larger values
}

// TileAt returns the view of the tile at c, or false when c is outside the view
func (v *BoardView) TileAt(c Coordinate) (TileView, bool) {
	if c.Row < 0 || c.Row >= v.Rows || c.Col < 0 || c.Col >= v.Cols {
		return TileView{}, false
	}
	idx := c.Row*v.Cols + c.Col
	if idx >= len(v.Tiles) {
		return TileView{}, false
	}
	return v.Tiles[idx], true
}

// TapResult reports the effect of a single tap
type TapResult struct {
	Outcome Outcome       `json:"outcome"`
	Coord   Coordinate    `json:"coord"`
	Player  Owner         `json:"player"` // active player when the tap arrived
	Source  *Snapshot     `json:"source,omitempty"`
	Capture *CaptureEntry `json:"capture,omitempty"`
}

// CaptureEntry represents a single resolved capture in the game history
type CaptureEntry struct {
	MoveNumber      int        `json:"move_number"`
	Player          Owner      `json:"player"`
	From            Coordinate `json:"from"`
	To              Coordinate `json:"to"`
	Element         Element    `json:"element"`
	ReplacedElement Element    `json:"replaced_element"`
	ReplacedOwner   Owner      `json:"replaced_owner"`
	Timestamp       int64      `json:"timestamp"`
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
