package engine

import "fmt"

// Tile represents a single board cell. Coord never changes after setup.
type Tile struct {
	Coord       Coordinate  `json:"coord"`
	Element     Element     `json:"element"`
	Owner       Owner       `json:"owner"`
	Interaction Interaction `json:"interaction"`
}

// Board is a fixed rows x cols grid of tiles stored row-major
type Board struct {
	rows  int
	cols  int
	tiles []Tile
}

// NewBoard builds the banded board for the given dimensions. The result
// depends only on rows and cols.
func NewBoard(rows, cols int) (*Board, error) {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return nil, fmt.Errorf("board size %dx%d outside %d..%d", rows, cols, MinGridSize, MaxGridSize)
	}
	return buildBoard(&GameConfig{Rows: rows, Cols: cols, OwnerRows: DefaultOwnerRows}), nil
}

// NewBoardFromConfig validates config and populates a board from it
func NewBoardFromConfig(config *GameConfig) (*Board, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return buildBoard(config), nil
}

func newEmptyBoard(rows, cols int) *Board {
	b := &Board{
		rows:  rows,
		cols:  cols,
		tiles: make([]Tile, rows*cols),
	}
	for i := range b.tiles {
		b.tiles[i] = Tile{
			Coord:       Coordinate{Row: i / cols, Col: i % cols},
			Element:     Water,
			Owner:       NoOwner,
			Interaction: Inert,
		}
	}
	return b
}

// Rows returns the board height
func (b *Board) Rows() int { return b.rows }

// Cols returns the board width
func (b *Board) Cols() int { return b.cols }

// Count returns the number of tiles
func (b *Board) Count() int { return len(b.tiles) }

// InBounds reports whether c lies inside [0,rows) x [0,cols)
func (b *Board) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

func (b *Board) tile(c Coordinate) *Tile {
	return &b.tiles[c.Row*b.cols+c.Col]
}

// TileAt returns a copy of the tile at c
func (b *Board) TileAt(c Coordinate) (Tile, error) {
	if !b.InBounds(c) {
		return Tile{}, fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfBounds, c, b.rows, b.cols)
	}
	return *b.tile(c), nil
}

// Tiles returns a copy of every tile in row-major order
func (b *Board) Tiles() []Tile {
	out := make([]Tile, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// Coordinates returns every coordinate in row-major order
func (b *Board) Coordinates() []Coordinate {
	out := make([]Coordinate, len(b.tiles))
	for i, t := range b.tiles {
		out[i] = t.Coord
	}
	return out
}

// Set overwrites the element and owner at c. Used to lay out custom boards.
func (b *Board) Set(c Coordinate, element Element, owner Owner) error {
	if !b.InBounds(c) {
		return fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfBounds, c, b.rows, b.cols)
	}
	t := b.tile(c)
	t.Element = element
	t.Owner = owner
	return nil
}

// Clone returns an independent copy of the board
func (b *Board) Clone() *Board {
	return &Board{rows: b.rows, cols: b.cols, tiles: b.Tiles()}
}

// IsLegalTarget reports whether a tile may be captured from src: it must be an
// orthogonal neighbour and its element must be beaten by the source element.
func (b *Board) IsLegalTarget(src Snapshot, dst Coordinate) bool {
	if !b.InBounds(dst) || !src.Coord.IsNeighbor(dst) {
		return false
	}
	return Beats(src.Element, b.tile(dst).Element)
}

// ApplyCapture overwrites the destination tile with the snapshot's element and
// owner. Legality is the caller's responsibility.
func (b *Board) ApplyCapture(src Snapshot, dst Coordinate) error {
	if !b.InBounds(src.Coord) {
		return fmt.Errorf("%w: capture source %s no longer on the %dx%d grid", ErrIntegrityViolation, src.Coord, b.rows, b.cols)
	}
	if !b.InBounds(dst) {
		return fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfBounds, dst, b.rows, b.cols)
	}
	t := b.tile(dst)
	t.Element = src.Element
	t.Owner = src.Owner
	return nil
}

// RecomputeInteraction derives every tile's interaction state from ts
func (b *Board) RecomputeInteraction(ts TurnState) {
	for i := range b.tiles {
		t := &b.tiles[i]
		switch {
		case ts.Source != nil && t.Coord == ts.Source.Coord:
			t.Interaction = Selected
		case ts.Source != nil && b.IsLegalTarget(*ts.Source, t.Coord):
			t.Interaction = Selectable
		case ts.Source == nil && ts.Active.IsPlayer() && t.Owner == ts.Active:
			t.Interaction = Selectable
		default:
			t.Interaction = Inert
		}
	}
}

// Standings counts tiles per owner
func (b *Board) Standings() Standings {
	var s Standings
	for _, t := range b.tiles {
		switch t.Owner {
		case Player1:
			s.Player1++
		case Player2:
			s.Player2++
		default:
			s.Neutral++
		}
	}
	return s
}

// AvailableCaptures counts the (source, target) pairs open to player
func (b *Board) AvailableCaptures(player Owner) int {
	count := 0
	for _, t := range b.tiles {
		if t.Owner != player {
			continue
		}
		src := Snapshot{Element: t.Element, Owner: t.Owner, Coord: t.Coord}
		for _, n := range t.Coord.Neighbors() {
			if b.IsLegalTarget(src, n) {
				count++
			}
		}
	}
	return count
}
