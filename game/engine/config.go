package engine

import (
	"fmt"
	"math/rand/v2"
)

// Element placement policies
const (
	PolicyBands  = "bands"
	PolicyRandom = "random"
)

// GameConfig represents the board configuration loaded from JSON
type GameConfig struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Rows          int      `json:"rows"`
	Cols          int      `json:"cols"`
	ElementPolicy string   `json:"element_policy,omitempty"`
	Seed          int64    `json:"seed,omitempty"`
	OwnerRows     int      `json:"owner_rows,omitempty"`
	FirstPlayer   Owner    `json:"first_player,omitempty"`
	Elements      []string `json:"elements,omitempty"` // optional explicit layout: E, F, W
	Owners        []string `json:"owners,omitempty"`   // optional explicit layout: 0, 1, 2
}

// DefaultConfig returns the classic 9x5 banded board
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:          "Classic",
		Description:   "Fire on the flanks, earth beside it, water down the middle",
		Rows:          DefaultRows,
		Cols:          DefaultCols,
		ElementPolicy: PolicyBands,
		OwnerRows:     DefaultOwnerRows,
		FirstPlayer:   Player1,
	}
}

// First returns the player who moves first
func (c *GameConfig) First() Owner {
	if c.FirstPlayer == "" {
		return Player1
	}
	return c.FirstPlayer
}

// ValidateGameConfig validates a board configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}

	switch config.ElementPolicy {
	case "", PolicyBands, PolicyRandom:
	default:
		return fmt.Errorf("config validation: element_policy must be %q or %q, got %q", PolicyBands, PolicyRandom, config.ElementPolicy)
	}

	if config.OwnerRows < 0 || config.OwnerRows > config.Rows {
		return fmt.Errorf("config validation: owner_rows must be between 0 and rows (%d), got %d", config.Rows, config.OwnerRows)
	}

	if config.FirstPlayer != "" && !config.FirstPlayer.IsPlayer() {
		return fmt.Errorf("config validation: first_player must be %q or %q, got %q", Player1, Player2, config.FirstPlayer)
	}

	if err := validateLayout("elements", config.Elements, config.Rows, config.Cols, "EFW"); err != nil {
		return err
	}
	if err := validateLayout("owners", config.Owners, config.Rows, config.Cols, "012"); err != nil {
		return err
	}

	board := buildBoard(config)
	standings := board.Standings()
	if standings.Player1 == 0 || standings.Player2 == 0 {
		return fmt.Errorf("config validation: each player must own at least one tile, got player1=%d player2=%d",
			standings.Player1, standings.Player2)
	}

	return nil
}

func validateLayout(field string, layout []string, rows, cols int, allowed string) error {
	if len(layout) == 0 {
		return nil
	}
	if len(layout) != rows {
		return fmt.Errorf("config validation: %s must have %d rows to match rows, got %d", field, rows, len(layout))
	}
	for i, row := range layout {
		if len(row) != cols {
			return fmt.Errorf("config validation: %s row %d must have %d characters to match cols, got %d",
				field, i+1, cols, len(row))
		}
		for j, char := range row {
			if !containsRune(allowed, char) {
				return fmt.Errorf("config validation: invalid %s character '%c' at row %d, col %d", field, char, i+1, j+1)
			}
		}
	}
	return nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// buildBoard populates a board from a config that has already been validated.
func buildBoard(config *GameConfig) *Board {
	b := newEmptyBoard(config.Rows, config.Cols)

	ownerRows := config.OwnerRows
	if ownerRows == 0 {
		ownerRows = DefaultOwnerRows
	}

	var rng *rand.Rand
	if config.ElementPolicy == PolicyRandom {
		seed := uint64(config.Seed)
		if seed == 0 {
			seed = DefaultSeed
		}
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	for row := 0; row < config.Rows; row++ {
		for col := 0; col < config.Cols; col++ {
			t := b.tile(Coordinate{Row: row, Col: col})

			switch {
			case len(config.Elements) > 0:
				t.Element = elementFromChar(config.Elements[row][col])
			case rng != nil:
				t.Element = Elements[rng.IntN(len(Elements))]
			default:
				t.Element = BandElement(col, config.Cols)
			}

			if len(config.Owners) > 0 {
				t.Owner = ownerFromChar(config.Owners[row][col])
			} else {
				t.Owner = BandOwner(row, config.Rows, ownerRows)
			}
		}
	}

	return b
}

// BandElement assigns elements by column band: outer columns Fire, the next
// band Earth, everything in the middle Water.
func BandElement(col, cols int) Element {
	switch {
	case col == 0 || col == cols-1:
		return Fire
	case col == 1 || col == cols-2:
		return Earth
	default:
		return Water
	}
}

// BandOwner assigns owners by row band. The band depth is clamped to half the
// board so the two players never overlap.
func BandOwner(row, rows, depth int) Owner {
	if depth > rows/2 {
		depth = rows / 2
	}
	switch {
	case row < depth:
		return Player1
	case row >= rows-depth:
		return Player2
	default:
		return NoOwner
	}
}

func elementFromChar(c byte) Element {
	switch c {
	case 'E':
		return Earth
	case 'F':
		return Fire
	default:
		return Water
	}
}

func ownerFromChar(c byte) Owner {
	switch c {
	case '1':
		return Player1
	case '2':
		return Player2
	default:
		return NoOwner
	}
}

// ElementChar returns the layout character for an element
func ElementChar(e Element) byte {
	switch e {
	case Earth:
		return 'E'
	case Fire:
		return 'F'
	case Water:
		return 'W'
	}
	return '?'
}

// OwnerChar returns the layout character for an owner
func OwnerChar(o Owner) byte {
	switch o {
	case Player1:
		return '1'
	case Player2:
		return '2'
	}
	return '0'
}
