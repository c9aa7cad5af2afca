// Command analyze prints quick, human-readable heuristics about board
// configuration files in the project's configs directory. It summarizes
// dimensions, element counts per owner, opening capture counts for both
// players and the tiles each player leaves exposed to the other.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/elementcapture/game/engine"
)

// Analysis is the opening summary of one board configuration.
type Analysis struct {
	Name      string
	Rows      int
	Cols      int
	First     engine.Owner
	Standings engine.Standings
	// Elements counts tiles per owner and element
	Elements map[engine.Owner]map[engine.Element]int
	Captures map[engine.Owner]int
	// Exposed lists each player's tiles that the opponent can take on its first turn
	Exposed map[engine.Owner][]engine.Coordinate
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No configuration files in %s\n", dir)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeConfig(os.Stdout, file)
	}
}

func analyzeConfig(w io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error reading file: %v\n", err)
		return
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		fmt.Fprintf(w, "Error parsing JSON: %v\n", err)
		return
	}

	eng, err := engine.NewEngine(&config)
	if err != nil {
		fmt.Fprintf(w, "Error building board: %v\n", err)
		return
	}

	printAnalysis(w, analyze(eng))
}

func analyze(eng *engine.GameEngine) Analysis {
	board := eng.Board()
	config := eng.GetConfig()

	a := Analysis{
		Name:      config.Name,
		Rows:      board.Rows(),
		Cols:      board.Cols(),
		First:     eng.ActivePlayer(),
		Standings: board.Standings(),
		Elements:  map[engine.Owner]map[engine.Element]int{},
		Captures:  map[engine.Owner]int{},
		Exposed:   map[engine.Owner][]engine.Coordinate{},
	}

	for _, tile := range board.Tiles() {
		if a.Elements[tile.Owner] == nil {
			a.Elements[tile.Owner] = map[engine.Element]int{}
		}
		a.Elements[tile.Owner][tile.Element]++
	}

	for _, player := range []engine.Owner{engine.Player1, engine.Player2} {
		a.Captures[player] = board.AvailableCaptures(player)
	}

	for _, tile := range board.Tiles() {
		if !tile.Owner.IsPlayer() {
			continue
		}
		if threatened(board, tile, tile.Owner.Opponent()) {
			a.Exposed[tile.Owner] = append(a.Exposed[tile.Owner], tile.Coord)
		}
	}

	return a
}

// threatened reports whether any neighbour owned by attacker can capture tile.
func threatened(board *engine.Board, tile engine.Tile, attacker engine.Owner) bool {
	for _, n := range tile.Coord.Neighbors() {
		other, err := board.TileAt(n)
		if err != nil || other.Owner != attacker {
			continue
		}
		src := engine.Snapshot{Element: other.Element, Owner: other.Owner, Coord: other.Coord}
		if board.IsLegalTarget(src, tile.Coord) {
			return true
		}
	}
	return false
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "First Player: %s\n", a.First)
	fmt.Fprintf(w, "Tiles: player1=%d player2=%d neutral=%d\n", a.Standings.Player1, a.Standings.Player2, a.Standings.Neutral)

	for _, owner := range []engine.Owner{engine.Player1, engine.Player2, engine.NoOwner} {
		counts := a.Elements[owner]
		fmt.Fprintf(w, "  %-8s earth=%d fire=%d water=%d\n", owner, counts[engine.Earth], counts[engine.Fire], counts[engine.Water])
	}

	fmt.Fprintf(w, "Opening Captures: player1=%d player2=%d\n", a.Captures[engine.Player1], a.Captures[engine.Player2])
	if a.Captures[a.First] == 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %s moves first but has no legal capture!\n", a.First)
	} else {
		fmt.Fprintf(w, "✅ %s can open with a capture\n", a.First)
	}

	for _, player := range []engine.Owner{engine.Player1, engine.Player2} {
		exposed := a.Exposed[player]
		if len(exposed) == 0 {
			fmt.Fprintf(w, "✅ No %s tile is within reach of %s\n", player, player.Opponent())
			continue
		}
		fmt.Fprintf(w, "⚠️  WARNING: %d %s tiles can be taken by %s\n", len(exposed), player, player.Opponent())
		for i, c := range exposed {
			if i < 5 {
				fmt.Fprintf(w, "   Exposed: %s\n", c)
			}
		}
		if len(exposed) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(exposed)-5)
		}
	}
}
