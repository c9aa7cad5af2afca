// Command validate provides a small CLI that validates board configuration JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure, unknown fields and required fields
//   - Grid dimensions, element policy and explicit layout characters (E, F, W / 0, 1, 2)
//   - That both players own at least one tile
//   - Opening mobility: the first player has at least one legal capture, since
//     the game has no pass move
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/elementcapture/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	eng, err := engine.NewEngine(&config)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to build board: %v", err))
		return result
	}

	// Opening mobility
	mobility := validateMobility(eng)
	if !mobility.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, mobility.Errors...)
		return result
	}
	result.Errors = append(result.Errors, mobility.Errors...)

	view := eng.View()
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", config.Rows, config.Cols))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Elements: %s", placement(&config)))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Tiles: player1=%d player2=%d neutral=%d",
		view.Standings.Player1, view.Standings.Player2, view.Standings.Neutral))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ First player: %s", config.First()))

	return result
}

func placement(config *engine.GameConfig) string {
	switch {
	case len(config.Elements) > 0:
		return "explicit layout"
	case config.ElementPolicy == engine.PolicyRandom:
		seed := config.Seed
		if seed == 0 {
			seed = engine.DefaultSeed
		}
		return fmt.Sprintf("random (seed %d)", seed)
	}
	return engine.PolicyBands
}

// validateMobility ensures the player who moves first can capture something.
// A board where they cannot is stuck from the first tap.
func validateMobility(eng *engine.GameEngine) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	board := eng.Board()
	first := eng.ActivePlayer()
	second := first.Opponent()

	firstCaptures := board.AvailableCaptures(first)
	if firstCaptures == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Opening deadlock: %s moves first but has no legal capture", first))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Opening captures: %s=%d %s=%d",
		first, firstCaptures, second, board.AvailableCaptures(second)))
	return result
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No configuration files in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
