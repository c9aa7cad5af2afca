// Package engine provides the core game logic for Element Capture.
//
// The engine package implements the game mechanics including:
//   - A fixed rectangular board of tiles, each with an element and an owner
//   - The Earth/Fire/Water dominance cycle that decides attack legality
//   - The two-phase turn state machine (awaiting source, source selected)
//   - Per-tile interaction state, recomputed after every transition
//   - Capture history and read-only board views for renderers
//
// Core Types:
//
// Board owns the tiles and answers adjacency and capture questions. Engine
// owns a Board plus the TurnState and is the only writer of either. GameConfig
// describes how a board is populated and is loaded from JSON files.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Select a source tile, then capture a neighbour it beats
//	if _, err := eng.Tap(engine.Coordinate{Row: 2, Col: 1}); err != nil {
//		log.Fatal(err)
//	}
//	result, err := eng.Tap(engine.Coordinate{Row: 3, Col: 1})
//	view := eng.View()
//
// Game Rules:
//
// Two players take turns. The active player selects one of their own tiles,
// then taps an orthogonal neighbour whose element is beaten by the source
// element (Earth beats Water, Fire beats Earth, Water beats Fire). The target
// takes on the source's element and owner and the turn passes. Tapping the
// selected tile again cancels the selection. Every other tap is ignored.
package engine
