// Package terminal hosts an Element Capture session in a terminal using tcell.
//
// The UI is the input and render collaborator for the turn engine: a mouse
// press followed by a release over a tile, or Enter on the keyboard cursor,
// becomes one tap sent through the game service. After every handled event
// the whole board is redrawn from a fresh BoardView; the UI never mutates
// game state itself.
//
// Each tile is four cells wide. The background is the element (red fire,
// olive earth, navy water), the glyph pair is element and owner, and the
// brackets show the interaction state:
//
//	[F1]  selected source
//	<E1>  selectable now
//	 W0   inert
package terminal
