// Package mcp provides the Model Context Protocol server for Element Capture.
//
// The server is a thin client of the HTTP API: every tool call becomes a
// request against the running game server, and the JSON response is rendered
// as text an agent can read.
//
// MCP Tools:
//   - create_session: Create a new game session, optionally from a named board config
//   - list_sessions: List active sessions
//   - get_session: Get session details
//   - board_state: Render the board with owners and interaction markers
//   - tap: Tap a tile by row and col (select, deselect or capture)
//   - reset_game: Restore the session's opening board
//   - capture_history: Paginated capture log
//   - list_configs: List available board configs
//   - game_instructions: Rules and board legend
//   - describe_tile: Element matchups and capture options for one tile
//
// Transport Modes:
//   - Stdio: the mcp command serves tools over stdin/stdout
//   - HTTP: the serve command mounts the same server on /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
