// Package websocket provides WebSocket transport for Element Capture.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Board broadcasting after every tap or reset
//   - Inbound tap actions routed to a TapHandler
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns all connections. Its Run loop handles register,
// unregister and broadcast requests; each client has a read pump and a
// write pump goroutine.
//
// Message Protocol:
//
//   - Incoming: {"action": "tap", "row": 2, "col": 0}
//   - Outgoing: {"session_id": "ab12", "event": "board_update", "board": {...}}
//     Boards with a lower "revision" than one already sent are dropped.
//   - Deleting a session sends {"session_id": "ab12", "event": "session_deleted"}
//   - Errors go only to the sender: {"event": "error", "error": "..."}
//
// Clients pick their session with ?session=ab12. Session IDs are matched
// case-insensitively.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetTapHandler(func(ctx context.Context, id string, c engine.Coordinate) (*engine.BoardView, error) {
//		resp, err := svc.Tap(ctx, id, c)
//		if err != nil {
//			return nil, err
//		}
//		return resp.Board, nil
//	})
//	go hub.Run(ctx)
package websocket
