// Package api provides HTTP REST API handlers for Element Capture.
//
// The api package implements:
//   - RESTful endpoints for game operations
//   - Session management endpoints
//   - Configuration listing and saving
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/board - Current board view
//   - POST /api/sessions/{id}/tap - Tap a tile ({"row": 2, "col": 0})
//   - POST /api/sessions/{id}/reset - Restore the starting board
//   - GET /api/sessions/{id}/history - Capture history (page, limit, order)
//   - GET /api/sessions/{id}/tiles/{row}/{col} - Describe one tile
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get one configuration
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id} - WebSocket board feed
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Out-of-bounds taps and
// invalid configurations are 400, unknown sessions and configurations are
// 404, and integrity violations are 500.
package api
