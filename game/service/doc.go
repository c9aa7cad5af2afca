// Package service provides the business logic layer for Element Capture.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Tap processing, one critical section per tap
//   - Capture history paging
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages board configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/terminal)
// and the game engine. It is the only writer of engine state: every host turns
// a click or a request into Tap, and renders the BoardView copy it gets back.
// Every operation runs inside an OpenTelemetry span; with no provider
// installed the spans are no-ops.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := gameService.Tap(ctx, info.ID, engine.Coordinate{Row: 2, Col: 0})
package service
